package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/permitology/permit-system/internal/core/domain"
)

const collectionCases = "cases"

// CaseRepository implements ports.CaseRepository using MongoDB.
type CaseRepository struct {
	col *mongo.Collection
}

func NewCaseRepository(db *mongo.Database) *CaseRepository {
	return &CaseRepository{col: db.Collection(collectionCases)}
}

// Create inserts a new case document, assigning its ID.
func (r *CaseRepository) Create(ctx context.Context, c *domain.Case) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if c.ID == "" {
		c.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.col.InsertOne(ctx, c)
	return err
}

// FindByID retrieves a case by ID.
func (r *CaseRepository) FindByID(ctx context.Context, id string) (*domain.Case, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var c domain.Case
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCaseNotFound
		}
		return nil, err
	}
	return &c, nil
}

// UpdateState sets the case's denormalized state field. Only the transition
// path calls this, always after the matching ledger append.
func (r *CaseRepository) UpdateState(ctx context.Context, id string, state domain.CaseState) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"state": string(state)}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrCaseNotFound
	}
	return nil
}

// ListByOwner returns all cases owned by the given actor, newest first.
func (r *CaseRepository) ListByOwner(ctx context.Context, ownerEmail string) ([]*domain.Case, error) {
	return r.list(ctx, bson.M{"owner_email": ownerEmail})
}

// ListByState returns all cases currently in the given state, newest first.
func (r *CaseRepository) ListByState(ctx context.Context, state domain.CaseState) ([]*domain.Case, error) {
	return r.list(ctx, bson.M{"state": string(state)})
}

func (r *CaseRepository) list(ctx context.Context, filter bson.M) ([]*domain.Case, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var cases []*domain.Case
	if err := cur.All(ctx, &cases); err != nil {
		return nil, err
	}
	return cases, nil
}

// EnsureIndexes creates the indexes backing the owner and state listings.
func (r *CaseRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_email", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "state", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
