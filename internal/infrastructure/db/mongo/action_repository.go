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

const collectionActions = "actions"

// ActionRepository implements the append-only ledger using MongoDB. There is
// deliberately no update or delete: an inserted action is permanent, and a
// completed InsertOne is immediately visible to readers.
type ActionRepository struct {
	col *mongo.Collection
}

func NewActionRepository(db *mongo.Database) *ActionRepository {
	return &ActionRepository{col: db.Collection(collectionActions)}
}

// Append persists a new immutable action.
func (r *ActionRepository) Append(ctx context.Context, a *domain.Action) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if a.ID == "" {
		a.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.col.InsertOne(ctx, a)
	return err
}

// QueryByCase returns actions for the case ordered by timestamp descending.
// A non-empty kind restricts the query to that kind.
func (r *ActionRepository) QueryByCase(ctx context.Context, caseID string, kind domain.ActionKind) ([]*domain.Action, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"case_id": caseID}
	if kind != "" {
		filter["kind"] = string(kind)
	}

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var actions []*domain.Action
	if err := cur.All(ctx, &actions); err != nil {
		return nil, err
	}
	return actions, nil
}

// Latest returns the most recent action of any kind for the case.
func (r *ActionRepository) Latest(ctx context.Context, caseID string) (*domain.Action, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	var a domain.Action
	err := r.col.FindOne(ctx, bson.M{"case_id": caseID}, opts).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrActionNotFound
		}
		return nil, err
	}
	return &a, nil
}

// EnsureIndexes creates the indexes backing per-case ledger reads. Ordering
// only needs to be correct per case, so both indexes lead with case_id.
func (r *ActionRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "case_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "case_id", Value: 1}, {Key: "kind", Value: 1}, {Key: "timestamp", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
