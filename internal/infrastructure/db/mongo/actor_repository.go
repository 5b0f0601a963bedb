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

const collectionActors = "actors"

// ActorRepository implements ports.ActorRepository using MongoDB. The unique
// index on email is the correctness backstop for concurrent Ensure calls.
type ActorRepository struct {
	col *mongo.Collection
}

func NewActorRepository(db *mongo.Database) *ActorRepository {
	return &ActorRepository{col: db.Collection(collectionActors)}
}

// FindByEmail retrieves an actor by its natural key.
func (r *ActorRepository) FindByEmail(ctx context.Context, email string) (*domain.Actor, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var a domain.Actor
	err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrActorNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Insert creates a new actor document. A duplicate key on email maps to
// domain.ErrActorExists so the caller can fall back to a re-read.
func (r *ActorRepository) Insert(ctx context.Context, actor *domain.Actor) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if actor.ID == "" {
		actor.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.col.InsertOne(ctx, actor)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrActorExists
		}
		return err
	}
	return nil
}

// UpdateRole sets the actor's role in place.
func (r *ActorRepository) UpdateRole(ctx context.Context, email string, role domain.Role) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"role": string(role)}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrActorNotFound
	}
	return nil
}

// EnsureIndexes creates the unique email index on the actors collection.
func (r *ActorRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
