package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/permitology/permit-system/internal/core/domain"
)

const collectionCredentials = "credentials"

// AuthRepository implements ports.AuthRepository using MongoDB.
type AuthRepository struct {
	col *mongo.Collection
}

func NewAuthRepository(db *mongo.Database) *AuthRepository {
	return &AuthRepository{col: db.Collection(collectionCredentials)}
}

func (r *AuthRepository) Create(ctx context.Context, cred *domain.Credential) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, cred)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrActorExists
		}
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (r *AuthRepository) FindByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var cred domain.Credential
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&cred); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrActorNotFound
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return &cred, nil
}

// EnsureIndexes creates the unique email index on the credentials collection.
func (r *AuthRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
