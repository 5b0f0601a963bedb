package ports

import (
	"context"

	"github.com/permitology/permit-system/internal/core/domain"
)

// ActorRepository defines persistence for the identity directory.
type ActorRepository interface {
	// FindByEmail retrieves an actor by its natural key.
	FindByEmail(ctx context.Context, email string) (*domain.Actor, error)
	// Insert creates a new actor. Returns domain.ErrActorExists when the email
	// is already taken (the unique index is the correctness backstop for
	// concurrent Ensure calls).
	Insert(ctx context.Context, actor *domain.Actor) error
	// UpdateRole sets the actor's role in place.
	UpdateRole(ctx context.Context, email string, role domain.Role) error
}
