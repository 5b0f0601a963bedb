package ports

import (
	"context"

	"github.com/permitology/permit-system/internal/core/domain"
)

// DirectoryService is the identity directory: actors looked up and created by
// their natural key (email), with a role assigned once during onboarding.
type DirectoryService interface {
	// GetByEmail returns the actor for the email, or domain.ErrActorNotFound.
	GetByEmail(ctx context.Context, email string) (*domain.Actor, error)
	// Ensure returns the existing actor for the email, creating one with an
	// unset role when absent. Safe under concurrent calls for the same email.
	Ensure(ctx context.Context, email string) (*domain.Actor, error)
	// AssignRole sets the actor's role. Fails with domain.ErrInvalidRole for a
	// role outside the fixed set. Idempotent: re-assignment is an update.
	AssignRole(ctx context.Context, email string, role domain.Role) error
}
