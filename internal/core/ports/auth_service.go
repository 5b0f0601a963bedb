package ports

import (
	"context"

	"github.com/permitology/permit-system/internal/core/domain"
)

// AuthService handles onboarding and login. Register is where an actor's role
// gets assigned; the directory itself stores roles as data only.
type AuthService interface {
	Register(ctx context.Context, email, password string, role domain.Role) (*domain.Actor, error)
	Login(ctx context.Context, email, password string) (string, *domain.Actor, error)
}
