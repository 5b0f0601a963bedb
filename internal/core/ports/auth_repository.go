package ports

import (
	"context"

	"github.com/permitology/permit-system/internal/core/domain"
)

// AuthRepository defines the interface for credential persistence.
type AuthRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Credential, error)
	Create(ctx context.Context, cred *domain.Credential) error
}
