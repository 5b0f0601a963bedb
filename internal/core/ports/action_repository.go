package ports

import (
	"context"

	"github.com/permitology/permit-system/internal/core/domain"
)

// ActionRepository is the append-only ledger of everything that happened to a
// case. Appends must be immediately observable by readers; there is no update
// or delete.
type ActionRepository interface {
	// Append persists a new immutable action.
	Append(ctx context.Context, a *domain.Action) error
	// QueryByCase returns actions for the case ordered by timestamp descending
	// (most recent first). When kind is non-empty, only actions of that kind
	// are returned.
	QueryByCase(ctx context.Context, caseID string, kind domain.ActionKind) ([]*domain.Action, error)
	// Latest returns the most recent action of any kind for the case, or
	// domain.ErrActionNotFound when the case has no actions.
	Latest(ctx context.Context, caseID string) (*domain.Action, error)
}
