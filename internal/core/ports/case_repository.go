package ports

import (
	"context"

	"github.com/permitology/permit-system/internal/core/domain"
)

// CaseRepository defines persistence operations for case aggregates.
//
// State writes only ever happen through UpdateState as the second half of a
// transition (ledger append first); no caller may write arbitrary states.
type CaseRepository interface {
	Create(ctx context.Context, c *domain.Case) error
	FindByID(ctx context.Context, id string) (*domain.Case, error)
	UpdateState(ctx context.Context, id string, state domain.CaseState) error
	// ListByOwner returns all cases owned by the given actor, newest first.
	ListByOwner(ctx context.Context, ownerEmail string) ([]*domain.Case, error)
	// ListByState returns all cases currently in the given state, newest first.
	ListByState(ctx context.Context, state domain.CaseState) ([]*domain.Case, error)
}
