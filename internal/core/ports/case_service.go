package ports

import (
	"context"
	"time"

	"github.com/permitology/permit-system/internal/core/domain"
)

// CreateCaseInput carries the data needed to open a new case.
type CreateCaseInput struct {
	OwnerEmail string
	Address    string
}

// TransitionInput carries the common parameters of a case transition.
// DedupKey is optional; when non-empty it makes the ledger append at-most-once
// across blind retries of the same logical call.
type TransitionInput struct {
	CaseID     string
	ActorEmail string
	Notes      string
	DedupKey   string
}

// ReviewedPartition splits the cases currently under review into those being
// reviewed by a given actor versus everyone else's.
type ReviewedPartition struct {
	Mine   []*domain.Case
	Others []*domain.Case
}

// CaseService defines the use-case operations on the case aggregate. Every
// transition appends exactly one ledger action and then updates the case's
// denormalized state; derived facts are always re-read from the ledger.
type CaseService interface {
	Create(ctx context.Context, input CreateCaseInput) (*domain.Case, error)
	Submit(ctx context.Context, input TransitionInput) (*domain.Case, error)
	// Review assigns the case to the approver. Re-assigning the same approver
	// is a no-op: no ledger append, no state write.
	Review(ctx context.Context, input TransitionInput) (*domain.Case, error)
	Comment(ctx context.Context, input TransitionInput) (*domain.Case, error)
	Approve(ctx context.Context, input TransitionInput) (*domain.Case, error)
	Deny(ctx context.Context, input TransitionInput) (*domain.Case, error)

	Get(ctx context.Context, caseID string) (*domain.Case, error)
	ListByOwner(ctx context.Context, ownerEmail string) ([]*domain.Case, error)
	ListSubmitted(ctx context.Context) ([]*domain.Case, error)
	ListUnderReview(ctx context.Context) ([]*domain.Case, error)

	// Actions returns the case's ledger, most recent first, optionally
	// restricted to one kind (empty kind = all).
	Actions(ctx context.Context, caseID string, kind domain.ActionKind) ([]*domain.Action, error)
	// Reviewer returns the current reviewer derived from the ledger, or nil
	// when the case is not under review.
	Reviewer(ctx context.Context, caseID string) (*domain.Actor, error)
	// LastModified returns the elapsed time since the case's latest action.
	LastModified(ctx context.Context, caseID string) (time.Duration, error)
	// SubmitBlockers returns one reason per required document purpose still
	// missing from the ledger; an empty slice means the case is submittable.
	SubmitBlockers(ctx context.Context, caseID string) ([]string, error)
	// ReviewedBy partitions the under-review cases by reviewer equality.
	ReviewedBy(ctx context.Context, email string) (*ReviewedPartition, error)
}
