package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/permitology/permit-system/internal/api/metrics"
	"github.com/permitology/permit-system/internal/core/domain"
	"github.com/permitology/permit-system/internal/core/ports"
	"github.com/permitology/permit-system/internal/core/view"
)

// DedupChecker abstracts the append idempotency store (Redis). Keys are caller
// supplied; a hit means the same logical transition was already applied.
type DedupChecker interface {
	IsDuplicate(ctx context.Context, caseID string, kind domain.ActionKind, key string) (bool, error)
	Mark(ctx context.Context, caseID string, kind domain.ActionKind, key string) error
}

// AuditExporter receives the serialized form of every appended action for
// delivery to the external audit portal.
type AuditExporter interface {
	Enqueue(caseID string, item view.ActionView)
}

// CaseService implements the case aggregate state machine. Every transition
// appends exactly one immutable ledger action and then updates the case's
// denormalized state; the ledger is authoritative for all derived facts.
type CaseService struct {
	cases     ports.CaseRepository
	actions   ports.ActionRepository
	directory ports.DirectoryService
	dedup     DedupChecker
	exporter  AuditExporter
	logger    zerolog.Logger
}

func NewCaseService(
	cases ports.CaseRepository,
	actions ports.ActionRepository,
	directory ports.DirectoryService,
	dedup DedupChecker,
	exporter AuditExporter,
	logger zerolog.Logger,
) *CaseService {
	return &CaseService{
		cases:     cases,
		actions:   actions,
		directory: directory,
		dedup:     dedup,
		exporter:  exporter,
		logger:    logger,
	}
}

// Create opens a new case in the Incomplete state and records the Create
// action. The owner is created in the directory on first reference.
func (s *CaseService) Create(ctx context.Context, input ports.CreateCaseInput) (*domain.Case, error) {
	owner, err := s.directory.Ensure(ctx, input.OwnerEmail)
	if err != nil {
		return nil, fmt.Errorf("create case: %w", err)
	}

	c := &domain.Case{
		Address:    input.Address,
		OwnerEmail: owner.Email,
		State:      domain.StateIncomplete,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.cases.Create(ctx, c); err != nil {
		s.logger.Error().Err(err).Str("owner", owner.Email).Msg("failed to create case")
		return nil, err
	}

	if _, err := s.append(ctx, c, owner, owner, domain.ActionCreate, "", "", ""); err != nil {
		return nil, err
	}

	s.logger.Info().Str("case_id", c.ID).Str("owner", owner.Email).Msg("case created")
	return c, nil
}

// Submit moves the case to Submitted. Whether the case is eligible (no submit
// blockers) is the caller's check; the transition itself is unconditional.
func (s *CaseService) Submit(ctx context.Context, input ports.TransitionInput) (*domain.Case, error) {
	return s.transition(ctx, input, domain.ActionSubmit, domain.StateSubmitted)
}

// Review assigns the case to the given approver and moves it to UnderReview.
// Re-assigning the approver who is already the current reviewer is a no-op:
// neither the state nor the ledger changes, so redundant reassignment clicks
// leave no noise. Assigning a different approver is a real transition.
func (s *CaseService) Review(ctx context.Context, input ports.TransitionInput) (*domain.Case, error) {
	c, _, _, err := s.resolve(ctx, input.CaseID, input.ActorEmail)
	if err != nil {
		return nil, err
	}

	if c.State == domain.StateUnderReview {
		current, err := s.reviewerEmail(ctx, c)
		if err != nil {
			return nil, err
		}
		if current == input.ActorEmail {
			s.logger.Debug().Str("case_id", c.ID).Str("approver", input.ActorEmail).Msg("reviewer unchanged, skipping")
			return c, nil
		}
	}

	return s.transition(ctx, input, domain.ActionReview, domain.StateUnderReview)
}

// Comment returns the case to the applicant requesting changes.
func (s *CaseService) Comment(ctx context.Context, input ports.TransitionInput) (*domain.Case, error) {
	return s.transition(ctx, input, domain.ActionComment, domain.StateNeedsWork)
}

// Approve marks the case as approved (terminal).
func (s *CaseService) Approve(ctx context.Context, input ports.TransitionInput) (*domain.Case, error) {
	return s.transition(ctx, input, domain.ActionApprove, domain.StateApproved)
}

// Deny marks the case as rejected (terminal).
func (s *CaseService) Deny(ctx context.Context, input ports.TransitionInput) (*domain.Case, error) {
	return s.transition(ctx, input, domain.ActionDeny, domain.StateDenied)
}

// Get returns the case by ID.
func (s *CaseService) Get(ctx context.Context, caseID string) (*domain.Case, error) {
	return s.cases.FindByID(ctx, caseID)
}

// ListByOwner returns the cases owned by the given actor.
func (s *CaseService) ListByOwner(ctx context.Context, ownerEmail string) ([]*domain.Case, error) {
	return s.cases.ListByOwner(ctx, ownerEmail)
}

// ListSubmitted returns the cases waiting for a reviewer.
func (s *CaseService) ListSubmitted(ctx context.Context) ([]*domain.Case, error) {
	return s.cases.ListByState(ctx, domain.StateSubmitted)
}

// ListUnderReview returns the cases currently being reviewed.
func (s *CaseService) ListUnderReview(ctx context.Context) ([]*domain.Case, error) {
	return s.cases.ListByState(ctx, domain.StateUnderReview)
}

// Actions returns the case's ledger, most recent first.
func (s *CaseService) Actions(ctx context.Context, caseID string, kind domain.ActionKind) ([]*domain.Action, error) {
	if kind != "" && !kind.Valid() {
		return nil, fmt.Errorf("query actions: %q: %w", kind, domain.ErrInvalidAction)
	}
	if _, err := s.cases.FindByID(ctx, caseID); err != nil {
		return nil, err
	}
	return s.actions.QueryByCase(ctx, caseID, kind)
}

// Reviewer returns the actor of the most recent Review action, or nil when the
// case is not under review. The reviewer is always re-derived from the ledger,
// so stale reviewer data cannot exist.
func (s *CaseService) Reviewer(ctx context.Context, caseID string) (*domain.Actor, error) {
	c, err := s.cases.FindByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.State != domain.StateUnderReview {
		return nil, nil
	}
	email, err := s.reviewerEmail(ctx, c)
	if err != nil {
		return nil, err
	}
	if email == "" {
		return nil, nil
	}
	return s.directory.GetByEmail(ctx, email)
}

// LastModified returns the elapsed time since the case's most recent action.
// The ledger timestamp wins over the case row's own write time.
func (s *CaseService) LastModified(ctx context.Context, caseID string) (time.Duration, error) {
	if _, err := s.cases.FindByID(ctx, caseID); err != nil {
		return 0, err
	}
	latest, err := s.actions.Latest(ctx, caseID)
	if err != nil {
		return 0, err
	}
	return time.Since(latest.Timestamp), nil
}

// SubmitBlockers returns one "Missing <purpose>" reason per required document
// purpose that has no Update action recorded for the case. An empty slice
// means the case may be submitted.
func (s *CaseService) SubmitBlockers(ctx context.Context, caseID string) ([]string, error) {
	if _, err := s.cases.FindByID(ctx, caseID); err != nil {
		return nil, err
	}
	updates, err := s.actions.QueryByCase(ctx, caseID, domain.ActionUpdate)
	if err != nil {
		return nil, err
	}

	present := make(map[domain.Purpose]struct{}, len(updates))
	for _, a := range updates {
		if a.Purpose != "" {
			present[a.Purpose] = struct{}{}
		}
	}

	blockers := []string{}
	for _, purpose := range domain.Purposes {
		if _, ok := present[purpose]; !ok {
			blockers = append(blockers, fmt.Sprintf("Missing %s", purpose))
		}
	}
	return blockers, nil
}

// ReviewedBy partitions the under-review cases into those reviewed by the
// given actor and those reviewed by someone else. This is a full scan of the
// in-review set, which stays small and bounded by active workload.
func (s *CaseService) ReviewedBy(ctx context.Context, email string) (*ports.ReviewedPartition, error) {
	underReview, err := s.cases.ListByState(ctx, domain.StateUnderReview)
	if err != nil {
		return nil, err
	}

	part := &ports.ReviewedPartition{Mine: []*domain.Case{}, Others: []*domain.Case{}}
	for _, c := range underReview {
		reviewer, err := s.reviewerEmail(ctx, c)
		if err != nil {
			return nil, err
		}
		if reviewer == email {
			part.Mine = append(part.Mine, c)
		} else {
			part.Others = append(part.Others, c)
		}
	}
	return part, nil
}

// resolve loads the case and both actor references a transition depends on.
// An unresolvable owner or actor fails the transition before anything is
// written to the ledger.
func (s *CaseService) resolve(ctx context.Context, caseID, actorEmail string) (*domain.Case, *domain.Actor, *domain.Actor, error) {
	c, err := s.cases.FindByID(ctx, caseID)
	if err != nil {
		return nil, nil, nil, err
	}
	owner, err := s.directory.GetByEmail(ctx, c.OwnerEmail)
	if err != nil {
		if errors.Is(err, domain.ErrActorNotFound) {
			return nil, nil, nil, fmt.Errorf("case %s owner %s: %w", caseID, c.OwnerEmail, domain.ErrInvalidTransition)
		}
		return nil, nil, nil, err
	}
	actor, err := s.directory.GetByEmail(ctx, actorEmail)
	if err != nil {
		if errors.Is(err, domain.ErrActorNotFound) {
			return nil, nil, nil, fmt.Errorf("actor %s: %w", actorEmail, domain.ErrInvalidTransition)
		}
		return nil, nil, nil, err
	}
	return c, owner, actor, nil
}

// transition applies the ledger-append-then-state-update pair shared by all
// state changes. With a dedup key set, a replayed call is skipped silently.
func (s *CaseService) transition(ctx context.Context, input ports.TransitionInput, kind domain.ActionKind, next domain.CaseState) (*domain.Case, error) {
	c, owner, actor, err := s.resolve(ctx, input.CaseID, input.ActorEmail)
	if err != nil {
		return nil, err
	}

	if input.DedupKey != "" && s.dedup != nil {
		isDup, err := s.dedup.IsDuplicate(ctx, c.ID, kind, input.DedupKey)
		if err != nil {
			s.logger.Warn().Err(err).Str("case_id", c.ID).Msg("dedup check failed, processing anyway")
		} else if isDup {
			metrics.AppendDedupTotal.WithLabelValues("hit").Inc()
			s.logger.Debug().Str("case_id", c.ID).Str("kind", string(kind)).Msg("duplicate transition skipped")
			return c, nil
		} else {
			metrics.AppendDedupTotal.WithLabelValues("miss").Inc()
		}
		if markErr := s.dedup.Mark(ctx, c.ID, kind, input.DedupKey); markErr != nil {
			s.logger.Warn().Err(markErr).Str("case_id", c.ID).Msg("failed to set dedup key")
		}
	}

	if _, err := s.append(ctx, c, owner, actor, kind, "", input.Notes, ""); err != nil {
		return nil, err
	}

	if err := s.cases.UpdateState(ctx, c.ID, next); err != nil {
		return nil, fmt.Errorf("transition %s: update state: %w", kind, err)
	}
	c.State = next

	s.logger.Info().
		Str("case_id", c.ID).
		Str("kind", string(kind)).
		Str("actor", actor.Email).
		Str("state", string(next)).
		Msg("case transition applied")

	return c, nil
}

// append validates and persists one ledger action, then hands its serialized
// form to the audit exporter. Validation failures write nothing.
func (s *CaseService) append(ctx context.Context, c *domain.Case, owner, actor *domain.Actor, kind domain.ActionKind, purpose domain.Purpose, notes, documentRef string) (*domain.Action, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("append action: %q: %w", kind, domain.ErrInvalidAction)
	}
	if purpose != "" && !purpose.Valid() {
		return nil, fmt.Errorf("append action: %q: %w", purpose, domain.ErrInvalidPurpose)
	}

	a := &domain.Action{
		Kind:        kind,
		CaseID:      c.ID,
		ActorEmail:  actor.Email,
		Purpose:     purpose,
		Notes:       notes,
		DocumentRef: documentRef,
		Timestamp:   time.Now().UTC(),
	}
	if err := s.actions.Append(ctx, a); err != nil {
		return nil, fmt.Errorf("append action: %w", err)
	}
	metrics.ActionsAppendedTotal.WithLabelValues(string(kind)).Inc()

	if s.exporter != nil {
		s.exporter.Enqueue(c.ID, view.NewAction(a, c, owner, actor))
	}
	return a, nil
}

// reviewerEmail returns the actor email on the most recent Review action, or
// empty when the case has never been assigned.
func (s *CaseService) reviewerEmail(ctx context.Context, c *domain.Case) (string, error) {
	reviews, err := s.actions.QueryByCase(ctx, c.ID, domain.ActionReview)
	if err != nil {
		return "", err
	}
	if len(reviews) == 0 {
		return "", nil
	}
	return reviews[0].ActorEmail, nil
}
