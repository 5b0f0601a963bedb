package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/permitology/permit-system/internal/core/domain"
	"github.com/permitology/permit-system/internal/core/ports"
)

// DocumentService implements the attachment view: a document is the latest
// Update action on the case that carries the given purpose. Uploads go through
// the same append path as every other ledger write.
type DocumentService struct {
	caseSvc *CaseService
	actions ports.ActionRepository
	logger  zerolog.Logger
}

func NewDocumentService(caseSvc *CaseService, actions ports.ActionRepository, logger zerolog.Logger) *DocumentService {
	return &DocumentService{caseSvc: caseSvc, actions: actions, logger: logger}
}

// Upload appends an Update action carrying the purpose, opaque document
// reference, and notes. The case's denormalized state does not change; only
// transitions move it.
func (s *DocumentService) Upload(ctx context.Context, input ports.UploadDocumentInput) (*domain.Action, error) {
	if !input.Purpose.Valid() {
		return nil, fmt.Errorf("upload document: %q: %w", input.Purpose, domain.ErrInvalidPurpose)
	}

	c, owner, actor, err := s.caseSvc.resolve(ctx, input.CaseID, input.ActorEmail)
	if err != nil {
		return nil, err
	}

	a, err := s.caseSvc.append(ctx, c, owner, actor, domain.ActionUpdate, input.Purpose, input.Notes, input.DocumentRef)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("case_id", c.ID).
		Str("purpose", string(input.Purpose)).
		Str("actor", actor.Email).
		Msg("document uploaded")

	return a, nil
}

// GetDocument returns the most recent Update action for the case carrying the
// purpose. A case may accumulate several uploads per purpose across rework
// cycles; only the latest counts.
func (s *DocumentService) GetDocument(ctx context.Context, caseID string, purpose domain.Purpose) (*domain.Action, error) {
	if !purpose.Valid() {
		return nil, fmt.Errorf("get document: %q: %w", purpose, domain.ErrInvalidPurpose)
	}

	updates, err := s.actions.QueryByCase(ctx, caseID, domain.ActionUpdate)
	if err != nil {
		return nil, err
	}
	for _, a := range updates {
		if a.Purpose == purpose {
			return a, nil
		}
	}
	return nil, domain.ErrActionNotFound
}
