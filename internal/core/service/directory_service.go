package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/permitology/permit-system/internal/core/domain"
	"github.com/permitology/permit-system/internal/core/ports"
)

// DirectoryService implements the identity directory over an ActorRepository.
type DirectoryService struct {
	repo   ports.ActorRepository
	logger zerolog.Logger
}

func NewDirectoryService(repo ports.ActorRepository, logger zerolog.Logger) *DirectoryService {
	return &DirectoryService{repo: repo, logger: logger}
}

// GetByEmail returns the actor for the given email.
func (s *DirectoryService) GetByEmail(ctx context.Context, email string) (*domain.Actor, error) {
	return s.repo.FindByEmail(ctx, email)
}

// Ensure returns the existing actor or creates one with an unset role. The
// unique index on email resolves the create race: a losing insert re-reads the
// winner's row, so concurrent calls with the same email never duplicate.
func (s *DirectoryService) Ensure(ctx context.Context, email string) (*domain.Actor, error) {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrActorNotFound) {
		return nil, fmt.Errorf("ensure actor: %w", err)
	}

	actor := &domain.Actor{
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, actor); err != nil {
		if errors.Is(err, domain.ErrActorExists) {
			return s.repo.FindByEmail(ctx, email)
		}
		return nil, fmt.Errorf("ensure actor: %w", err)
	}

	s.logger.Info().Str("email", email).Msg("actor created")
	return actor, nil
}

// AssignRole sets the actor's role. Re-assignment is an update, not a create,
// so repeated onboarding of the same actor is harmless.
func (s *DirectoryService) AssignRole(ctx context.Context, email string, role domain.Role) error {
	if !role.Valid() {
		return fmt.Errorf("assign role %q: %w", role, domain.ErrInvalidRole)
	}
	if _, err := s.repo.FindByEmail(ctx, email); err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	if err := s.repo.UpdateRole(ctx, email, role); err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	s.logger.Info().Str("email", email).Str("role", string(role)).Msg("role assigned")
	return nil
}
