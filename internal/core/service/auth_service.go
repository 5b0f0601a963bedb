package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/permitology/permit-system/internal/core/domain"
	"github.com/permitology/permit-system/internal/core/ports"
)

// AuthService implements registration and login. Registration is the
// onboarding step: it ensures the actor exists in the directory and assigns
// its role exactly once (idempotent on repeat).
type AuthService struct {
	repo      ports.AuthRepository
	directory ports.DirectoryService
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(repo ports.AuthRepository, directory ports.DirectoryService, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{repo: repo, directory: directory, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

func (s *AuthService) Register(ctx context.Context, email, password string, role domain.Role) (*domain.Actor, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	cred := &domain.Credential{
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, cred); err != nil {
		return nil, err
	}

	if _, err := s.directory.Ensure(ctx, email); err != nil {
		return nil, err
	}
	if err := s.directory.AssignRole(ctx, email, role); err != nil {
		return nil, err
	}

	return s.directory.GetByEmail(ctx, email)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.Actor, error) {
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	cred, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrActorNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	actor, err := s.directory.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}

	token, err := s.generateToken(actor)
	if err != nil {
		return "", nil, err
	}

	return token, actor, nil
}

func (s *AuthService) generateToken(actor *domain.Actor) (string, error) {
	claims := jwt.MapClaims{
		"email": actor.Email,
		"role":  string(actor.Role),
		"exp":   time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
