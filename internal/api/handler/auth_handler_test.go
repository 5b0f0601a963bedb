package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/permitology/permit-system/internal/core/domain"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, email, password string, role domain.Role) (*domain.Actor, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.Actor, error)
}

func (s *stubAuthService) Register(ctx context.Context, email, password string, role domain.Role) (*domain.Actor, error) {
	return s.registerFn(ctx, email, password, role)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.Actor, error) {
	return s.loginFn(ctx, email, password)
}

func newTestContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(_ context.Context, email, password string, role domain.Role) (*domain.Actor, error) {
			if email != "u1@example.com" || role != domain.RoleApplicant {
				t.Fatalf("unexpected args: %s %s", email, role)
			}
			return &domain.Actor{Email: email, Role: role}, nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newTestContext(t, http.MethodPost, "/auth/register",
		`{"email":"u1@example.com","password":"hunter2pw","role":"applicant"}`)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["email"] != "u1@example.com" || resp["role"] != "applicant" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_Register_ActorExists(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(context.Context, string, string, domain.Role) (*domain.Actor, error) {
			return nil, domain.ErrActorExists
		},
	}
	h := NewAuthHandler(stub)

	c, _ := newTestContext(t, http.MethodPost, "/auth/register",
		`{"email":"u1@example.com","password":"hunter2pw","role":"applicant"}`)

	err := h.Register(c)
	if !errors.Is(err, domain.ErrActorExists) {
		t.Fatalf("expected ErrActorExists, got %v", err)
	}
}

func TestAuthHandler_Register_RejectsBadRole(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(context.Context, string, string, domain.Role) (*domain.Actor, error) {
			t.Fatal("should not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub)

	c, _ := newTestContext(t, http.MethodPost, "/auth/register",
		`{"email":"u1@example.com","password":"hunter2pw","role":"janitor"}`)

	err := h.Register(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", err)
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(context.Context, string, string, domain.Role) (*domain.Actor, error) {
			t.Fatal("should not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub)

	c, _ := newTestContext(t, http.MethodPost, "/auth/register", "not-json")

	err := h.Register(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(_ context.Context, email, password string) (string, *domain.Actor, error) {
			if email != "a2@example.com" || password != "hunter2pw" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return "token123", &domain.Actor{Email: email, Role: domain.RoleApprover}, nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newTestContext(t, http.MethodPost, "/auth/login",
		`{"email":"a2@example.com","password":"hunter2pw"}`)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "token123" {
		t.Fatalf("expected token, got %v", resp["token"])
	}
	actor, ok := resp["actor"].(map[string]any)
	if !ok || actor["email"] != "a2@example.com" || actor["role"] != "approver" {
		t.Fatalf("unexpected actor payload: %+v", resp)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (string, *domain.Actor, error) {
			return "", nil, domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(stub)

	c, _ := newTestContext(t, http.MethodPost, "/auth/login",
		`{"email":"a2@example.com","password":"bad-password"}`)

	err := h.Login(c)
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
