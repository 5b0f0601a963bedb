package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/permitology/permit-system/internal/core/domain"
	"github.com/permitology/permit-system/internal/core/ports"
)

// stubCaseService implements ports.CaseService with overridable functions.
// Unset functions fail the test if called.
type stubCaseService struct {
	t *testing.T

	createFn         func(ctx context.Context, input ports.CreateCaseInput) (*domain.Case, error)
	transitionFn     func(kind domain.ActionKind, input ports.TransitionInput) (*domain.Case, error)
	getFn            func(ctx context.Context, caseID string) (*domain.Case, error)
	blockersFn       func(ctx context.Context, caseID string) ([]string, error)
	reviewerFn       func(ctx context.Context, caseID string) (*domain.Actor, error)
	actionsFn        func(ctx context.Context, caseID string, kind domain.ActionKind) ([]*domain.Action, error)
	reviewedByFn     func(ctx context.Context, email string) (*ports.ReviewedPartition, error)
	listByOwnerFn    func(ctx context.Context, ownerEmail string) ([]*domain.Case, error)
	listByStateFn    func(state domain.CaseState) ([]*domain.Case, error)
	lastModifiedFn   func(ctx context.Context, caseID string) (time.Duration, error)
}

func (s *stubCaseService) fail(name string) {
	s.t.Helper()
	s.t.Fatalf("%s should not be called", name)
}

func (s *stubCaseService) Create(ctx context.Context, input ports.CreateCaseInput) (*domain.Case, error) {
	if s.createFn == nil {
		s.fail("Create")
	}
	return s.createFn(ctx, input)
}

func (s *stubCaseService) transition(kind domain.ActionKind, input ports.TransitionInput) (*domain.Case, error) {
	if s.transitionFn == nil {
		s.fail("transition " + string(kind))
	}
	return s.transitionFn(kind, input)
}

func (s *stubCaseService) Submit(_ context.Context, input ports.TransitionInput) (*domain.Case, error) {
	return s.transition(domain.ActionSubmit, input)
}

func (s *stubCaseService) Review(_ context.Context, input ports.TransitionInput) (*domain.Case, error) {
	return s.transition(domain.ActionReview, input)
}

func (s *stubCaseService) Comment(_ context.Context, input ports.TransitionInput) (*domain.Case, error) {
	return s.transition(domain.ActionComment, input)
}

func (s *stubCaseService) Approve(_ context.Context, input ports.TransitionInput) (*domain.Case, error) {
	return s.transition(domain.ActionApprove, input)
}

func (s *stubCaseService) Deny(_ context.Context, input ports.TransitionInput) (*domain.Case, error) {
	return s.transition(domain.ActionDeny, input)
}

func (s *stubCaseService) Get(ctx context.Context, caseID string) (*domain.Case, error) {
	if s.getFn == nil {
		s.fail("Get")
	}
	return s.getFn(ctx, caseID)
}

func (s *stubCaseService) ListByOwner(ctx context.Context, ownerEmail string) ([]*domain.Case, error) {
	if s.listByOwnerFn == nil {
		s.fail("ListByOwner")
	}
	return s.listByOwnerFn(ctx, ownerEmail)
}

func (s *stubCaseService) ListSubmitted(context.Context) ([]*domain.Case, error) {
	if s.listByStateFn == nil {
		s.fail("ListSubmitted")
	}
	return s.listByStateFn(domain.StateSubmitted)
}

func (s *stubCaseService) ListUnderReview(context.Context) ([]*domain.Case, error) {
	if s.listByStateFn == nil {
		s.fail("ListUnderReview")
	}
	return s.listByStateFn(domain.StateUnderReview)
}

func (s *stubCaseService) Actions(ctx context.Context, caseID string, kind domain.ActionKind) ([]*domain.Action, error) {
	if s.actionsFn == nil {
		s.fail("Actions")
	}
	return s.actionsFn(ctx, caseID, kind)
}

func (s *stubCaseService) Reviewer(ctx context.Context, caseID string) (*domain.Actor, error) {
	if s.reviewerFn == nil {
		s.fail("Reviewer")
	}
	return s.reviewerFn(ctx, caseID)
}

func (s *stubCaseService) LastModified(ctx context.Context, caseID string) (time.Duration, error) {
	if s.lastModifiedFn == nil {
		s.fail("LastModified")
	}
	return s.lastModifiedFn(ctx, caseID)
}

func (s *stubCaseService) SubmitBlockers(ctx context.Context, caseID string) ([]string, error) {
	if s.blockersFn == nil {
		s.fail("SubmitBlockers")
	}
	return s.blockersFn(ctx, caseID)
}

func (s *stubCaseService) ReviewedBy(ctx context.Context, email string) (*ports.ReviewedPartition, error) {
	if s.reviewedByFn == nil {
		s.fail("ReviewedBy")
	}
	return s.reviewedByFn(ctx, email)
}

func authedContext(t *testing.T, method, target, body, email, role string) (echo.Context, *httptest.ResponseRecorder) {
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
	c := e.NewContext(req, rec)
	c.Set("email", email)
	c.Set("role", role)
	return c, rec
}

func sampleCase(state domain.CaseState) *domain.Case {
	return &domain.Case{
		ID:         "case-1",
		Address:    "1 Main St",
		OwnerEmail: "u1@example.com",
		State:      state,
		CreatedAt:  time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestCaseHandler_Create(t *testing.T) {
	stub := &stubCaseService{
		t: t,
		createFn: func(_ context.Context, input ports.CreateCaseInput) (*domain.Case, error) {
			if input.OwnerEmail != "u1@example.com" || input.Address != "1 Main St" {
				t.Fatalf("unexpected input %+v", input)
			}
			return sampleCase(domain.StateIncomplete), nil
		},
	}
	h := NewCaseHandler(stub)

	c, rec := authedContext(t, http.MethodPost, "/v1/cases",
		`{"address":"1 Main St"}`, "u1@example.com", "applicant")

	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["state"] != "incomplete" || resp["visible_state"] != "Incomplete" {
		t.Fatalf("unexpected state fields: %+v", resp)
	}
	if resp["applicant_can_edit"] != true {
		t.Fatalf("incomplete case should be editable: %+v", resp)
	}
}

func TestCaseHandler_Create_MissingClaims(t *testing.T) {
	h := NewCaseHandler(&stubCaseService{t: t})

	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(http.MethodPost, "/v1/cases", strings.NewReader(`{"address":"1 Main St"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Create(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestCaseHandler_Submit_BlockedCase(t *testing.T) {
	stub := &stubCaseService{
		t: t,
		blockersFn: func(_ context.Context, caseID string) ([]string, error) {
			if caseID != "case-1" {
				t.Fatalf("case id = %s", caseID)
			}
			return []string{"Missing Site Diagram"}, nil
		},
	}
	h := NewCaseHandler(stub)

	c, rec := authedContext(t, http.MethodPost, "/v1/cases/case-1/submit", "", "u1@example.com", "applicant")
	c.SetParamNames("id")
	c.SetParamValues("case-1")

	if err := h.Submit(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	var resp blockersResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Blockers) != 1 || resp.Blockers[0] != "Missing Site Diagram" {
		t.Fatalf("unexpected blockers: %+v", resp)
	}
	if resp.Submittable {
		t.Fatal("blocked case must not be submittable")
	}
}

func TestCaseHandler_Submit_EligibleCase(t *testing.T) {
	stub := &stubCaseService{
		t: t,
		blockersFn: func(context.Context, string) ([]string, error) {
			return []string{}, nil
		},
		transitionFn: func(kind domain.ActionKind, input ports.TransitionInput) (*domain.Case, error) {
			if kind != domain.ActionSubmit {
				t.Fatalf("kind = %s", kind)
			}
			if input.ActorEmail != "u1@example.com" || input.Notes != "ready" {
				t.Fatalf("unexpected input %+v", input)
			}
			if input.DedupKey != "req-9" {
				t.Fatalf("dedup key = %q", input.DedupKey)
			}
			return sampleCase(domain.StateSubmitted), nil
		},
	}
	h := NewCaseHandler(stub)

	c, rec := authedContext(t, http.MethodPost, "/v1/cases/case-1/submit",
		`{"notes":"ready"}`, "u1@example.com", "applicant")
	c.Request().Header.Set("Dedup-Key", "req-9")
	c.SetParamNames("id")
	c.SetParamValues("case-1")

	if err := h.Submit(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["state"] != "submitted" || resp["visible_state"] != "Submitted For Review" {
		t.Fatalf("unexpected state fields: %+v", resp)
	}
}

func TestCaseHandler_Review_MissingCase(t *testing.T) {
	stub := &stubCaseService{
		t: t,
		transitionFn: func(domain.ActionKind, ports.TransitionInput) (*domain.Case, error) {
			return nil, domain.ErrCaseNotFound
		},
	}
	h := NewCaseHandler(stub)

	c, _ := authedContext(t, http.MethodPost, "/v1/cases/nope/review", "", "a2@example.com", "approver")
	c.SetParamNames("id")
	c.SetParamValues("nope")

	err := h.Review(c)
	if !errors.Is(err, domain.ErrCaseNotFound) {
		t.Fatalf("expected ErrCaseNotFound, got %v", err)
	}
}

func TestCaseHandler_List_Scopes(t *testing.T) {
	stub := &stubCaseService{
		t: t,
		listByOwnerFn: func(_ context.Context, ownerEmail string) ([]*domain.Case, error) {
			if ownerEmail != "u1@example.com" {
				t.Fatalf("owner = %s", ownerEmail)
			}
			return []*domain.Case{sampleCase(domain.StateIncomplete)}, nil
		},
		listByStateFn: func(state domain.CaseState) ([]*domain.Case, error) {
			return []*domain.Case{sampleCase(state)}, nil
		},
	}
	h := NewCaseHandler(stub)

	for _, scope := range []string{"", "mine", "submitted", "under_review"} {
		c, rec := authedContext(t, http.MethodGet, "/v1/cases?scope="+scope, "", "u1@example.com", "applicant")
		if err := h.List(c); err != nil {
			t.Fatalf("scope %q: %v", scope, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("scope %q: status %d", scope, rec.Code)
		}
	}

	c, _ := authedContext(t, http.MethodGet, "/v1/cases?scope=archived", "", "u1@example.com", "applicant")
	err := h.List(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown scope, got %v", err)
	}
}

func TestCaseHandler_Reviewer_OmittedWhenAbsent(t *testing.T) {
	stub := &stubCaseService{
		t: t,
		reviewerFn: func(context.Context, string) (*domain.Actor, error) {
			return nil, nil
		},
	}
	h := NewCaseHandler(stub)

	c, rec := authedContext(t, http.MethodGet, "/v1/cases/case-1/reviewer", "", "u1@example.com", "applicant")
	c.SetParamNames("id")
	c.SetParamValues("case-1")

	if err := h.Reviewer(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if strings.Contains(rec.Body.String(), "reviewer") {
		t.Fatalf("absent reviewer should be omitted, got %s", rec.Body.String())
	}
}

func TestCaseHandler_ReviewQueue(t *testing.T) {
	stub := &stubCaseService{
		t: t,
		reviewedByFn: func(_ context.Context, email string) (*ports.ReviewedPartition, error) {
			if email != "a2@example.com" {
				t.Fatalf("email = %s", email)
			}
			return &ports.ReviewedPartition{
				Mine:   []*domain.Case{sampleCase(domain.StateUnderReview)},
				Others: []*domain.Case{},
			}, nil
		},
	}
	h := NewCaseHandler(stub)

	c, rec := authedContext(t, http.MethodGet, "/v1/cases/review-queue", "", "a2@example.com", "approver")

	if err := h.ReviewQueue(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp reviewQueueResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Mine) != 1 || len(resp.Others) != 0 {
		t.Fatalf("unexpected partition: %+v", resp)
	}
}

func TestCaseHandler_LastModified(t *testing.T) {
	stub := &stubCaseService{
		t: t,
		lastModifiedFn: func(context.Context, string) (time.Duration, error) {
			return 90 * time.Second, nil
		},
	}
	h := NewCaseHandler(stub)

	c, rec := authedContext(t, http.MethodGet, "/v1/cases/case-1/last-modified", "", "u1@example.com", "applicant")
	c.SetParamNames("id")
	c.SetParamValues("case-1")

	if err := h.LastModified(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp lastModifiedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.LastModifiedSeconds != 90 {
		t.Fatalf("last modified = %v", resp.LastModifiedSeconds)
	}
}
