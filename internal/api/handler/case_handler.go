package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/permitology/permit-system/internal/api/metrics"
	"github.com/permitology/permit-system/internal/core/domain"
	"github.com/permitology/permit-system/internal/core/ports"
)

// CaseHandler handles HTTP requests for case operations.
type CaseHandler struct {
	service ports.CaseService
}

func NewCaseHandler(service ports.CaseService) *CaseHandler {
	return &CaseHandler{service: service}
}

// Create handles POST /v1/cases.
//
// @Summary      Open a new permit case
// @Tags         cases
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createCaseRequest  true  "Case details"
// @Success      201   {object}  caseResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /v1/cases [post]
func (h *CaseHandler) Create(c echo.Context) error {
	email, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req createCaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	created, err := h.service.Create(c.Request().Context(), ports.CreateCaseInput{
		OwnerEmail: email,
		Address:    req.Address,
	})
	if err != nil {
		return err
	}

	metrics.CasesCreatedTotal.Inc()
	return c.JSON(http.StatusCreated, toCaseResponse(created))
}

// Get handles GET /v1/cases/:id.
//
// @Summary      Get a case by ID
// @Tags         cases
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Case ID"
// @Success      200  {object}  caseResponse
// @Failure      404  {object}  map[string]string
// @Router       /v1/cases/{id} [get]
func (h *CaseHandler) Get(c echo.Context) error {
	found, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCaseResponse(found))
}

// List handles GET /v1/cases. The scope query parameter selects the listing:
// "mine" (default, cases owned by the caller), "submitted", or "under_review".
//
// @Summary      List cases
// @Tags         cases
// @Produce      json
// @Security     BearerAuth
// @Param        scope  query     string  false  "mine | submitted | under_review"
// @Success      200    {array}   caseResponse
// @Router       /v1/cases [get]
func (h *CaseHandler) List(c echo.Context) error {
	email, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	var cases []*domain.Case
	switch c.QueryParam("scope") {
	case "submitted":
		cases, err = h.service.ListSubmitted(ctx)
	case "under_review":
		cases, err = h.service.ListUnderReview(ctx)
	case "", "mine":
		cases, err = h.service.ListByOwner(ctx, email)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown scope")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCaseResponses(cases))
}

// ReviewQueue handles GET /v1/cases/review-queue: the under-review cases split
// into the caller's and everyone else's.
//
// @Summary      Partition under-review cases by reviewer
// @Tags         cases
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  reviewQueueResponse
// @Router       /v1/cases/review-queue [get]
func (h *CaseHandler) ReviewQueue(c echo.Context) error {
	email, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	part, err := h.service.ReviewedBy(c.Request().Context(), email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reviewQueueResponse{
		Mine:   toCaseResponses(part.Mine),
		Others: toCaseResponses(part.Others),
	})
}

// Actions handles GET /v1/cases/:id/actions — the case's ledger, most recent
// first, optionally filtered with the kind query parameter.
//
// @Summary      Get a case's action ledger
// @Tags         cases
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true   "Case ID"
// @Param        kind  query     string  false  "Action kind filter"
// @Success      200   {array}   actionResponse
// @Failure      404   {object}  map[string]string
// @Router       /v1/cases/{id}/actions [get]
func (h *CaseHandler) Actions(c echo.Context) error {
	actions, err := h.service.Actions(c.Request().Context(), c.Param("id"), domain.ActionKind(c.QueryParam("kind")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toActionResponses(actions))
}

// Blockers handles GET /v1/cases/:id/blockers.
//
// @Summary      List submit blockers for a case
// @Tags         cases
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Case ID"
// @Success      200  {object}  blockersResponse
// @Failure      404  {object}  map[string]string
// @Router       /v1/cases/{id}/blockers [get]
func (h *CaseHandler) Blockers(c echo.Context) error {
	blockers, err := h.service.SubmitBlockers(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, blockersResponse{
		Blockers:    blockers,
		Submittable: len(blockers) == 0,
	})
}

// Reviewer handles GET /v1/cases/:id/reviewer. The reviewer field is omitted
// when the case is not under review.
//
// @Summary      Get a case's current reviewer
// @Tags         cases
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Case ID"
// @Success      200  {object}  reviewerResponse
// @Failure      404  {object}  map[string]string
// @Router       /v1/cases/{id}/reviewer [get]
func (h *CaseHandler) Reviewer(c echo.Context) error {
	reviewer, err := h.service.Reviewer(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reviewerResponse{Reviewer: toActorResponse(reviewer)})
}

// LastModified handles GET /v1/cases/:id/last-modified.
//
// @Summary      Get elapsed time since a case's latest action
// @Tags         cases
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Case ID"
// @Success      200  {object}  lastModifiedResponse
// @Failure      404  {object}  map[string]string
// @Router       /v1/cases/{id}/last-modified [get]
func (h *CaseHandler) LastModified(c echo.Context) error {
	elapsed, err := h.service.LastModified(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lastModifiedResponse{LastModifiedSeconds: elapsed.Seconds()})
}

// Submit handles POST /v1/cases/:id/submit. Eligibility is checked here, at
// the boundary: a case with outstanding blockers is rejected before the core
// transition runs.
//
// @Summary      Submit a case for review
// @Tags         transitions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id         path      string             true   "Case ID"
// @Param        Dedup-Key  header    string             false  "Deduplication key for safe retries"
// @Param        body       body      transitionRequest  false  "Submission notes"
// @Success      200        {object}  caseResponse
// @Failure      404        {object}  map[string]string
// @Failure      422        {object}  blockersResponse
// @Router       /v1/cases/{id}/submit [post]
func (h *CaseHandler) Submit(c echo.Context) error {
	input, err := h.transitionInput(c)
	if err != nil {
		return err
	}

	blockers, err := h.service.SubmitBlockers(c.Request().Context(), input.CaseID)
	if err != nil {
		return err
	}
	if len(blockers) > 0 {
		metrics.TransitionsRejectedTotal.WithLabelValues("submit_blocked").Inc()
		return c.JSON(http.StatusUnprocessableEntity, blockersResponse{Blockers: blockers})
	}

	return h.applyTransition(c, domain.ActionSubmit, input, h.service.Submit)
}

// Review handles POST /v1/cases/:id/review — assigns the caller as reviewer.
//
// @Summary      Assign the caller as the case's reviewer
// @Tags         transitions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id         path      string  true   "Case ID"
// @Param        Dedup-Key  header    string  false  "Deduplication key for safe retries"
// @Success      200        {object}  caseResponse
// @Failure      404        {object}  map[string]string
// @Router       /v1/cases/{id}/review [post]
func (h *CaseHandler) Review(c echo.Context) error {
	input, err := h.transitionInput(c)
	if err != nil {
		return err
	}
	return h.applyTransition(c, domain.ActionReview, input, h.service.Review)
}

// Comment handles POST /v1/cases/:id/comment — returns the case for rework.
//
// @Summary      Return a case to the applicant with comments
// @Tags         transitions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id         path      string             true   "Case ID"
// @Param        Dedup-Key  header    string             false  "Deduplication key for safe retries"
// @Param        body       body      transitionRequest  false  "Review comments"
// @Success      200        {object}  caseResponse
// @Failure      404        {object}  map[string]string
// @Router       /v1/cases/{id}/comment [post]
func (h *CaseHandler) Comment(c echo.Context) error {
	input, err := h.transitionInput(c)
	if err != nil {
		return err
	}
	return h.applyTransition(c, domain.ActionComment, input, h.service.Comment)
}

// Approve handles POST /v1/cases/:id/approve.
//
// @Summary      Approve a case
// @Tags         transitions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id         path      string             true   "Case ID"
// @Param        Dedup-Key  header    string             false  "Deduplication key for safe retries"
// @Param        body       body      transitionRequest  false  "Approval notes"
// @Success      200        {object}  caseResponse
// @Failure      404        {object}  map[string]string
// @Router       /v1/cases/{id}/approve [post]
func (h *CaseHandler) Approve(c echo.Context) error {
	input, err := h.transitionInput(c)
	if err != nil {
		return err
	}
	return h.applyTransition(c, domain.ActionApprove, input, h.service.Approve)
}

// Deny handles POST /v1/cases/:id/deny.
//
// @Summary      Deny a case
// @Tags         transitions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id         path      string             true   "Case ID"
// @Param        Dedup-Key  header    string             false  "Deduplication key for safe retries"
// @Param        body       body      transitionRequest  false  "Denial notes"
// @Success      200        {object}  caseResponse
// @Failure      404        {object}  map[string]string
// @Router       /v1/cases/{id}/deny [post]
func (h *CaseHandler) Deny(c echo.Context) error {
	input, err := h.transitionInput(c)
	if err != nil {
		return err
	}
	return h.applyTransition(c, domain.ActionDeny, input, h.service.Deny)
}

// transitionInput assembles the common transition parameters from the request:
// path, claims, optional notes body, and the optional Dedup-Key header.
func (h *CaseHandler) transitionInput(c echo.Context) (ports.TransitionInput, error) {
	email, _, err := ctxClaims(c)
	if err != nil {
		return ports.TransitionInput{}, err
	}

	var req transitionRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return ports.TransitionInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
		}
	}

	return ports.TransitionInput{
		CaseID:     c.Param("id"),
		ActorEmail: email,
		Notes:      req.Notes,
		DedupKey:   c.Request().Header.Get("Dedup-Key"),
	}, nil
}

// applyTransition runs one transition, records its metrics, and renders the
// updated case.
func (h *CaseHandler) applyTransition(
	c echo.Context,
	kind domain.ActionKind,
	input ports.TransitionInput,
	fn func(ctx context.Context, input ports.TransitionInput) (*domain.Case, error),
) error {
	start := time.Now()
	updated, err := fn(c.Request().Context(), input)
	if err != nil {
		metrics.TransitionsRejectedTotal.WithLabelValues(rejectReason(err)).Inc()
		return err
	}

	metrics.TransitionDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	return c.JSON(http.StatusOK, toCaseResponse(updated))
}

// rejectReason maps a transition error to its metric label.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrCaseNotFound):
		return "case_not_found"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrInvalidAction), errors.Is(err, domain.ErrInvalidPurpose):
		return "invalid_enum"
	default:
		return "internal"
	}
}
