package handler

import (
	"time"

	"github.com/permitology/permit-system/internal/core/domain"
)

// --- Request types ---

type createCaseRequest struct {
	Address string `json:"address" validate:"required"`
}

type transitionRequest struct {
	Notes string `json:"notes"`
}

type uploadDocumentRequest struct {
	Purpose     string `json:"purpose"      validate:"required"`
	DocumentRef string `json:"document_ref" validate:"required"`
	Notes       string `json:"notes"`
}

// --- Response types ---

type caseResponse struct {
	ID               string `json:"id"`
	Address          string `json:"address"`
	OwnerEmail       string `json:"owner_email"`
	State            string `json:"state"`
	VisibleState     string `json:"visible_state"`
	CreatedAt        string `json:"created_at"`
	ApplicantCanEdit bool   `json:"applicant_can_edit"`
}

type actionResponse struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	ActorEmail  string `json:"actor_email"`
	Purpose     string `json:"purpose,omitempty"`
	Notes       string `json:"notes,omitempty"`
	DocumentRef string `json:"document_ref,omitempty"`
	Timestamp   string `json:"timestamp"`
}

// documentResponse is an actionResponse plus the blob retrieval path.
type documentResponse struct {
	actionResponse
	DownloadURL string `json:"download_url,omitempty"`
}

type blockersResponse struct {
	Blockers    []string `json:"blockers"`
	Submittable bool     `json:"submittable"`
}

type reviewerResponse struct {
	Reviewer *actorResponse `json:"reviewer,omitempty"`
}

type actorResponse struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

type reviewQueueResponse struct {
	Mine   []caseResponse `json:"mine"`
	Others []caseResponse `json:"others"`
}

type lastModifiedResponse struct {
	LastModifiedSeconds float64 `json:"last_modified_seconds"`
}

// --- Mapping helpers ---

func toCaseResponse(c *domain.Case) caseResponse {
	return caseResponse{
		ID:               c.ID,
		Address:          c.Address,
		OwnerEmail:       c.OwnerEmail,
		State:            string(c.State),
		VisibleState:     c.VisibleState(),
		CreatedAt:        c.CreatedAt.UTC().Format(time.RFC3339),
		ApplicantCanEdit: c.ApplicantCanEdit(),
	}
}

func toCaseResponses(cases []*domain.Case) []caseResponse {
	out := make([]caseResponse, 0, len(cases))
	for _, c := range cases {
		out = append(out, toCaseResponse(c))
	}
	return out
}

func toActionResponse(a *domain.Action) actionResponse {
	return actionResponse{
		ID:          a.ID,
		Kind:        string(a.Kind),
		ActorEmail:  a.ActorEmail,
		Purpose:     string(a.Purpose),
		Notes:       a.Notes,
		DocumentRef: a.DocumentRef,
		Timestamp:   a.Timestamp.UTC().Format(time.RFC3339),
	}
}

func toActionResponses(actions []*domain.Action) []actionResponse {
	out := make([]actionResponse, 0, len(actions))
	for _, a := range actions {
		out = append(out, toActionResponse(a))
	}
	return out
}

func toActorResponse(a *domain.Actor) *actorResponse {
	if a == nil {
		return nil
	}
	return &actorResponse{Email: a.Email, Role: string(a.Role)}
}
