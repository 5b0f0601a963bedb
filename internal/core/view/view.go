// Package view produces the external-facing representation of core entities,
// used for audit export and structured logging. Views are deterministic for a
// given entity state; optional fields are omitted entirely when absent.
package view

import (
	"time"

	"github.com/permitology/permit-system/internal/core/domain"
)

// ActorView is the exported shape of an actor.
type ActorView struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// CaseView is the exported shape of a case.
type CaseView struct {
	Address string    `json:"address"`
	Owner   ActorView `json:"owner"`
	State   string    `json:"state"`
}

// ActionView is the exported shape of a ledger action. Timestamp is encoded
// explicitly as RFC 3339 so the export format never depends on the consumer's
// time handling.
type ActionView struct {
	Kind        string    `json:"kind"`
	Case        CaseView  `json:"case"`
	Actor       ActorView `json:"actor"`
	Purpose     string    `json:"purpose,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	DocumentRef string    `json:"document_ref,omitempty"`
	Timestamp   string    `json:"timestamp"`
}

// NewActor maps an actor to its exported form.
func NewActor(a *domain.Actor) ActorView {
	return ActorView{Email: a.Email, Role: string(a.Role)}
}

// NewCase maps a case and its resolved owner to the exported form.
func NewCase(c *domain.Case, owner *domain.Actor) CaseView {
	return CaseView{
		Address: c.Address,
		Owner:   NewActor(owner),
		State:   c.State.SortKey(),
	}
}

// NewAction maps a ledger action with its resolved case, owner, and actor to
// the exported form.
func NewAction(a *domain.Action, c *domain.Case, owner, actor *domain.Actor) ActionView {
	return ActionView{
		Kind:        string(a.Kind),
		Case:        NewCase(c, owner),
		Actor:       NewActor(actor),
		Purpose:     string(a.Purpose),
		Notes:       a.Notes,
		DocumentRef: a.DocumentRef,
		Timestamp:   a.Timestamp.UTC().Format(time.RFC3339),
	}
}
