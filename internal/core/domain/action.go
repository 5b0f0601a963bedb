package domain

import (
	"errors"
	"net/url"
	"time"
)

// ActionKind is the kind of action that moves a case through its lifecycle.
type ActionKind string

const (
	ActionCreate   ActionKind = "Create"
	ActionUpdate   ActionKind = "Update"
	ActionSubmit   ActionKind = "Submit"
	ActionReview   ActionKind = "Review"
	ActionReassign ActionKind = "Reassign"
	ActionComment  ActionKind = "Comment"
	ActionApprove  ActionKind = "Approve"
	ActionDeny     ActionKind = "Deny"
)

var actionKinds = map[ActionKind]struct{}{
	ActionCreate: {}, ActionUpdate: {}, ActionSubmit: {}, ActionReview: {},
	ActionReassign: {}, ActionComment: {}, ActionApprove: {}, ActionDeny: {},
}

// Valid reports whether k is one of the fixed action kinds.
func (k ActionKind) Valid() bool {
	_, ok := actionKinds[k]
	return ok
}

// Purpose is a category of required supporting document.
type Purpose string

const (
	PurposeSiteDiagram       Purpose = "Site Diagram"
	PurposeElectricalDiagram Purpose = "Electrical Diagram"
	PurposeDiagramNotes      Purpose = "Diagram Notes"
)

// Purposes lists, in display order, every document an applicant must upload
// before a case can be submitted for review.
var Purposes = []Purpose{
	PurposeSiteDiagram,
	PurposeElectricalDiagram,
	PurposeDiagramNotes,
}

// Valid reports whether p is one of the fixed document purposes.
func (p Purpose) Valid() bool {
	for _, known := range Purposes {
		if p == known {
			return true
		}
	}
	return false
}

var ErrActionNotFound = errors.New("action not found")
var ErrInvalidAction = errors.New("invalid action kind")
var ErrInvalidPurpose = errors.New("invalid document purpose")

// Action is one immutable ledger entry: the permanent record of one thing that
// happened to a case. Actions are only ever appended, never mutated or deleted.
type Action struct {
	ID          string     `json:"id" bson:"_id,omitempty"`
	Kind        ActionKind `json:"kind" bson:"kind"`
	CaseID      string     `json:"case_id" bson:"case_id"`
	ActorEmail  string     `json:"actor_email" bson:"actor_email"`
	Purpose     Purpose    `json:"purpose,omitempty" bson:"purpose,omitempty"`
	Notes       string     `json:"notes,omitempty" bson:"notes,omitempty"`
	DocumentRef string     `json:"document_ref,omitempty" bson:"document_ref,omitempty"`
	Timestamp   time.Time  `json:"timestamp" bson:"timestamp"`
}

// DownloadURL returns the path for retrieving this action's document from the
// blob store, or the empty string when the action carries no document.
func (a *Action) DownloadURL(filename string) string {
	if a.DocumentRef == "" {
		return ""
	}
	return "/documents/serve/" + url.PathEscape(a.DocumentRef) + "/" + url.PathEscape(filename)
}
