package domain

import (
	"errors"
	"fmt"
	"time"
)

// CaseState represents the lifecycle state of a permit case.
type CaseState string

const (
	StateIncomplete  CaseState = "incomplete"
	StateSubmitted   CaseState = "submitted"
	StateUnderReview CaseState = "under_review"
	StateNeedsWork   CaseState = "needs_work"
	StateApproved    CaseState = "approved"
	StateDenied      CaseState = "denied"
)

// stateInfo carries the rank used for ordering and the label shown to people.
// The rank is the comparison/sort key; the label is display-only.
type stateInfo struct {
	rank  int
	label string
}

var caseStates = map[CaseState]stateInfo{
	StateIncomplete:  {0, "Incomplete"},
	StateSubmitted:   {10, "Submitted For Review"},
	StateUnderReview: {20, "Review Under Way"},
	StateNeedsWork:   {30, "Needs Work"},
	StateApproved:    {40, "Approved"},
	StateDenied:      {50, "Rejected"},
}

var ErrInvalidTransition = errors.New("invalid case transition")
var ErrCaseNotFound = errors.New("case not found")
var ErrForbidden = errors.New("access forbidden")

// Valid reports whether s is one of the fixed lifecycle states.
func (s CaseState) Valid() bool {
	_, ok := caseStates[s]
	return ok
}

// Rank returns the numeric ordering key of the state. Unknown states rank last.
func (s CaseState) Rank() int {
	info, ok := caseStates[s]
	if !ok {
		return 99
	}
	return info.rank
}

// Label returns the display form of the state, without any sort prefix.
func (s CaseState) Label() string {
	return caseStates[s].label
}

// SortKey returns the lexicographically sortable form, e.g. "20 Review Under Way".
// The first three characters are the zero-padded rank plus a space.
func (s CaseState) SortKey() string {
	info := caseStates[s]
	return fmt.Sprintf("%02d %s", info.rank, info.label)
}

// Terminal reports whether the state ends the review branch.
func (s CaseState) Terminal() bool {
	return s == StateApproved || s == StateDenied
}

// applicantEditable is the set of states in which an applicant may still
// upload documents or notes.
var applicantEditable = map[CaseState]struct{}{
	StateIncomplete: {},
	StateSubmitted:  {},
	StateNeedsWork:  {},
}

// Case is the core aggregate: a project for which permit approval is requested.
// State is a denormalized projection of the action ledger; the ledger is
// authoritative for derived facts (reviewer, last modified, documents).
type Case struct {
	ID         string    `json:"id" bson:"_id,omitempty"`
	Address    string    `json:"address" bson:"address"`
	OwnerEmail string    `json:"owner_email" bson:"owner_email"`
	State      CaseState `json:"state" bson:"state"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

// VisibleState returns the display form of the case's current state.
func (c *Case) VisibleState() string {
	return c.State.Label()
}

// ApplicantCanEdit reports whether an applicant can currently modify this case.
func (c *Case) ApplicantCanEdit() bool {
	_, ok := applicantEditable[c.State]
	return ok
}
