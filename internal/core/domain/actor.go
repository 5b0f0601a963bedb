package domain

import (
	"errors"
	"time"
)

// Role is an assignable responsibility within the permitting process.
type Role string

const (
	// RoleApplicant may create cases, upload documents, and submit.
	RoleApplicant Role = "applicant"
	// RoleApprover may review, comment, approve, and deny.
	RoleApprover Role = "approver"
)

var ErrActorNotFound = errors.New("actor not found")
var ErrActorExists = errors.New("actor already exists")
var ErrInvalidRole = errors.New("invalid role")
var ErrInvalidCredentials = errors.New("invalid credentials")

// Valid reports whether r is one of the fixed roles.
func (r Role) Valid() bool {
	return r == RoleApplicant || r == RoleApprover
}

// Actor is a participant in the permitting process. Email is the natural key;
// the role starts unset and is assigned once during onboarding.
type Actor struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Email     string    `json:"email" bson:"email"`
	Role      Role      `json:"role,omitempty" bson:"role,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Equal reports identity by natural key, not by handle. Two independently
// fetched handles for the same email compare equal.
func (a *Actor) Equal(other *Actor) bool {
	return a != nil && other != nil && a.Email == other.Email
}

// CanUpload reports whether the actor may upload documents and submit cases.
func (a *Actor) CanUpload() bool {
	return a.Role == RoleApplicant
}

// CanApprove reports whether the actor may review, approve, or deny cases.
func (a *Actor) CanApprove() bool {
	return a.Role == RoleApprover
}
