package domain

import "time"

// Credential holds the login secret for an actor. It lives in its own
// collection so the identity directory itself stays free of secrets.
type Credential struct {
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}
