package models

import "time"

// User represents a registered user account.
type User struct {
	// Email is the user's email address and unique key.
	// Compared case-sensitively; the format is not validated.
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string `json:"passwordHash,omitempty"`

	// LegacyPassword holds a cleartext password read from a data file written
	// before hashing was introduced. Stores hash it into PasswordHash and
	// clear it on load, so it is never written back out.
	LegacyPassword string `json:"password,omitempty"`

	// CreatedAt is the Unix timestamp when the user account was created.
	CreatedAt int64 `json:"createdAt,omitempty"`
}

// NewUser creates a user with the given email and password hash.
func NewUser(email, passwordHash string) *User {
	return &User{
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().Unix(),
	}
}
