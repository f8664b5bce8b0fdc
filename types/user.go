package types

import "time"

// User represents an account in the system.
type User struct {
	// ID is the unique identifier of the user, assigned at creation.
	ID string `json:"id" db:"id"`

	// Email is the user's login key, stored lower-cased and unique.
	Email string `json:"email" db:"email"`

	// Name is the user's display name.
	Name string `json:"name" db:"name"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
