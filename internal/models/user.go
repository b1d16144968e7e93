package models

// User represents an account whose records the ledger tracks.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Name is the display name of the user.
	Name string

	// Email is the user's email address (unique).
	Email string

	// Active users are included in batch jobs.
	Active bool

	// CreatedAt is the Unix timestamp when the user account was created.
	CreatedAt int64
}
