package models

// User represents a user in the system.
// Rows are created on first sign-in and never deleted by the server.
type User struct {
	ID          int64   `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Email       string  `json:"email" db:"email"`
	Image       *string `json:"image,omitempty" db:"image"`
	Description *string `json:"description,omitempty" db:"description"`
}

// Principal is an identity asserted by the external sign-in provider.
type Principal struct {
	Email string
	Name  string
	Image string
}
