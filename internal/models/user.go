package models

import "time"

// User represents a registered user. Tag is the unique handle other
// users address when sending money.
type User struct {
	ID           int64     `json:"id"`
	Tag          string    `json:"tag"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
