package models

import "time"

// Profile is the slice of a user account this service reads. Account
// lifecycle (sign-up, roles, billing) lives in the main application; the
// messaging service only resolves display names from it.
type Profile struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Role      string    `json:"role" db:"role"` // 'trainer' or 'client'
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
