package profile

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the competition-facing identity attached to a Clerk account.
type Profile struct {
	ID           uuid.UUID `json:"id" db:"id"`
	ClerkID      string    `json:"clerk_id" db:"clerk_id"`
	Name         string    `json:"name" db:"name"`
	University   string    `json:"university" db:"university"`
	Gender       *string   `json:"gender" db:"gender"`
	IsAdmin      bool      `json:"is_admin" db:"is_admin"`
	IsSuperAdmin bool      `json:"is_super_admin" db:"is_super_admin"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type CreateProfileRequest struct {
	ClerkID    string `json:"clerk_id"`
	Name       string `json:"name"`
	University string `json:"university"`
	Gender     string `json:"gender"`
}

type UpdateProfileRequest struct {
	Name       *string `json:"name,omitempty"`
	University *string `json:"university,omitempty"`
	Gender     *string `json:"gender,omitempty"`
}

// SetRoleRequest flips admin flags; only super admins may call it.
type SetRoleRequest struct {
	UserID       uuid.UUID `json:"user_id"`
	IsAdmin      *bool     `json:"is_admin,omitempty"`
	IsSuperAdmin *bool     `json:"is_super_admin,omitempty"`
}
