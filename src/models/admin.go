package models

import (
	"time"

	"github.com/google/uuid"
)

// AdminUser represents an operator with dashboard access
type AdminUser struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // never expose
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// PublicAdminUser is an AdminUser without the password hash
type PublicAdminUser struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// Public strips the password hash
func (u *AdminUser) Public() *PublicAdminUser {
	if u == nil {
		return nil
	}
	return &PublicAdminUser{
		ID:          u.ID,
		Email:       u.Email,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

// AuthUser is the identity resolved from a valid session
type AuthUser struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}
