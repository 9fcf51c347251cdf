package models

import (
	"time"

	"github.com/google/uuid"
)

// AuthToken is one persisted session. Token is the bearer secret.
type AuthToken struct {
	ID         uuid.UUID  `json:"id"`
	Token      string     `json:"-"`
	UserID     uuid.UUID  `json:"user_id"`
	ExpiresAt  time.Time  `json:"expires_at"`
	IsRevoked  bool       `json:"is_revoked"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	UserAgent  string     `json:"user_agent,omitempty"`
	IPAddress  string     `json:"ip_address,omitempty"`
}

// IsActive reports whether the token is usable at the given instant
func (t *AuthToken) IsActive(now time.Time) bool {
	return !t.IsRevoked && now.Before(t.ExpiresAt)
}

// TokenWithOwner is a token row joined with its owner's email
type TokenWithOwner struct {
	AuthToken
	Email string
}

// TokenData is returned once, at creation time, and carries the secret
type TokenData struct {
	ID        uuid.UUID `json:"id"`
	Token     string    `json:"token"`
	UserID    uuid.UUID `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenIdentity is what a successful validation yields
type TokenIdentity struct {
	TokenID uuid.UUID
	UserID  uuid.UUID
	Email   string
}

// SessionInfo describes an active session without its secret
type SessionInfo struct {
	ID         uuid.UUID  `json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	UserAgent  string     `json:"user_agent,omitempty"`
	IPAddress  string     `json:"ip_address,omitempty"`
}

// Session converts a token row into its public session view
func (t *AuthToken) Session() SessionInfo {
	return SessionInfo{
		ID:         t.ID,
		CreatedAt:  t.CreatedAt,
		ExpiresAt:  t.ExpiresAt,
		LastUsedAt: t.LastUsedAt,
		UserAgent:  t.UserAgent,
		IPAddress:  t.IPAddress,
	}
}

// ClientMeta is diagnostic request metadata stored with a session
type ClientMeta struct {
	UserAgent string
	IPAddress string
}
