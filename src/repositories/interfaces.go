package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/khabaroff/lms-admin/src/models"
)

// AdminRepository defines the persistence boundary for admin users. Every
// method returns apperr kinds: not_found, conflict or database.
type AdminRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.AdminUser, error)
	FindByIDPublic(ctx context.Context, id uuid.UUID) (*models.PublicAdminUser, error)
	Create(ctx context.Context, admin *models.AdminUser) error
	// CreateIfNone inserts admin only while the table is empty, atomically.
	// It reports false when another admin already exists.
	CreateIfNone(ctx context.Context, admin *models.AdminUser) (bool, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, at time.Time) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
	HasAdmins(ctx context.Context) (bool, error)
	List(ctx context.Context) ([]models.PublicAdminUser, error)
}

// TokenRepository defines the persistence boundary for sessions. Every time
// predicate takes "now" from the caller.
type TokenRepository interface {
	Create(ctx context.Context, token *models.AuthToken) error
	// FindByValue returns the token joined with its owner, or not_found
	FindByValue(ctx context.Context, value string) (*models.TokenWithOwner, error)
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
	// Revoke reports whether a non-revoked row with this value was flipped
	Revoke(ctx context.Context, value string) (bool, error)
	// RevokeByID only matches a non-revoked token owned by userID
	RevokeByID(ctx context.Context, userID, id uuid.UUID) (bool, error)
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, value string) (bool, error)
	DeleteExpiredOrRevoked(ctx context.Context, now time.Time) (int64, error)
	// ListActiveForUser is ordered by most recently used first
	ListActiveForUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.AuthToken, error)
	// ExtendExpiry only applies to tokens still active at now
	ExtendExpiry(ctx context.Context, value string, now, expiresAt time.Time) (bool, error)
}

// Store bundles the repositories of one backing database
type Store struct {
	Admins AdminRepository
	Tokens TokenRepository
}
