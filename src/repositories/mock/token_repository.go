package mock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khabaroff/lms-admin/src/apperr"
	"github.com/khabaroff/lms-admin/src/models"
	"github.com/khabaroff/lms-admin/src/repositories"
)

// TokenRepository is a mock implementation of repositories.TokenRepository
type TokenRepository struct {
	// Function stubs that can be overridden in tests
	CreateFunc                 func(ctx context.Context, token *models.AuthToken) error
	FindByValueFunc            func(ctx context.Context, value string) (*models.TokenWithOwner, error)
	TouchLastUsedFunc          func(ctx context.Context, id uuid.UUID, at time.Time) error
	RevokeFunc                 func(ctx context.Context, value string) (bool, error)
	RevokeByIDFunc             func(ctx context.Context, userID, id uuid.UUID) (bool, error)
	RevokeAllForUserFunc       func(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteFunc                 func(ctx context.Context, value string) (bool, error)
	DeleteExpiredOrRevokedFunc func(ctx context.Context, now time.Time) (int64, error)
	ListActiveForUserFunc      func(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.AuthToken, error)
	ExtendExpiryFunc           func(ctx context.Context, value string, now, expiresAt time.Time) (bool, error)

	// Call tracking
	mu    sync.Mutex
	Calls map[string][]interface{}
}

// NewTokenRepository creates a new mock token repository
func NewTokenRepository() *TokenRepository {
	return &TokenRepository{
		Calls: make(map[string][]interface{}),
	}
}

func (m *TokenRepository) record(name string, arg interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls[name] = append(m.Calls[name], arg)
}

// CallCount returns how many times name was invoked
func (m *TokenRepository) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls[name])
}

func (m *TokenRepository) Create(ctx context.Context, token *models.AuthToken) error {
	m.record("Create", token)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, token)
	}
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	return nil
}

func (m *TokenRepository) FindByValue(ctx context.Context, value string) (*models.TokenWithOwner, error) {
	m.record("FindByValue", value)
	if m.FindByValueFunc != nil {
		return m.FindByValueFunc(ctx, value)
	}
	return nil, apperr.NotFound("tokens.find_by_value", "token not found")
}

func (m *TokenRepository) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	m.record("TouchLastUsed", id)
	if m.TouchLastUsedFunc != nil {
		return m.TouchLastUsedFunc(ctx, id, at)
	}
	return nil
}

func (m *TokenRepository) Revoke(ctx context.Context, value string) (bool, error) {
	m.record("Revoke", value)
	if m.RevokeFunc != nil {
		return m.RevokeFunc(ctx, value)
	}
	return false, nil
}

func (m *TokenRepository) RevokeByID(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	m.record("RevokeByID", []interface{}{userID, id})
	if m.RevokeByIDFunc != nil {
		return m.RevokeByIDFunc(ctx, userID, id)
	}
	return false, nil
}

func (m *TokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	m.record("RevokeAllForUser", userID)
	if m.RevokeAllForUserFunc != nil {
		return m.RevokeAllForUserFunc(ctx, userID)
	}
	return 0, nil
}

func (m *TokenRepository) Delete(ctx context.Context, value string) (bool, error) {
	m.record("Delete", value)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, value)
	}
	return false, nil
}

func (m *TokenRepository) DeleteExpiredOrRevoked(ctx context.Context, now time.Time) (int64, error) {
	m.record("DeleteExpiredOrRevoked", now)
	if m.DeleteExpiredOrRevokedFunc != nil {
		return m.DeleteExpiredOrRevokedFunc(ctx, now)
	}
	return 0, nil
}

func (m *TokenRepository) ListActiveForUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.AuthToken, error) {
	m.record("ListActiveForUser", userID)
	if m.ListActiveForUserFunc != nil {
		return m.ListActiveForUserFunc(ctx, userID, now)
	}
	return nil, nil
}

func (m *TokenRepository) ExtendExpiry(ctx context.Context, value string, now, expiresAt time.Time) (bool, error) {
	m.record("ExtendExpiry", value)
	if m.ExtendExpiryFunc != nil {
		return m.ExtendExpiryFunc(ctx, value, now, expiresAt)
	}
	return false, nil
}

// Ensure TokenRepository implements the interface
var _ repositories.TokenRepository = (*TokenRepository)(nil)
