package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/khabaroff/lms-admin/src/database"
	"github.com/khabaroff/lms-admin/src/models"
	"github.com/khabaroff/lms-admin/src/repositories"
	"github.com/khabaroff/lms-admin/src/repositories/sqlite"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeCookies records what AuthService does to the jar
type fakeCookies struct {
	token   string
	cleared int
}

func (f *fakeCookies) AccessToken() (string, bool) {
	return f.token, f.token != ""
}

func (f *fakeCookies) ClearAll() error {
	f.cleared++
	f.token = ""
	return nil
}

type testEnv struct {
	db        *database.SQLite
	store     repositories.Store
	clock     *fakeClock
	passwords *PasswordService
	tokens    *TokenService
	auth      *AuthService
	admins    *AdminService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := database.NewTestSQLite(t)
	store := sqlite.NewStore(db.DB())
	clock := newFakeClock()
	passwords := NewPasswordServiceWithCost(bcrypt.MinCost)
	tokens := NewTokenService(store.Tokens).WithClock(clock.Now)

	auth := NewAuthService(store.Admins, passwords, tokens, nil)
	auth.nowFunc = clock.Now

	admins := NewAdminService(store.Admins, tokens, passwords)
	admins.nowFunc = clock.Now

	return &testEnv{
		db:        db,
		store:     store,
		clock:     clock,
		passwords: passwords,
		tokens:    tokens,
		auth:      auth,
		admins:    admins,
	}
}

func (e *testEnv) createAdmin(t *testing.T, email, password string) *models.PublicAdminUser {
	t.Helper()
	admin, err := e.admins.CreateAdminUser(context.Background(), models.NewAdminInput{Email: email, Password: password})
	require.NoError(t, err)
	return admin
}

// isRevoked reads is_revoked straight from the store
func (e *testEnv) isRevoked(t *testing.T, token string) bool {
	t.Helper()
	var revoked bool
	require.NoError(t, e.db.DB().Get(&revoked, `SELECT is_revoked FROM auth_tokens WHERE token = ?`, token))
	return revoked
}

func (e *testEnv) tokenCount(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.DB().Get(&n, `SELECT COUNT(*) FROM auth_tokens`))
	return n
}
