package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khabaroff/lms-admin/src/apperr"
	"github.com/khabaroff/lms-admin/src/database"
	"github.com/khabaroff/lms-admin/src/models"
)

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newAdmin(t *testing.T, repo *AdminRepository, email string) *models.AdminUser {
	t.Helper()
	admin := &models.AdminUser{Email: email, PasswordHash: "hash", CreatedAt: baseTime, UpdatedAt: baseTime}
	require.NoError(t, repo.Create(context.Background(), admin))
	return admin
}

func TestAdminRepository(t *testing.T) {
	ctx := context.Background()
	db := database.NewTestSQLite(t)
	repo := NewAdminRepository(db.DB())

	has, err := repo.HasAdmins(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	admin := newAdmin(t, repo, "a@b.com")
	assert.NotEqual(t, uuid.Nil, admin.ID)

	err = repo.Create(ctx, &models.AdminUser{Email: "a@b.com", PasswordHash: "x", CreatedAt: baseTime, UpdatedAt: baseTime})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.Equal(t, "email already registered", apperr.PublicMessage(err))

	found, err := repo.FindByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, found.ID)
	assert.True(t, found.CreatedAt.Equal(baseTime))
	assert.Nil(t, found.LastLoginAt)

	_, err = repo.FindByEmail(ctx, "A@b.com")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	pub, err := repo.FindByIDPublic(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", pub.Email)

	require.NoError(t, repo.UpdateLastLogin(ctx, admin.ID, baseTime.Add(time.Hour)))
	require.NoError(t, repo.UpdatePassword(ctx, admin.ID, "rotated", baseTime.Add(2*time.Hour)))

	found, err = repo.FindByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "rotated", found.PasswordHash)
	require.NotNil(t, found.LastLoginAt)
	assert.True(t, found.LastLoginAt.Equal(baseTime.Add(time.Hour)))
	assert.True(t, found.UpdatedAt.Equal(baseTime.Add(2*time.Hour)))

	err = repo.UpdatePassword(ctx, uuid.New(), "x", baseTime)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	newAdmin(t, repo, "c@d.com")
	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	require.NoError(t, repo.Delete(ctx, admin.ID))
	err = repo.Delete(ctx, admin.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestAdminRepository_CreateIfNone(t *testing.T) {
	ctx := context.Background()
	db := database.NewTestSQLite(t)
	repo := NewAdminRepository(db.DB())

	first := &models.AdminUser{Email: "first@b.com", PasswordHash: "hash", CreatedAt: baseTime, UpdatedAt: baseTime}
	created, err := repo.CreateIfNone(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, uuid.Nil, first.ID)

	second := &models.AdminUser{Email: "second@b.com", PasswordHash: "hash", CreatedAt: baseTime, UpdatedAt: baseTime}
	created, err = repo.CreateIfNone(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)

	_, err = repo.FindByEmail(ctx, "second@b.com")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestTokenRepository(t *testing.T) {
	ctx := context.Background()
	db := database.NewTestSQLite(t)
	store := NewStore(db.DB())
	admins := store.Admins.(*AdminRepository)
	owner := newAdmin(t, admins, "a@b.com")
	other := newAdmin(t, admins, "c@d.com")

	mk := func(value string, userID uuid.UUID, expiresIn time.Duration, revoked bool) *models.AuthToken {
		tok := &models.AuthToken{
			Token:     value,
			UserID:    userID,
			ExpiresAt: baseTime.Add(expiresIn),
			IsRevoked: revoked,
			CreatedAt: baseTime,
			UserAgent: "Mozilla/5.0",
			IPAddress: "10.0.0.1",
		}
		require.NoError(t, store.Tokens.Create(ctx, tok))
		return tok
	}

	older := mk("older", owner.ID, time.Hour, false)
	newer := mk("newer", owner.ID, time.Hour, false)
	mk("expired", owner.ID, -time.Minute, false)
	mk("revoked", owner.ID, time.Hour, true)
	foreign := mk("foreign", other.ID, time.Hour, false)

	t.Run("unknown owner is rejected", func(t *testing.T) {
		err := store.Tokens.Create(ctx, &models.AuthToken{Token: "orphan", UserID: uuid.New(), ExpiresAt: baseTime, CreatedAt: baseTime})
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindDatabase))
	})

	t.Run("duplicate value conflicts", func(t *testing.T) {
		err := store.Tokens.Create(ctx, &models.AuthToken{Token: "older", UserID: owner.ID, ExpiresAt: baseTime, CreatedAt: baseTime})
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	})

	t.Run("find by value joins owner", func(t *testing.T) {
		found, err := store.Tokens.FindByValue(ctx, "older")
		require.NoError(t, err)
		assert.Equal(t, older.ID, found.ID)
		assert.Equal(t, "a@b.com", found.Email)
		assert.Equal(t, "Mozilla/5.0", found.UserAgent)
		assert.False(t, found.IsRevoked)

		_, err = store.Tokens.FindByValue(ctx, "nope")
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})

	t.Run("active list is ordered by last use", func(t *testing.T) {
		require.NoError(t, store.Tokens.TouchLastUsed(ctx, older.ID, baseTime.Add(10*time.Minute)))
		require.NoError(t, store.Tokens.TouchLastUsed(ctx, newer.ID, baseTime.Add(5*time.Minute)))

		list, err := store.Tokens.ListActiveForUser(ctx, owner.ID, baseTime)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, older.ID, list[0].ID)
		assert.Equal(t, newer.ID, list[1].ID)
		assert.Empty(t, list[0].Token, "listing never carries the secret")
	})

	t.Run("revoke by id is scoped to the owner", func(t *testing.T) {
		ok, err := store.Tokens.RevokeByID(ctx, owner.ID, foreign.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		found, err := store.Tokens.FindByValue(ctx, "foreign")
		require.NoError(t, err)
		assert.False(t, found.IsRevoked)
	})

	t.Run("extend skips revoked tokens", func(t *testing.T) {
		ok, err := store.Tokens.ExtendExpiry(ctx, "revoked", baseTime, baseTime.Add(48*time.Hour))
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = store.Tokens.ExtendExpiry(ctx, "expired", baseTime, baseTime.Add(48*time.Hour))
		require.NoError(t, err)
		assert.False(t, ok, "expired tokens are not resurrected")

		ok, err = store.Tokens.ExtendExpiry(ctx, "newer", baseTime, baseTime.Add(48*time.Hour))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("cleanup removes expired or revoked only", func(t *testing.T) {
		n, err := store.Tokens.DeleteExpiredOrRevoked(ctx, baseTime)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		n, err = store.Tokens.DeleteExpiredOrRevoked(ctx, baseTime)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("revoke all touches only live rows", func(t *testing.T) {
		n, err := store.Tokens.RevokeAllForUser(ctx, owner.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		n, err = store.Tokens.RevokeAllForUser(ctx, owner.ID)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("deleting the owner cascades", func(t *testing.T) {
		require.NoError(t, admins.Delete(ctx, other.ID))
		_, err := store.Tokens.FindByValue(ctx, "foreign")
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "sqlite"), mock
}

func TestTokenRepository_DriverFailuresAreDatabaseErrors(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewTokenRepository(db)
	driverErr := errors.New("disk I/O error")

	mock.ExpectExec("UPDATE auth_tokens SET is_revoked = 1 WHERE token = \\? AND is_revoked = 0").
		WithArgs("tok").
		WillReturnError(driverErr)

	ok, err := repo.Revoke(ctx, "tok")
	assert.False(t, ok)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindDatabase))
	assert.ErrorIs(t, err, driverErr)
	assert.Equal(t, "internal server error", apperr.PublicMessage(err))

	mock.ExpectQuery("SELECT (.+) FROM auth_tokens t JOIN admin_users u").
		WithArgs("tok").
		WillReturnError(driverErr)

	_, err = repo.FindByValue(ctx, "tok")
	assert.True(t, apperr.IsKind(err, apperr.KindDatabase))

	mock.ExpectExec("DELETE FROM auth_tokens WHERE expires_at < \\? OR is_revoked = 1").
		WillReturnResult(sqlmock.NewErrorResult(driverErr))

	_, err = repo.DeleteExpiredOrRevoked(ctx, baseTime)
	assert.True(t, apperr.IsKind(err, apperr.KindDatabase))

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestAdminRepository_CorruptIDIsDatabaseError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAdminRepository(db)

	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "created_at", "updated_at", "last_login_at"}).
		AddRow("not-a-uuid", "a@b.com", "hash", int64(1), int64(1), nil)
	mock.ExpectQuery("SELECT \\* FROM admin_users WHERE email = ?").WithArgs("a@b.com").WillReturnRows(rows)

	_, err := repo.FindByEmail(context.Background(), "a@b.com")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindDatabase))
}
