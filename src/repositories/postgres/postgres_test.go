package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khabaroff/lms-admin/src/apperr"
	"github.com/khabaroff/lms-admin/src/database"
	"github.com/khabaroff/lms-admin/src/models"
)

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError("op", nil, ""))

	err := mapError("admins.find", fmt.Errorf("scan: %w", pgx.ErrNoRows), "admin user not found")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	err = mapError("admins.create", &pgconn.PgError{Code: codeUniqueViolation}, "")
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	err = mapError("tokens.create", &pgconn.PgError{Code: codeForeignKeyViolation}, "")
	assert.True(t, apperr.IsKind(err, apperr.KindDatabase))

	raw := errors.New("conn closed")
	err = mapError("tokens.revoke", raw, "")
	assert.True(t, apperr.IsKind(err, apperr.KindDatabase))
	assert.ErrorIs(t, err, raw)
}

func TestAdminRepository_Postgres(t *testing.T) {
	database.WithTestDB(t, func(tdb *database.TestDB) {
		ctx := context.Background()
		repo := NewAdminRepository(tdb.Pool)
		now := time.Now().UTC().Truncate(time.Microsecond)

		admin := &models.AdminUser{Email: "a@b.com", PasswordHash: "hash", CreatedAt: now, UpdatedAt: now}
		require.NoError(t, repo.Create(ctx, admin))
		assert.NotEqual(t, uuid.Nil, admin.ID)

		dup := &models.AdminUser{Email: "a@b.com", PasswordHash: "hash", CreatedAt: now, UpdatedAt: now}
		err := repo.Create(ctx, dup)
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))

		found, err := repo.FindByEmail(ctx, "a@b.com")
		require.NoError(t, err)
		assert.Equal(t, admin.ID, found.ID)
		assert.Equal(t, "hash", found.PasswordHash)

		_, err = repo.FindByEmail(ctx, "A@B.COM")
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound), "email lookup is case-sensitive")

		require.NoError(t, repo.UpdatePassword(ctx, admin.ID, "rotated", now.Add(time.Minute)))
		found, err = repo.FindByID(ctx, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, "rotated", found.PasswordHash)

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)

		require.NoError(t, repo.Delete(ctx, admin.ID))
		has, err := repo.HasAdmins(ctx)
		require.NoError(t, err)
		assert.False(t, has)

		err = repo.Delete(ctx, admin.ID)
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})
}

func TestAdminRepository_CreateIfNone_Postgres(t *testing.T) {
	database.WithTestDB(t, func(tdb *database.TestDB) {
		ctx := context.Background()
		repo := NewAdminRepository(tdb.Pool)
		now := time.Now().UTC().Truncate(time.Microsecond)

		const workers = 6
		results := make(chan bool, workers)
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			go func(i int) {
				admin := &models.AdminUser{Email: fmt.Sprintf("first%d@b.com", i), PasswordHash: "hash", CreatedAt: now, UpdatedAt: now}
				created, err := repo.CreateIfNone(ctx, admin)
				errs <- err
				results <- created
			}(i)
		}

		wins := 0
		for i := 0; i < workers; i++ {
			require.NoError(t, <-errs)
			if <-results {
				wins++
			}
		}
		assert.Equal(t, 1, wins)

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})
}

func TestTokenRepository_Postgres(t *testing.T) {
	database.WithTestDB(t, func(tdb *database.TestDB) {
		ctx := context.Background()
		store := NewStore(tdb.Pool)
		now := time.Now().UTC().Truncate(time.Microsecond)

		userID, err := tdb.CreateTestAdmin("a@b.com", "hash")
		require.NoError(t, err)

		active := &models.AuthToken{Token: "active", UserID: userID, ExpiresAt: now.Add(time.Hour), CreatedAt: now, UserAgent: "curl"}
		expired := &models.AuthToken{Token: "expired", UserID: userID, ExpiresAt: now.Add(-time.Hour), CreatedAt: now}
		revoked := &models.AuthToken{Token: "revoked", UserID: userID, ExpiresAt: now.Add(time.Hour), CreatedAt: now, IsRevoked: true}
		for _, tok := range []*models.AuthToken{active, expired, revoked} {
			require.NoError(t, store.Tokens.Create(ctx, tok))
		}

		err = store.Tokens.Create(ctx, &models.AuthToken{Token: "orphan", UserID: uuid.New(), ExpiresAt: now, CreatedAt: now})
		assert.True(t, apperr.IsKind(err, apperr.KindDatabase))

		found, err := store.Tokens.FindByValue(ctx, "active")
		require.NoError(t, err)
		assert.Equal(t, "a@b.com", found.Email)
		assert.Equal(t, "curl", found.UserAgent)

		list, err := store.Tokens.ListActiveForUser(ctx, userID, now)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, active.ID, list[0].ID)

		n, err := store.Tokens.DeleteExpiredOrRevoked(ctx, now)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		ok, err := store.Tokens.Revoke(ctx, "active")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Tokens.Revoke(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)

		// Deleting the owner cascades to its tokens
		require.NoError(t, store.Admins.Delete(ctx, userID))
		_, err = store.Tokens.FindByValue(ctx, "active")
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})
}
