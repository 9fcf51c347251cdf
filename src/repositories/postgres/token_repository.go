package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/khabaroff/lms-admin/src/models"
	"github.com/khabaroff/lms-admin/src/repositories"
)

// TokenRepository stores sessions in PostgreSQL
type TokenRepository struct {
	db Querier
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db Querier) *TokenRepository {
	return &TokenRepository{db: db}
}

var _ repositories.TokenRepository = (*TokenRepository)(nil)

func (r *TokenRepository) Create(ctx context.Context, t *models.AuthToken) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO auth_tokens (id, token, user_id, expires_at, is_revoked, created_at, user_agent, ip_address)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.Token, t.UserID, t.ExpiresAt, t.IsRevoked, t.CreatedAt,
		nullIfEmpty(t.UserAgent), nullIfEmpty(t.IPAddress),
	)
	return mapError("tokens.create", err, "")
}

func (r *TokenRepository) FindByValue(ctx context.Context, value string) (*models.TokenWithOwner, error) {
	var (
		t         models.TokenWithOwner
		userAgent *string
		ipAddress *string
	)
	err := r.db.QueryRow(ctx,
		`SELECT t.id, t.token, t.user_id, t.expires_at, t.is_revoked, t.created_at, t.last_used_at,
		        t.user_agent, t.ip_address, u.email
		   FROM auth_tokens t
		   JOIN admin_users u ON u.id = t.user_id
		  WHERE t.token = $1`, value,
	).Scan(&t.ID, &t.Token, &t.UserID, &t.ExpiresAt, &t.IsRevoked, &t.CreatedAt, &t.LastUsedAt,
		&userAgent, &ipAddress, &t.Email)
	if err != nil {
		return nil, mapError("tokens.find_by_value", err, "token not found")
	}
	t.UserAgent = deref(userAgent)
	t.IPAddress = deref(ipAddress)
	return &t, nil
}

func (r *TokenRepository) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE auth_tokens SET last_used_at = $2 WHERE id = $1`, id, at)
	return mapError("tokens.touch", err, "")
}

func (r *TokenRepository) Revoke(ctx context.Context, value string) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE auth_tokens SET is_revoked = TRUE WHERE token = $1 AND is_revoked = FALSE`, value)
	if err != nil {
		return false, mapError("tokens.revoke", err, "")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *TokenRepository) RevokeByID(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE auth_tokens SET is_revoked = TRUE WHERE id = $1 AND user_id = $2 AND is_revoked = FALSE`, id, userID)
	if err != nil {
		return false, mapError("tokens.revoke_by_id", err, "")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *TokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE auth_tokens SET is_revoked = TRUE WHERE user_id = $1 AND is_revoked = FALSE`, userID)
	if err != nil {
		return 0, mapError("tokens.revoke_all", err, "")
	}
	return tag.RowsAffected(), nil
}

func (r *TokenRepository) Delete(ctx context.Context, value string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM auth_tokens WHERE token = $1`, value)
	if err != nil {
		return false, mapError("tokens.delete", err, "")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *TokenRepository) DeleteExpiredOrRevoked(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM auth_tokens WHERE expires_at < $1 OR is_revoked = TRUE`, now)
	if err != nil {
		return 0, mapError("tokens.cleanup", err, "")
	}
	return tag.RowsAffected(), nil
}

func (r *TokenRepository) ListActiveForUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.AuthToken, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, expires_at, is_revoked, created_at, last_used_at, user_agent, ip_address
		   FROM auth_tokens
		  WHERE user_id = $1 AND is_revoked = FALSE AND expires_at > $2
		  ORDER BY last_used_at DESC NULLS LAST, created_at DESC`, userID, now)
	if err != nil {
		return nil, mapError("tokens.list_active", err, "")
	}
	defer rows.Close()

	var out []models.AuthToken
	for rows.Next() {
		var (
			t         models.AuthToken
			userAgent *string
			ipAddress *string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.ExpiresAt, &t.IsRevoked, &t.CreatedAt, &t.LastUsedAt,
			&userAgent, &ipAddress); err != nil {
			return nil, mapError("tokens.list_active", err, "")
		}
		t.UserAgent = deref(userAgent)
		t.IPAddress = deref(ipAddress)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("tokens.list_active", err, "")
	}
	return out, nil
}

func (r *TokenRepository) ExtendExpiry(ctx context.Context, value string, now, expiresAt time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE auth_tokens SET expires_at = $2
		  WHERE token = $1 AND is_revoked = FALSE AND expires_at > $3`, value, expiresAt, now)
	if err != nil {
		return false, mapError("tokens.extend", err, "")
	}
	return tag.RowsAffected() > 0, nil
}
