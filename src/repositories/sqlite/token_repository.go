package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/khabaroff/lms-admin/src/models"
	"github.com/khabaroff/lms-admin/src/repositories"
)

const tokenColumns = `t.id, t.token, t.user_id, t.expires_at, t.is_revoked, t.created_at,
	t.last_used_at, t.user_agent, t.ip_address`

// tokenRow maps 1:1 to the auth_tokens table
type tokenRow struct {
	ID         string         `db:"id"`
	Token      string         `db:"token"`
	UserID     string         `db:"user_id"`
	ExpiresAt  int64          `db:"expires_at"`
	IsRevoked  bool           `db:"is_revoked"`
	CreatedAt  int64          `db:"created_at"`
	LastUsedAt sql.NullInt64  `db:"last_used_at"`
	UserAgent  sql.NullString `db:"user_agent"`
	IPAddress  sql.NullString `db:"ip_address"`
}

type tokenOwnerRow struct {
	tokenRow
	Email string `db:"email"`
}

func (r tokenRow) toModel(op string) (*models.AuthToken, error) {
	id, err := parseID(op, r.ID)
	if err != nil {
		return nil, err
	}
	userID, err := parseID(op, r.UserID)
	if err != nil {
		return nil, err
	}
	return &models.AuthToken{
		ID:         id,
		Token:      r.Token,
		UserID:     userID,
		ExpiresAt:  fromMillis(r.ExpiresAt),
		IsRevoked:  r.IsRevoked,
		CreatedAt:  fromMillis(r.CreatedAt),
		LastUsedAt: fromNullMillis(r.LastUsedAt),
		UserAgent:  r.UserAgent.String,
		IPAddress:  r.IPAddress.String,
	}, nil
}

// TokenRepository stores sessions in SQLite
type TokenRepository struct {
	db *sqlx.DB
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db *sqlx.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

var _ repositories.TokenRepository = (*TokenRepository)(nil)

func (r *TokenRepository) Create(ctx context.Context, t *models.AuthToken) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	row := tokenRow{
		ID:        t.ID.String(),
		Token:     t.Token,
		UserID:    t.UserID.String(),
		ExpiresAt: toMillis(t.ExpiresAt),
		IsRevoked: t.IsRevoked,
		CreatedAt: toMillis(t.CreatedAt),
		UserAgent: nullString(t.UserAgent),
		IPAddress: nullString(t.IPAddress),
	}

	const q = `INSERT INTO auth_tokens (id, token, user_id, expires_at, is_revoked, created_at, user_agent, ip_address)
		VALUES (:id, :token, :user_id, :expires_at, :is_revoked, :created_at, :user_agent, :ip_address)`

	_, err := r.db.NamedExecContext(ctx, q, row)
	return mapError("tokens.create", err, "")
}

func (r *TokenRepository) FindByValue(ctx context.Context, value string) (*models.TokenWithOwner, error) {
	var row tokenOwnerRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+tokenColumns+`, u.email
		   FROM auth_tokens t
		   JOIN admin_users u ON u.id = t.user_id
		  WHERE t.token = ?`, value)
	if err != nil {
		return nil, mapError("tokens.find_by_value", err, "token not found")
	}

	tok, err := row.toModel("tokens.find_by_value")
	if err != nil {
		return nil, err
	}
	return &models.TokenWithOwner{AuthToken: *tok, Email: row.Email}, nil
}

func (r *TokenRepository) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE auth_tokens SET last_used_at = ? WHERE id = ?`, toMillis(at), id.String())
	return mapError("tokens.touch", err, "")
}

func (r *TokenRepository) exec(ctx context.Context, op, query string, args ...interface{}) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapError(op, err, "")
	}
	return rowsAffected(op, res)
}

func (r *TokenRepository) Revoke(ctx context.Context, value string) (bool, error) {
	n, err := r.exec(ctx, "tokens.revoke", `UPDATE auth_tokens SET is_revoked = 1 WHERE token = ? AND is_revoked = 0`, value)
	return n > 0, err
}

func (r *TokenRepository) RevokeByID(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	n, err := r.exec(ctx, "tokens.revoke_by_id",
		`UPDATE auth_tokens SET is_revoked = 1 WHERE id = ? AND user_id = ? AND is_revoked = 0`, id.String(), userID.String())
	return n > 0, err
}

func (r *TokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return r.exec(ctx, "tokens.revoke_all",
		`UPDATE auth_tokens SET is_revoked = 1 WHERE user_id = ? AND is_revoked = 0`, userID.String())
}

func (r *TokenRepository) Delete(ctx context.Context, value string) (bool, error) {
	n, err := r.exec(ctx, "tokens.delete", `DELETE FROM auth_tokens WHERE token = ?`, value)
	return n > 0, err
}

func (r *TokenRepository) DeleteExpiredOrRevoked(ctx context.Context, now time.Time) (int64, error) {
	return r.exec(ctx, "tokens.cleanup",
		`DELETE FROM auth_tokens WHERE expires_at < ? OR is_revoked = 1`, toMillis(now))
}

func (r *TokenRepository) ListActiveForUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.AuthToken, error) {
	var rows []tokenRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+tokenColumns+`
		   FROM auth_tokens t
		  WHERE t.user_id = ? AND t.is_revoked = 0 AND t.expires_at > ?
		  ORDER BY t.last_used_at IS NULL, t.last_used_at DESC, t.created_at DESC`,
		userID.String(), toMillis(now))
	if err != nil {
		return nil, mapError("tokens.list_active", err, "")
	}

	out := make([]models.AuthToken, 0, len(rows))
	for _, row := range rows {
		tok, err := row.toModel("tokens.list_active")
		if err != nil {
			return nil, err
		}
		out = append(out, *tok)
	}
	return out, nil
}

func (r *TokenRepository) ExtendExpiry(ctx context.Context, value string, now, expiresAt time.Time) (bool, error) {
	n, err := r.exec(ctx, "tokens.extend",
		`UPDATE auth_tokens SET expires_at = ?
		  WHERE token = ? AND is_revoked = 0 AND expires_at > ?`, toMillis(expiresAt), value, toMillis(now))
	return n > 0, err
}
