// Package postgres implements the repositories on PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/khabaroff/lms-admin/src/apperr"
	"github.com/khabaroff/lms-admin/src/repositories"
)

// PostgreSQL error codes
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Querier is satisfied by *pgxpool.Pool, pgx.Tx and *database.Database
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// NewStore builds both repositories over one pool
func NewStore(db Querier) repositories.Store {
	return repositories.Store{
		Admins: NewAdminRepository(db),
		Tokens: NewTokenRepository(db),
	}
}

// mapError converts pgx errors into the apperr taxonomy
func mapError(op string, err error, notFound string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(op, notFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return apperr.WithCause(apperr.KindConflict, op, "record already exists", err)
		case codeForeignKeyViolation:
			return apperr.WithCause(apperr.KindDatabase, op, "referenced record does not exist", err)
		}
	}

	return apperr.Database(op, err)
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
