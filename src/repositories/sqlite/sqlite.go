// Package sqlite implements the repositories on an embedded SQLite database
// through sqlx. Timestamps are stored as unix milliseconds.
package sqlite

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/khabaroff/lms-admin/src/apperr"
	"github.com/khabaroff/lms-admin/src/repositories"
)

// NewStore builds both repositories over one handle
func NewStore(db *sqlx.DB) repositories.Store {
	return repositories.Store{
		Admins: NewAdminRepository(db),
		Tokens: NewTokenRepository(db),
	}
}

func mapError(op string, err error, notFound string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(op, notFound)
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return apperr.WithCause(apperr.KindConflict, op, "record already exists", err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return apperr.WithCause(apperr.KindDatabase, op, "referenced record does not exist", err)
	}

	return apperr.Database(op, err)
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func fromNullMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func parseID(op, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Database(op, err)
	}
	return id, nil
}

func rowsAffected(op string, res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperr.Database(op, err)
	}
	return n, nil
}
