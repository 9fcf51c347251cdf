package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/khabaroff/lms-admin/src/apperr"
	"github.com/khabaroff/lms-admin/src/models"
	"github.com/khabaroff/lms-admin/src/repositories"
)

const adminColumns = `id, email, password_hash, created_at, updated_at, last_login_at`

// AdminRepository stores admin users in PostgreSQL
type AdminRepository struct {
	db Querier
}

// NewAdminRepository creates a new admin repository
func NewAdminRepository(db Querier) *AdminRepository {
	return &AdminRepository{db: db}
}

var _ repositories.AdminRepository = (*AdminRepository)(nil)

func (r *AdminRepository) scanOne(ctx context.Context, op, query string, arg interface{}) (*models.AdminUser, error) {
	var u models.AdminUser
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt,
	)
	if err != nil {
		return nil, mapError(op, err, "admin user not found")
	}
	return &u, nil
}

func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	return r.scanOne(ctx, "admins.find_by_email",
		`SELECT `+adminColumns+` FROM admin_users WHERE email = $1`, email)
}

func (r *AdminRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.AdminUser, error) {
	return r.scanOne(ctx, "admins.find_by_id",
		`SELECT `+adminColumns+` FROM admin_users WHERE id = $1`, id)
}

func (r *AdminRepository) FindByIDPublic(ctx context.Context, id uuid.UUID) (*models.PublicAdminUser, error) {
	var u models.PublicAdminUser
	err := r.db.QueryRow(ctx,
		`SELECT id, email, created_at, updated_at, last_login_at FROM admin_users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt)
	if err != nil {
		return nil, mapError("admins.find_public", err, "admin user not found")
	}
	return &u, nil
}

// Create inserts the admin. A duplicate email yields a conflict error.
func (r *AdminRepository) Create(ctx context.Context, admin *models.AdminUser) error {
	if admin.ID == uuid.Nil {
		admin.ID = uuid.New()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO admin_users (id, email, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		admin.ID, admin.Email, admin.PasswordHash, admin.CreatedAt, admin.UpdatedAt,
	)
	if err != nil {
		mapped := mapError("admins.create", err, "")
		if apperr.IsKind(mapped, apperr.KindConflict) {
			return apperr.WithCause(apperr.KindConflict, "admins.create", "email already registered", err)
		}
		return mapped
	}
	return nil
}

// CreateIfNone holds an EXCLUSIVE lock on admin_users, which still admits
// readers, so concurrent first-admin inserts serialize.
func (r *AdminRepository) CreateIfNone(ctx context.Context, admin *models.AdminUser) (bool, error) {
	if admin.ID == uuid.Nil {
		admin.ID = uuid.New()
	}
	var created bool
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `LOCK TABLE admin_users IN EXCLUSIVE MODE`); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx,
			`INSERT INTO admin_users (id, email, password_hash, created_at, updated_at)
			 SELECT $1, $2, $3, $4, $5
			  WHERE NOT EXISTS (SELECT 1 FROM admin_users)`,
			admin.ID, admin.Email, admin.PasswordHash, admin.CreatedAt, admin.UpdatedAt,
		)
		if err != nil {
			return err
		}
		created = tag.RowsAffected() == 1
		return nil
	})
	if err != nil {
		return false, mapError("admins.create_if_none", err, "")
	}
	return created, nil
}

func (r *AdminRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE admin_users SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		id, passwordHash, at,
	)
	if err != nil {
		return mapError("admins.update_password", err, "")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("admins.update_password", "admin user not found")
	}
	return nil
}

func (r *AdminRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE admin_users SET last_login_at = $2 WHERE id = $1`, id, at)
	return mapError("admins.update_last_login", err, "")
}

// Delete removes the admin; auth_tokens rows go with it via ON DELETE CASCADE
func (r *AdminRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM admin_users WHERE id = $1`, id)
	if err != nil {
		return mapError("admins.delete", err, "")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("admins.delete", "admin user not found")
	}
	return nil
}

func (r *AdminRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM admin_users`).Scan(&n); err != nil {
		return 0, mapError("admins.count", err, "")
	}
	return n, nil
}

func (r *AdminRepository) HasAdmins(ctx context.Context) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM admin_users)`).Scan(&exists); err != nil {
		return false, mapError("admins.has_admins", err, "")
	}
	return exists, nil
}

func (r *AdminRepository) List(ctx context.Context) ([]models.PublicAdminUser, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, email, created_at, updated_at, last_login_at FROM admin_users ORDER BY created_at, email`)
	if err != nil {
		return nil, mapError("admins.list", err, "")
	}
	defer rows.Close()

	var out []models.PublicAdminUser
	for rows.Next() {
		var u models.PublicAdminUser
		if err := rows.Scan(&u.ID, &u.Email, &u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt); err != nil {
			return nil, mapError("admins.list", err, "")
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("admins.list", err, "")
	}
	return out, nil
}
