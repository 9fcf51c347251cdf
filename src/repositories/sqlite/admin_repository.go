package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/khabaroff/lms-admin/src/apperr"
	"github.com/khabaroff/lms-admin/src/models"
	"github.com/khabaroff/lms-admin/src/repositories"
)

// adminRow maps 1:1 to the admin_users table
type adminRow struct {
	ID           string        `db:"id"`
	Email        string        `db:"email"`
	PasswordHash string        `db:"password_hash"`
	CreatedAt    int64         `db:"created_at"`
	UpdatedAt    int64         `db:"updated_at"`
	LastLoginAt  sql.NullInt64 `db:"last_login_at"`
}

func (r adminRow) toModel(op string) (*models.AdminUser, error) {
	id, err := parseID(op, r.ID)
	if err != nil {
		return nil, err
	}
	return &models.AdminUser{
		ID:           id,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    fromMillis(r.CreatedAt),
		UpdatedAt:    fromMillis(r.UpdatedAt),
		LastLoginAt:  fromNullMillis(r.LastLoginAt),
	}, nil
}

// AdminRepository stores admin users in SQLite
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository creates a new admin repository
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

var _ repositories.AdminRepository = (*AdminRepository)(nil)

func (r *AdminRepository) getOne(ctx context.Context, op, query string, arg interface{}) (*models.AdminUser, error) {
	var row adminRow
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		return nil, mapError(op, err, "admin user not found")
	}
	return row.toModel(op)
}

func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	return r.getOne(ctx, "admins.find_by_email", `SELECT * FROM admin_users WHERE email = ?`, email)
}

func (r *AdminRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.AdminUser, error) {
	return r.getOne(ctx, "admins.find_by_id", `SELECT * FROM admin_users WHERE id = ?`, id.String())
}

func (r *AdminRepository) FindByIDPublic(ctx context.Context, id uuid.UUID) (*models.PublicAdminUser, error) {
	u, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.Public(), nil
}

// Create inserts the admin. A duplicate email yields a conflict error.
func (r *AdminRepository) Create(ctx context.Context, admin *models.AdminUser) error {
	if admin.ID == uuid.Nil {
		admin.ID = uuid.New()
	}
	row := adminRow{
		ID:           admin.ID.String(),
		Email:        admin.Email,
		PasswordHash: admin.PasswordHash,
		CreatedAt:    toMillis(admin.CreatedAt),
		UpdatedAt:    toMillis(admin.UpdatedAt),
	}

	const q = `INSERT INTO admin_users (id, email, password_hash, created_at, updated_at)
		VALUES (:id, :email, :password_hash, :created_at, :updated_at)`

	if _, err := r.db.NamedExecContext(ctx, q, row); err != nil {
		mapped := mapError("admins.create", err, "")
		if apperr.IsKind(mapped, apperr.KindConflict) {
			return apperr.WithCause(apperr.KindConflict, "admins.create", "email already registered", err)
		}
		return mapped
	}
	return nil
}

func (r *AdminRepository) CreateIfNone(ctx context.Context, admin *models.AdminUser) (bool, error) {
	if admin.ID == uuid.Nil {
		admin.ID = uuid.New()
	}
	// a single statement runs inside SQLite's write lock
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO admin_users (id, email, password_hash, created_at, updated_at)
		 SELECT ?, ?, ?, ?, ?
		  WHERE NOT EXISTS (SELECT 1 FROM admin_users)`,
		admin.ID.String(), admin.Email, admin.PasswordHash, toMillis(admin.CreatedAt), toMillis(admin.UpdatedAt),
	)
	if err != nil {
		return false, mapError("admins.create_if_none", err, "")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Database("admins.create_if_none", err)
	}
	return n == 1, nil
}

func (r *AdminRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE admin_users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, toMillis(at), id.String())
	if err != nil {
		return mapError("admins.update_password", err, "")
	}
	n, err := rowsAffected("admins.update_password", res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("admins.update_password", "admin user not found")
	}
	return nil
}

func (r *AdminRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE admin_users SET last_login_at = ? WHERE id = ?`, toMillis(at), id.String())
	return mapError("admins.update_last_login", err, "")
}

// Delete removes the admin; auth_tokens rows go with it via ON DELETE CASCADE
func (r *AdminRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admin_users WHERE id = ?`, id.String())
	if err != nil {
		return mapError("admins.delete", err, "")
	}
	n, err := rowsAffected("admins.delete", res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("admins.delete", "admin user not found")
	}
	return nil
}

func (r *AdminRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM admin_users`); err != nil {
		return 0, mapError("admins.count", err, "")
	}
	return n, nil
}

func (r *AdminRepository) HasAdmins(ctx context.Context) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM admin_users)`); err != nil {
		return false, mapError("admins.has_admins", err, "")
	}
	return exists, nil
}

func (r *AdminRepository) List(ctx context.Context) ([]models.PublicAdminUser, error) {
	var rows []adminRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT * FROM admin_users ORDER BY created_at, email`); err != nil {
		return nil, mapError("admins.list", err, "")
	}

	out := make([]models.PublicAdminUser, 0, len(rows))
	for _, row := range rows {
		u, err := row.toModel("admins.list")
		if err != nil {
			return nil, err
		}
		out = append(out, *u.Public())
	}
	return out, nil
}
