package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/khabaroff/lms-admin/src/apperr"
	"github.com/khabaroff/lms-admin/src/logging"
	"github.com/khabaroff/lms-admin/src/models"
	"github.com/khabaroff/lms-admin/src/repositories"
)

// ResetPasswordLength is the length of operator-assisted reset passwords
const ResetPasswordLength = 16

// AdminService handles admin user management
type AdminService struct {
	repo      repositories.AdminRepository
	tokens    *TokenService
	passwords *PasswordService
	logger    zerolog.Logger
	nowFunc   func() time.Time
}

// NewAdminService creates a new admin service
func NewAdminService(repo repositories.AdminRepository, tokens *TokenService, passwords *PasswordService) *AdminService {
	return &AdminService{
		repo:      repo,
		tokens:    tokens,
		passwords: passwords,
		logger:    logging.NewLogger("admin_service"),
		nowFunc:   time.Now,
	}
}

// CreateAdminUser creates a new admin user with a hashed password. Password
// strength is advisory and not enforced here.
func (as *AdminService) CreateAdminUser(ctx context.Context, in models.NewAdminInput) (*models.PublicAdminUser, error) {
	admin, err := as.newAdmin(in)
	if err != nil {
		return nil, err
	}
	if err := as.repo.Create(ctx, admin); err != nil {
		return nil, err
	}

	as.logger.Info().Str("user_id", admin.ID.String()).Str("email", admin.Email).Msg("Admin user created")
	return admin.Public(), nil
}

// SetupFirstAdmin creates the first admin and fails once any admin exists.
// Concurrent calls on an empty store yield exactly one admin.
func (as *AdminService) SetupFirstAdmin(ctx context.Context, in models.NewAdminInput) (*models.PublicAdminUser, error) {
	// skip the bcrypt cost once setup is visibly done
	has, err := as.repo.HasAdmins(ctx)
	if err != nil {
		return nil, err
	}
	if has {
		return nil, ErrSetupCompleted
	}

	admin, err := as.newAdmin(in)
	if err != nil {
		return nil, err
	}
	created, err := as.repo.CreateIfNone(ctx, admin)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, ErrSetupCompleted
	}

	as.logger.Info().Str("user_id", admin.ID.String()).Str("email", admin.Email).Msg("First admin created")
	return admin.Public(), nil
}

func (as *AdminService) newAdmin(in models.NewAdminInput) (*models.AdminUser, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	hash, err := as.passwords.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := as.nowFunc().UTC()
	return &models.AdminUser{
		ID:           uuid.New(),
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// SeedInitialAdmin creates an admin from configuration on first run only.
// It reports whether an admin was created.
func (as *AdminService) SeedInitialAdmin(ctx context.Context, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}

	has, err := as.repo.HasAdmins(ctx)
	if err != nil {
		return false, err
	}
	if has {
		return false, nil
	}

	if _, err := as.CreateAdminUser(ctx, models.NewAdminInput{Email: email, Password: password}); err != nil {
		return false, err
	}
	return true, nil
}

// HasAdmins checks if any admin users exist
func (as *AdminService) HasAdmins(ctx context.Context) (bool, error) {
	return as.repo.HasAdmins(ctx)
}

// ListAdmins returns every admin without password hashes
func (as *AdminService) ListAdmins(ctx context.Context) ([]models.PublicAdminUser, error) {
	admins, err := as.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if admins == nil {
		admins = []models.PublicAdminUser{}
	}
	return admins, nil
}

// GetAdminByEmail retrieves an admin by email
func (as *AdminService) GetAdminByEmail(ctx context.Context, email string) (*models.PublicAdminUser, error) {
	admin, err := as.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return admin.Public(), nil
}

// ChangePassword rotates the user's hash after checking the current password,
// then revokes every session including the caller's.
func (as *AdminService) ChangePassword(ctx context.Context, userID uuid.UUID, in models.ChangePasswordInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	admin, err := as.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := as.passwords.Verify(in.CurrentPassword, admin.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCurrentPasswordMismatch
	}

	return as.rotate(ctx, admin.ID, in.NewPassword)
}

// ResetPassword assigns a generated password, revokes every session and returns
// the new password. The caller shows it once.
func (as *AdminService) ResetPassword(ctx context.Context, email string) (string, error) {
	admin, err := as.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return as.resetPassword(ctx, admin.ID)
}

// ResetPasswordByID is ResetPassword keyed by id
func (as *AdminService) ResetPasswordByID(ctx context.Context, userID uuid.UUID) (string, error) {
	if _, err := as.repo.FindByID(ctx, userID); err != nil {
		return "", err
	}
	return as.resetPassword(ctx, userID)
}

func (as *AdminService) resetPassword(ctx context.Context, userID uuid.UUID) (string, error) {
	password, err := as.passwords.GenerateRandomPassword(ResetPasswordLength)
	if err != nil {
		return "", err
	}
	if err := as.rotate(ctx, userID, password); err != nil {
		return "", err
	}
	return password, nil
}

func (as *AdminService) rotate(ctx context.Context, userID uuid.UUID, password string) error {
	hash, err := as.passwords.Hash(password)
	if err != nil {
		return err
	}
	if err := as.repo.UpdatePassword(ctx, userID, hash, as.nowFunc().UTC()); err != nil {
		return err
	}
	if _, err := as.tokens.RevokeAllUserTokens(ctx, userID); err != nil {
		return err
	}

	logging.SecurityEvent(&as.logger, zerolog.InfoLevel, "password_rotated").
		Str("user_id", userID.String()).
		Send()
	return nil
}

// DeleteAdminUser revokes the user's sessions, then deletes the user. The
// foreign key removes the token rows.
func (as *AdminService) DeleteAdminUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := as.tokens.RevokeAllUserTokens(ctx, userID); err != nil {
		return err
	}
	if err := as.repo.Delete(ctx, userID); err != nil {
		return err
	}
	as.logger.Info().Str("user_id", userID.String()).Msg("Admin user deleted")
	return nil
}

// ensureNotSelf rejects operations an admin may not apply to their own account
func ensureNotSelf(op string, actingUserID, targetID uuid.UUID) error {
	if actingUserID == targetID {
		return apperr.New(apperr.KindValidation, op, "You cannot perform this action on your own account")
	}
	return nil
}

// DeleteOtherAdmin deletes targetID on behalf of actingUserID
func (as *AdminService) DeleteOtherAdmin(ctx context.Context, actingUserID, targetID uuid.UUID) error {
	if err := ensureNotSelf("admin.delete", actingUserID, targetID); err != nil {
		return err
	}
	return as.DeleteAdminUser(ctx, targetID)
}
