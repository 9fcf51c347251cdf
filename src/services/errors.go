package services

import "github.com/khabaroff/lms-admin/src/apperr"

// Sentinel errors for explicit error handling. They are *apperr.Error values so
// handlers can map them to a status without knowing the service.

var (
	// ErrInvalidCredentials is returned for both an unknown email and a wrong
	// password so callers cannot enumerate accounts.
	ErrInvalidCredentials = apperr.New(apperr.KindUnauthorized, "auth.login", "Invalid email or password")

	// ErrCurrentPasswordMismatch indicates a password change with a wrong current password
	ErrCurrentPasswordMismatch = apperr.New(apperr.KindUnauthorized, "admin.change_password", "Current password is incorrect")

	// ErrSetupCompleted indicates the first-admin setup ran already
	ErrSetupCompleted = apperr.New(apperr.KindConflict, "admin.setup", "Initial setup already completed")

	// ErrSessionNotFound indicates the session does not exist, is not owned by the caller, or is already revoked
	ErrSessionNotFound = apperr.New(apperr.KindNotFound, "auth.revoke_session", "Session not found")

	// ErrWeakSigningSecret indicates a signing secret below the HS256 key size
	ErrWeakSigningSecret = apperr.New(apperr.KindValidation, "token.signed", "signing secret must be at least 32 characters")
)
