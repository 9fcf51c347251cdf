package models

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/khabaroff/lms-admin/src/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialsValidate(t *testing.T) {
	tests := []struct {
		name      string
		creds     Credentials
		wantField string
	}{
		{"valid", Credentials{Email: "a@b.com", Password: "Secret123!"}, ""},
		{"missing email", Credentials{Password: "x"}, "email"},
		{"malformed email", Credentials{Email: "not-an-email", Password: "x"}, "email"},
		{"display name rejected", Credentials{Email: "Bob <a@b.com>", Password: "x"}, "email"},
		{"missing password", Credentials{Email: "a@b.com"}, "password"},
		{"password too long", Credentials{Email: "a@b.com", Password: strings.Repeat("x", 73)}, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, apperr.KindValidation))

			var typed *apperr.Error
			require.ErrorAs(t, err, &typed)
			assert.Contains(t, typed.Fields, tt.wantField)
		})
	}
}

func TestChangePasswordInputValidate(t *testing.T) {
	assert.NoError(t, ChangePasswordInput{CurrentPassword: "a", NewPassword: "b"}.Validate())
	assert.Error(t, ChangePasswordInput{NewPassword: "b"}.Validate())
	assert.Error(t, ChangePasswordInput{CurrentPassword: "a"}.Validate())
}

func TestAuthTokenIsActive(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tok := AuthToken{ExpiresAt: now.Add(time.Minute)}

	assert.True(t, tok.IsActive(now))
	assert.False(t, tok.IsActive(now.Add(time.Minute)), "expiry instant itself is not active")

	tok.IsRevoked = true
	assert.False(t, tok.IsActive(now))
}

func TestAdminUserPublic(t *testing.T) {
	u := &AdminUser{ID: uuid.New(), Email: "a@b.com", PasswordHash: "$2a$12$hash"}
	pub := u.Public()

	assert.Equal(t, u.ID, pub.ID)
	assert.Equal(t, u.Email, pub.Email)

	var nilUser *AdminUser
	assert.Nil(t, nilUser.Public())
}
