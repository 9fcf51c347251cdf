package models

import (
	"net/mail"
	"strings"

	"github.com/khabaroff/lms-admin/src/apperr"
)

// MaxPasswordBytes is the bcrypt input limit
const MaxPasswordBytes = 72

// Credentials is the login request body
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the shape of the credentials. It never checks password strength.
func (c Credentials) Validate() error {
	fields := map[string]string{}

	email := strings.TrimSpace(c.Email)
	switch {
	case email == "":
		fields["email"] = "email is required"
	case !isEmail(email):
		fields["email"] = "email is invalid"
	}

	switch {
	case c.Password == "":
		fields["password"] = "password is required"
	case len(c.Password) > MaxPasswordBytes:
		fields["password"] = "password must be at most 72 bytes"
	}

	if len(fields) > 0 {
		return apperr.Validation("credentials.validate", fields)
	}
	return nil
}

// NewAdminInput is the body for creating an admin
type NewAdminInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate applies the same shape rules as login
func (in NewAdminInput) Validate() error {
	return Credentials(in).Validate()
}

// ChangePasswordInput is the body for rotating one's own password
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (in ChangePasswordInput) Validate() error {
	fields := map[string]string{}
	if in.CurrentPassword == "" {
		fields["current_password"] = "current password is required"
	}
	switch {
	case in.NewPassword == "":
		fields["new_password"] = "new password is required"
	case len(in.NewPassword) > MaxPasswordBytes:
		fields["new_password"] = "password must be at most 72 bytes"
	}
	if len(fields) > 0 {
		return apperr.Validation("password.change", fields)
	}
	return nil
}

func isEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
