// Package cookies wraps the request/response cookie jar for session cookies.
package cookies

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/lms-admin/src/apperr"
)

const (
	// AccessTokenName carries the opaque session token
	AccessTokenName = "auth_token"
	// RefreshTokenName is reserved; no login flow writes it yet
	RefreshTokenName = "refresh_token"

	// AccessTokenMaxAge is 7 days in seconds
	AccessTokenMaxAge = 7 * 24 * 60 * 60
	// RefreshTokenMaxAge is 30 days in seconds
	RefreshTokenMaxAge = 30 * 24 * 60 * 60

	defaultPath = "/"
)

var errHeadersWritten = errors.New("response headers already written")

// Options are the attributes shared by every cookie the service writes
type Options struct {
	Domain string
	// Secure is set in production only
	Secure bool
}

// Service reads and writes auth cookies on one gin request. Every cookie is
// HttpOnly with SameSite=Lax and Path=/.
type Service struct {
	c    *gin.Context
	opts Options
}

// New binds a cookie service to the request
func New(c *gin.Context, opts Options) *Service {
	return &Service{c: c, opts: opts}
}

// SetAccessToken writes the session cookie. A non-positive maxAge means 7 days.
func (s *Service) SetAccessToken(token string, maxAge int) error {
	if maxAge <= 0 {
		maxAge = AccessTokenMaxAge
	}
	return s.SetCookie(AccessTokenName, token, maxAge)
}

// SetRefreshToken writes the refresh slot. A non-positive maxAge means 30 days.
func (s *Service) SetRefreshToken(token string, maxAge int) error {
	if maxAge <= 0 {
		maxAge = RefreshTokenMaxAge
	}
	return s.SetCookie(RefreshTokenName, token, maxAge)
}

// AccessToken returns the session token, if present
func (s *Service) AccessToken() (string, bool) {
	return s.Cookie(AccessTokenName)
}

// RefreshToken returns the refresh token, if present
func (s *Service) RefreshToken() (string, bool) {
	return s.Cookie(RefreshTokenName)
}

func (s *Service) ClearAccessToken() error {
	return s.ClearCookie(AccessTokenName)
}

func (s *Service) ClearRefreshToken() error {
	return s.ClearCookie(RefreshTokenName)
}

// ClearAll expires both auth cookies. It is safe when neither exists.
func (s *Service) ClearAll() error {
	return errors.Join(s.ClearAccessToken(), s.ClearRefreshToken())
}

// SetCookie writes an auth-attributed cookie
func (s *Service) SetCookie(name, value string, maxAge int) error {
	if err := s.write(name, value, maxAge); err != nil {
		return apperr.WithCause(apperr.KindToken, "cookies.set", "failed to set cookie",
			apperr.Wrap(apperr.KindInternal, "cookies.write", "cookie write failed", err))
	}
	return nil
}

// ClearCookie expires a cookie immediately
func (s *Service) ClearCookie(name string) error {
	if err := s.write(name, "", -1); err != nil {
		return apperr.WithCause(apperr.KindToken, "cookies.clear", "failed to clear cookie",
			apperr.Wrap(apperr.KindInternal, "cookies.write", "cookie write failed", err))
	}
	return nil
}

// Cookie reads a cookie. Missing or malformed cookies read as absent.
func (s *Service) Cookie(name string) (string, bool) {
	if s.c == nil || s.c.Request == nil {
		return "", false
	}
	v, err := s.c.Cookie(name)
	if err != nil || v == "" {
		return "", false
	}
	return v, true
}

func (s *Service) HasCookie(name string) bool {
	_, ok := s.Cookie(name)
	return ok
}

// All returns every request cookie by name. The last duplicate wins.
func (s *Service) All() map[string]string {
	out := make(map[string]string)
	if s.c == nil || s.c.Request == nil {
		return out
	}
	for _, ck := range s.c.Request.Cookies() {
		out[ck.Name] = ck.Value
	}
	return out
}

func (s *Service) write(name, value string, maxAge int) error {
	if s.c == nil || s.c.Writer == nil {
		return errors.New("no response writer")
	}
	if s.c.Writer.Written() {
		return errHeadersWritten
	}
	if err := (&http.Cookie{Name: name, Value: value, Domain: s.opts.Domain}).Valid(); err != nil {
		return err
	}

	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(name, value, maxAge, defaultPath, s.opts.Domain, s.opts.Secure, true)
	return nil
}
