package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/khabaroff/lms-admin/src/apperr"
	"github.com/khabaroff/lms-admin/src/middleware"
	"github.com/khabaroff/lms-admin/src/models"
)

const (
	requestTimeout = 10 * time.Second
	// maxUserAgentLength bounds the diagnostic string stored per session
	maxUserAgentLength = 512
	defaultRedirect    = "/dashboard"
)

var errUnauthenticated = apperr.New(apperr.KindUnauthorized, "handlers.current_user", "Not authenticated")

// respondError renders err as {"error": kind, "message": ...}. Validation errors
// carry per-field messages; database and internal causes are logged, never sent.
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	body := gin.H{
		"error":   string(apperr.KindOf(err)),
		"message": apperr.PublicMessage(err),
	}

	var typed *apperr.Error
	if errors.As(err, &typed) && len(typed.Fields) > 0 {
		body["fields"] = typed.Fields
	}

	if status >= http.StatusInternalServerError {
		zerolog.Ctx(c.Request.Context()).Error().
			Err(err).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		_ = c.Error(err)
	}

	c.AbortWithStatusJSON(status, body)
}

func badRequest(op, message string) error {
	return apperr.New(apperr.KindValidation, op, message)
}

// bindJSON decodes the body or renders a 400
func bindJSON(c *gin.Context, op string, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, badRequest(op, "Invalid request body"))
		return false
	}
	return true
}

// uuidParam parses a path parameter or renders a 400
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, apperr.Validation("handlers.param", map[string]string{name: "must be a UUID"}))
		return uuid.Nil, false
	}
	return id, true
}

// currentUser returns the identity RouteGuard attached, or renders a 401
func currentUser(c *gin.Context) (*models.AuthUser, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, errUnauthenticated)
		return nil, false
	}
	return user, true
}

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

func clientMeta(c *gin.Context) models.ClientMeta {
	return models.ClientMeta{UserAgent: truncateUTF8(c.Request.UserAgent(), maxUserAgentLength), IPAddress: c.ClientIP()}
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune
func truncateUTF8(s string, n int) string {
	s = strings.ToValidUTF8(s, "")
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// safeRedirect accepts only same-origin absolute paths
func safeRedirect(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, `\`) {
		return defaultRedirect
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" {
		return defaultRedirect
	}
	return raw
}
