package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/khabaroff/lms-admin/src/cookies"
	"github.com/khabaroff/lms-admin/src/logging"
	"github.com/khabaroff/lms-admin/src/models"
)

// UserKey is the gin context key holding the *models.AuthUser of a guarded request
const UserKey = "auth_user"

// SessionValidator resolves a session token to its owner. It returns (nil, nil)
// for any token that is missing, expired or revoked, and an error only when the
// session store could not be consulted.
type SessionValidator interface {
	ResolveSession(ctx context.Context, token string) (*models.AuthUser, error)
}

// GuardConfig classifies request paths. Prefixes match whole path segments, so
// "/login" covers "/login/reset" but not "/loginx".
type GuardConfig struct {
	ProtectedPrefixes []string
	AuthPrefixes      []string
	ExcludedPrefixes  []string
	LoginPath         string
	HomePath          string
	Cookies           cookies.Options
}

// DefaultGuardConfig protects the dashboard and the admin API
func DefaultGuardConfig(opts cookies.Options) GuardConfig {
	return GuardConfig{
		ProtectedPrefixes: []string{"/dashboard", "/api/admin"},
		AuthPrefixes:      []string{"/login"},
		ExcludedPrefixes:  []string{"/static", "/assets", "/favicon.ico"},
		LoginPath:         "/login",
		HomePath:          "/dashboard",
		Cookies:           opts,
	}
}

// RouteGuard is the perimeter check that runs before every handler.
//
//	protected, no cookie       -> 302 /login?redirect=<path>
//	protected, invalid token   -> 302 /login, auth cookies cleared
//	protected, store failure   -> 503, cookies untouched
//	protected, valid token     -> next, user stored under UserKey
//	auth route, valid token    -> 302 /dashboard
//	anything else              -> next
//
// It never touches session state except to clear a cookie it has just found invalid.
func RouteGuard(validator SessionValidator, cfg GuardConfig) gin.HandlerFunc {
	logger := logging.NewLogger("route_guard")

	return func(c *gin.Context) {
		path := c.Request.URL.Path

		if matchesAny(path, cfg.ExcludedPrefixes) {
			c.Next()
			return
		}

		protected := matchesAny(path, cfg.ProtectedPrefixes)
		authRoute := matchesAny(path, cfg.AuthPrefixes)
		if !protected && !authRoute {
			c.Next()
			return
		}

		jar := cookies.New(c, cfg.Cookies)
		token, hasToken := jar.AccessToken()

		if authRoute {
			if hasToken {
				user, err := validator.ResolveSession(c.Request.Context(), token)
				if err != nil {
					logger.Error().Err(err).Str("path", path).Msg("Session lookup failed")
				}
				if user != nil {
					c.Redirect(http.StatusFound, cfg.HomePath)
					c.Abort()
					return
				}
			}
			c.Next()
			return
		}

		if !hasToken {
			target := cfg.LoginPath + "?" + url.Values{"redirect": {path}}.Encode()
			c.Redirect(http.StatusFound, target)
			c.Abort()
			return
		}

		user, err := validator.ResolveSession(c.Request.Context(), token)
		if err != nil {
			logger.Error().Err(err).
				Str("path", path).
				Str("request_id", GetRequestID(c)).
				Msg("Session lookup failed")
			c.Header("Retry-After", "5")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error":   "unavailable",
				"message": "Session could not be verified, try again shortly",
			})
			return
		}
		if user == nil {
			if err := jar.ClearAll(); err != nil {
				logger.Warn().Err(err).Msg("Failed to clear invalid session cookie")
			}
			logging.SecurityEvent(&logger, zerolog.InfoLevel, "session_rejected").
				Str("path", path).
				Str("ip", c.ClientIP()).
				Str("request_id", GetRequestID(c)).
				Send()
			c.Redirect(http.StatusFound, cfg.LoginPath)
			c.Abort()
			return
		}

		c.Set(UserKey, user)
		c.Next()
	}
}

// CurrentUser returns the identity RouteGuard attached to the request
func CurrentUser(c *gin.Context) (*models.AuthUser, bool) {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.AuthUser)
	return user, ok && user != nil
}

func matchesAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}
