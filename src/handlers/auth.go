package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/khabaroff/lms-admin/src/cookies"
	"github.com/khabaroff/lms-admin/src/logging"
	"github.com/khabaroff/lms-admin/src/models"
	"github.com/khabaroff/lms-admin/src/services"
)

// AuthHandler is the HTTP facade over AuthService. Each flow performs the service
// call and the matching cookie write or clear together.
type AuthHandler struct {
	authService *services.AuthService
	cookieOpts  cookies.Options
	logger      zerolog.Logger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *services.AuthService, cookieOpts cookies.Options) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookieOpts:  cookieOpts,
		logger:      logging.NewLogger("auth_handler"),
	}
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Redirect string `json:"redirect"`
}

// PerformLogin authenticates and sets the access-token cookie. If the cookie
// cannot be written the fresh session is revoked again.
func (h *AuthHandler) PerformLogin(ctx context.Context, c *gin.Context, creds models.Credentials) (*services.LoginResult, error) {
	res, err := h.authService.Login(ctx, creds, clientMeta(c))
	if err != nil {
		return nil, err
	}

	jar := cookies.New(c, h.cookieOpts)
	if err := jar.SetAccessToken(res.Token, h.authService.SessionDays()*24*60*60); err != nil {
		if _, revokeErr := h.authService.Strategy().Revoke(ctx, res.Token); revokeErr != nil {
			h.logger.Error().Err(revokeErr).Msg("Failed to revoke session after cookie failure")
		}
		return nil, err
	}
	return res, nil
}

// PerformLogout revokes the session server-side and clears the cookie
func (h *AuthHandler) PerformLogout(ctx context.Context, c *gin.Context) services.Result {
	jar := cookies.New(c, h.cookieOpts)
	res := h.authService.Logout(ctx, jar)
	if err := jar.ClearAccessToken(); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to clear session cookie on logout")
	}
	return res
}

// HandleLogin handles POST /api/auth/login
func (h *AuthHandler) HandleLogin(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, "auth.login", &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.PerformLogin(ctx, c, models.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    res.Success,
		"message":    res.Message,
		"user":       res.User,
		"expires_at": res.ExpiresAt,
		"redirect":   safeRedirect(req.Redirect),
	})
}

// HandleLogout handles POST /api/auth/logout. It always succeeds.
func (h *AuthHandler) HandleLogout(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	c.JSON(http.StatusOK, h.PerformLogout(ctx, c))
}

// HandleMe handles GET /api/auth/me
func (h *AuthHandler) HandleMe(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.authService.GetCurrentUser(ctx, cookies.New(c, h.cookieOpts))
	if err != nil {
		respondError(c, err)
		return
	}
	if user == nil {
		respondError(c, errUnauthenticated)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// HandleLoginPage serves GET /login. RouteGuard has already redirected signed-in users.
func (h *AuthHandler) HandleLoginPage(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(loginPage))
}

const loginPage = `<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>Sign in</title></head>
<body>
<form id="login">
  <label>Email <input name="email" type="email" autocomplete="username" required></label>
  <label>Password <input name="password" type="password" autocomplete="current-password" required></label>
  <button type="submit">Sign in</button>
  <p id="error" role="alert"></p>
</form>
<script>
document.getElementById('login').addEventListener('submit', async (e) => {
  e.preventDefault();
  const form = new FormData(e.target);
  const redirect = new URLSearchParams(location.search).get('redirect') || '';
  const res = await fetch('/api/auth/login', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({email: form.get('email'), password: form.get('password'), redirect}),
  });
  const body = await res.json();
  if (res.ok) { location.assign(body.redirect); return; }
  document.getElementById('error').textContent = body.message;
});
</script>
</body>
</html>
`
