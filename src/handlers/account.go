package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/lms-admin/src/cookies"
	"github.com/khabaroff/lms-admin/src/models"
	"github.com/khabaroff/lms-admin/src/services"
)

// AccountHandler serves the signed-in admin's own profile and sessions
type AccountHandler struct {
	authService  *services.AuthService
	adminService *services.AdminService
	cookieOpts   cookies.Options
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(authService *services.AuthService, adminService *services.AdminService, cookieOpts cookies.Options) *AccountHandler {
	return &AccountHandler{
		authService:  authService,
		adminService: adminService,
		cookieOpts:   cookieOpts,
	}
}

// HandleProfile handles GET /api/admin/profile
func (h *AccountHandler) HandleProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	profile, err := h.authService.GetUserProfile(ctx, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile})
}

// HandleListSessions handles GET /api/admin/sessions
func (h *AccountHandler) HandleListSessions(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	sessions, err := h.authService.GetActiveSessions(ctx, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"total":    len(sessions),
	})
}

// HandleRevokeSession handles DELETE /api/admin/sessions/:id
func (h *AccountHandler) HandleRevokeSession(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.authService.RevokeSession(ctx, user.ID, sessionID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.Result{Success: true, Message: "Session revoked"})
}

// HandleLogoutAll handles POST /api/admin/sessions/logout-all. The caller's own
// session is among those revoked, so its cookie is cleared too.
func (h *AccountHandler) HandleLogoutAll(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.authService.LogoutAllDevices(ctx, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := cookies.New(c, h.cookieOpts).ClearAccessToken(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// HandleChangePassword handles PUT /api/admin/account/password
func (h *AccountHandler) HandleChangePassword(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.ChangePasswordInput
	if !bindJSON(c, "admin.change_password", &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.adminService.ChangePassword(ctx, user.ID, req); err != nil {
		respondError(c, err)
		return
	}
	if err := cookies.New(c, h.cookieOpts).ClearAccessToken(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.Result{Success: true, Message: "Password changed. Please sign in again."})
}
