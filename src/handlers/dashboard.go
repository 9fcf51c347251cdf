package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/lms-admin/src/models"
	"github.com/khabaroff/lms-admin/src/services"
)

// DashboardHandler serves the landing view after sign-in
type DashboardHandler struct {
	authService *services.AuthService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(authService *services.AuthService) *DashboardHandler {
	return &DashboardHandler{authService: authService}
}

// DashboardData is the signed-in admin's overview
type DashboardData struct {
	User           *models.PublicAdminUser `json:"user"`
	ActiveSessions int                     `json:"active_sessions"`
}

// HandleDashboard handles GET /dashboard
func (dh *DashboardHandler) HandleDashboard(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	profile, err := dh.authService.GetUserProfile(ctx, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	sessions, err := dh.authService.GetActiveSessions(ctx, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, DashboardData{
		User:           profile,
		ActiveSessions: len(sessions),
	})
}
