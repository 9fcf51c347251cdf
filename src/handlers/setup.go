package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/lms-admin/src/models"
	"github.com/khabaroff/lms-admin/src/services"
)

// SetupHandler serves first-run admin creation
type SetupHandler struct {
	authService  *services.AuthService
	adminService *services.AdminService
}

// NewSetupHandler creates a new setup handler
func NewSetupHandler(authService *services.AuthService, adminService *services.AdminService) *SetupHandler {
	return &SetupHandler{authService: authService, adminService: adminService}
}

// HandleStatus handles GET /api/setup/status
func (h *SetupHandler) HandleStatus(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	first, err := h.authService.IsFirstAdmin(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"needs_setup": first})
}

// HandleSetup handles POST /api/setup. It answers 409 once any admin exists.
func (h *SetupHandler) HandleSetup(c *gin.Context) {
	var req models.NewAdminInput
	if !bindJSON(c, "admin.setup", &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	admin, err := h.adminService.SetupFirstAdmin(ctx, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": admin})
}
