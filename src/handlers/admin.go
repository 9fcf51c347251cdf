package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/lms-admin/src/models"
	"github.com/khabaroff/lms-admin/src/services"
)

// AdminHandler handles admin user management and maintenance endpoints
type AdminHandler struct {
	authService     *services.AuthService
	adminService    *services.AdminService
	passwordService *services.PasswordService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(authService *services.AuthService, adminService *services.AdminService, passwordService *services.PasswordService) *AdminHandler {
	return &AdminHandler{
		authService:     authService,
		adminService:    adminService,
		passwordService: passwordService,
	}
}

// UserListResponse represents a list of admins with total count
type UserListResponse struct {
	Users []models.PublicAdminUser `json:"users"`
	Total int                      `json:"total"`
}

// PasswordStrengthRequest is the body of POST /api/admin/password-strength
type PasswordStrengthRequest struct {
	Password string `json:"password"`
}

// HandleListUsers handles GET /api/admin/users
func (ah *AdminHandler) HandleListUsers(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := ah.adminService.ListAdmins(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, UserListResponse{Users: users, Total: len(users)})
}

// HandleCreateUser handles POST /api/admin/users. Strength is reported, not enforced.
func (ah *AdminHandler) HandleCreateUser(c *gin.Context) {
	var req models.NewAdminInput
	if !bindJSON(c, "admin.create", &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := ah.adminService.CreateAdminUser(ctx, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"user":              user,
		"password_strength": ah.passwordService.CheckStrength(req.Password),
	})
}

// HandleDeleteUser handles DELETE /api/admin/users/:id
func (ah *AdminHandler) HandleDeleteUser(c *gin.Context) {
	acting, ok := currentUser(c)
	if !ok {
		return
	}
	targetID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := ah.adminService.DeleteOtherAdmin(ctx, acting.ID, targetID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.Result{Success: true, Message: "Admin user deleted"})
}

// HandleResetPassword handles POST /api/admin/users/:id/reset-password. The
// generated password is returned once and never stored in clear.
func (ah *AdminHandler) HandleResetPassword(c *gin.Context) {
	targetID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	password, err := ah.adminService.ResetPasswordByID(ctx, targetID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"password": password,
	})
}

// HandlePasswordStrength handles POST /api/admin/password-strength
func (ah *AdminHandler) HandlePasswordStrength(c *gin.Context) {
	var req PasswordStrengthRequest
	if !bindJSON(c, "password.strength", &req) {
		return
	}
	c.JSON(http.StatusOK, ah.passwordService.CheckStrength(req.Password))
}

// HandleCleanupTokens handles POST /api/admin/tokens/cleanup
func (ah *AdminHandler) HandleCleanupTokens(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	n, err := ah.authService.CleanupExpiredTokens(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
