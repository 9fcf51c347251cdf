package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/khabaroff/lms-admin/src/cookies"
	"github.com/khabaroff/lms-admin/src/services"
)

// Deps are the services the HTTP surface is built from
type Deps struct {
	Auth      *services.AuthService
	Admins    *services.AdminService
	Passwords *services.PasswordService
	Store     HealthChecker
	Cookies   cookies.Options
	// CredentialLimit guards login and setup; nil disables it
	CredentialLimit gin.HandlerFunc
}

// Register mounts every route. RouteGuard must already be installed on router
// for the /dashboard and /api/admin groups to be protected.
func Register(router gin.IRouter, d Deps) {
	authHandler := NewAuthHandler(d.Auth, d.Cookies)
	setupHandler := NewSetupHandler(d.Auth, d.Admins)
	accountHandler := NewAccountHandler(d.Auth, d.Admins, d.Cookies)
	adminHandler := NewAdminHandler(d.Auth, d.Admins, d.Passwords)
	dashboardHandler := NewDashboardHandler(d.Auth)
	healthHandler := NewHealthHandler(d.Store)

	limit := d.CredentialLimit
	if limit == nil {
		limit = func(c *gin.Context) { c.Next() }
	}

	router.GET("/health", healthHandler.HandleHealth)
	router.GET("/ready", healthHandler.HandleReady)

	router.GET("/login", authHandler.HandleLoginPage)

	authAPI := router.Group("/api/auth")
	{
		authAPI.POST("/login", limit, authHandler.HandleLogin)
		authAPI.POST("/logout", authHandler.HandleLogout)
		authAPI.GET("/me", authHandler.HandleMe)
	}

	setupAPI := router.Group("/api/setup")
	{
		setupAPI.GET("/status", setupHandler.HandleStatus)
		setupAPI.POST("", limit, setupHandler.HandleSetup)
	}

	router.GET("/dashboard", dashboardHandler.HandleDashboard)

	admin := router.Group("/api/admin")
	{
		admin.GET("/profile", accountHandler.HandleProfile)
		admin.GET("/sessions", accountHandler.HandleListSessions)
		admin.DELETE("/sessions/:id", accountHandler.HandleRevokeSession)
		admin.POST("/sessions/logout-all", accountHandler.HandleLogoutAll)
		admin.PUT("/account/password", accountHandler.HandleChangePassword)

		admin.GET("/users", adminHandler.HandleListUsers)
		admin.POST("/users", adminHandler.HandleCreateUser)
		admin.DELETE("/users/:id", adminHandler.HandleDeleteUser)
		admin.POST("/users/:id/reset-password", adminHandler.HandleResetPassword)

		admin.POST("/password-strength", adminHandler.HandlePasswordStrength)
		admin.POST("/tokens/cleanup", adminHandler.HandleCleanupTokens)
	}
}
