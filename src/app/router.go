package app

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/khabaroff/lms-admin/src/config"
	"github.com/khabaroff/lms-admin/src/handlers"
	"github.com/khabaroff/lms-admin/src/middleware"
)

// Router is the HTTP engine plus the background state its middleware owns
type Router struct {
	Engine  *gin.Engine
	limiter *middleware.IPRateLimiter
}

// Stop releases the rate limiter's sweeper
func (r *Router) Stop() {
	if r.limiter != nil {
		r.limiter.Stop()
	}
}

// NewRouter builds the middleware chain and mounts every route
func NewRouter(cfg *config.Config, svc *Services, health handlers.HealthChecker) *Router {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(gin.Recovery())

	// Browsers on other origins need credentials to carry the session cookie
	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	cookieOpts := CookieOptions(cfg)
	router.Use(middleware.RouteGuard(svc.Auth, middleware.DefaultGuardConfig(cookieOpts)))

	limiter := middleware.NewIPRateLimiter(middleware.RateLimitConfig{
		RequestsPerMinute: cfg.LoginRateLimitPerMinute,
		Burst:             cfg.LoginRateLimitBurst,
	})

	handlers.Register(router, handlers.Deps{
		Auth:            svc.Auth,
		Admins:          svc.Admins,
		Passwords:       svc.Passwords,
		Store:           health,
		Cookies:         cookieOpts,
		CredentialLimit: limiter.Middleware(),
	})

	return &Router{Engine: router, limiter: limiter}
}
