// Package app assembles the store, services and HTTP router from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/khabaroff/lms-admin/src/config"
	"github.com/khabaroff/lms-admin/src/cookies"
	"github.com/khabaroff/lms-admin/src/database"
	"github.com/khabaroff/lms-admin/src/handlers"
	"github.com/khabaroff/lms-admin/src/repositories"
	"github.com/khabaroff/lms-admin/src/repositories/postgres"
	"github.com/khabaroff/lms-admin/src/repositories/sqlite"
	"github.com/khabaroff/lms-admin/src/services"
)

const connectTimeout = 30 * time.Second

// Backend is an open store and its health probe
type Backend struct {
	Store  repositories.Store
	Health handlers.HealthChecker
	close func() error
}

// Close releases the underlying connection pool
func (b *Backend) Close() error {
	if b == nil || b.close == nil {
		return nil
	}
	return b.close()
}

// OpenBackend connects to the configured store driver and applies its schema
func OpenBackend(ctx context.Context, cfg *config.Config) (*Backend, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	switch cfg.StoreDriver {
	case config.DriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: sqlite.NewStore(db.DB()), Health: db, close: db.Close}, nil
	case config.DriverPostgres:
		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: postgres.NewStore(db), Health: db, close: db.Close}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Services holds every domain service built over one store
type Services struct {
	Passwords *services.PasswordService
	Tokens    *services.TokenService
	Auth      *services.AuthService
	Admins    *services.AdminService
	Cleanup   *services.CleanupService
}

// NewServices wires the domain services. passwords may be nil for the default cost.
func NewServices(cfg *config.Config, store repositories.Store, passwords *services.PasswordService) (*Services, error) {
	if passwords == nil {
		passwords = services.NewPasswordService()
	}
	tokens := services.NewTokenService(store.Tokens)

	var strategy services.TokenStrategy
	if cfg.SessionStrategy == config.StrategySigned {
		signed, err := services.NewSignedStrategy(cfg.JWTSecret)
		if err != nil {
			return nil, err
		}
		strategy = signed
	}

	auth := services.NewAuthService(store.Admins, passwords, tokens, strategy).
		WithSessionDays(cfg.SessionTTLDays)

	log.Info().
		Str("strategy", auth.Strategy().Name()).
		Int("session_days", auth.SessionDays()).
		Msg("auth service initialized")

	return &Services{
		Passwords: passwords,
		Tokens:    tokens,
		Auth:      auth,
		Admins:    services.NewAdminService(store.Admins, tokens, passwords),
		Cleanup:   services.NewCleanupService(tokens, cfg.EnableTokenCleanup, cfg.TokenCleanupInterval),
	}, nil
}

// CookieOptions derives the session cookie attributes from configuration
func CookieOptions(cfg *config.Config) cookies.Options {
	return cookies.Options{Domain: cfg.CookieDomain, Secure: cfg.IsProduction()}
}
