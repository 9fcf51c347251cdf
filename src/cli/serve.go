package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/khabaroff/lms-admin/src/app"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides PORT)")

	return cmd
}

func runServe(parent context.Context, port int) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	if port > 0 {
		rt.cfg.Port = port
	}

	log.Info().
		Int("port", rt.cfg.Port).
		Str("driver", rt.cfg.StoreDriver).
		Str("log_level", rt.cfg.LogLevel).
		Msg("starting server")

	// Auto-seed admin user on first run (if ADMIN_EMAIL and ADMIN_PASSWORD are set)
	created, err := rt.svc.Admins.SeedInitialAdmin(ctx, rt.cfg.AdminEmail, rt.cfg.AdminPassword)
	if err != nil {
		log.Error().Err(err).Msg("failed to create initial admin user")
	} else if created {
		log.Info().Str("email", rt.cfg.AdminEmail).Msg("initial admin user created")
	}

	rt.svc.Cleanup.Start(ctx)

	router := app.NewRouter(rt.cfg, rt.svc, rt.backend.Health)
	defer router.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", rt.cfg.Port),
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Int("port", rt.cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("received shutdown signal")
	}

	rt.svc.Cleanup.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
		return err
	}

	log.Info().Msg("server shut down successfully")
	return nil
}
