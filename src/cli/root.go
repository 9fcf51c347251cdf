// Package cli is the lms-admin command tree.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/khabaroff/lms-admin/src/app"
	"github.com/khabaroff/lms-admin/src/config"
	"github.com/khabaroff/lms-admin/src/handlers"
	"github.com/khabaroff/lms-admin/src/logging"
)

var cfgFile string

// Execute creates the root command tree and runs it
func Execute(version string) error {
	handlers.Version = version
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lms-admin",
		Short: "School LMS admin server",
		Long: `lms-admin serves the administrator sign-in and session API of the school LMS.

Configuration is read from .env, an optional YAML file and environment variables.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile != "" {
				return os.Setenv("CONFIG_FILE", cfgFile)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (overrides CONFIG_FILE)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newAdminCmd())
	cmd.AddCommand(newTokensCmd())

	return cmd
}

// runtime is everything a command needs to talk to the store
type runtime struct {
	cfg     *config.Config
	backend *app.Backend
	svc     *app.Services
}

func (r *runtime) Close() error {
	if r.svc != nil && r.svc.Cleanup != nil {
		r.svc.Cleanup.Stop()
	}
	return r.backend.Close()
}

// openRuntime is replaced in tests
var openRuntime = func(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logging.Setup(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	backend, err := app.OpenBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc, err := app.NewServices(cfg, backend.Store, nil)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	return &runtime{cfg: cfg, backend: backend, svc: svc}, nil
}
