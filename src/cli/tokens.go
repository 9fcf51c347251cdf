package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newTokensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Inspect and maintain session tokens",
	}

	cmd.AddCommand(newTokensCleanupCmd())
	cmd.AddCommand(newTokensSessionsCmd())

	return cmd
}

func newTokensCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired and revoked tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			n, err := rt.svc.Cleanup.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d tokens\n", n)
			return nil
		},
	}
}

func newTokensSessionsCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List an admin's active sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			admin, err := rt.svc.Admins.GetAdminByEmail(cmd.Context(), email)
			if err != nil {
				return err
			}
			sessions, err := rt.svc.Auth.GetActiveSessions(cmd.Context(), admin.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintf(out, "No active sessions for %s\n", email)
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tEXPIRES\tLAST USED\tIP\tUSER AGENT")
			for _, s := range sessions {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					s.ID,
					s.CreatedAt.Format(time.RFC3339),
					s.ExpiresAt.Format(time.RFC3339),
					formatOptionalTime(s.LastUsedAt),
					s.IPAddress,
					s.UserAgent,
				)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email address (required)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
