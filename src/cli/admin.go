package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/khabaroff/lms-admin/src/models"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin users",
	}

	cmd.AddCommand(newAdminCreateCmd())
	cmd.AddCommand(newAdminListCmd())
	cmd.AddCommand(newAdminResetPasswordCmd())

	return cmd
}

// ---------- admin create ----------

func newAdminCreateCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new admin user",
		Example: `  lms-admin admin create --email head@school.example --password 'S3cret!pass'
  lms-admin admin create --email head@school.example  # prompts for password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = promptPassword(cmd.ErrOrStderr()); err != nil {
					return err
				}
			}

			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			admin, err := rt.svc.Admins.CreateAdminUser(cmd.Context(), models.NewAdminInput{Email: email, Password: password})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created admin user %q (%s)\n", admin.Email, admin.ID)
			if strength := rt.svc.Passwords.CheckStrength(password); !strength.IsStrong {
				fmt.Fprintf(out, "Warning: weak password (score %d)\n", strength.Score)
				for _, hint := range strength.Feedback {
					fmt.Fprintf(out, "  - %s\n", hint)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "admin password (prompted if omitted)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func promptPassword(w io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("--password is required when stdin is not a terminal")
	}

	fmt.Fprint(w, "Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	fmt.Fprint(w, "Confirm password: ")
	confirm, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}

	if string(pw) != string(confirm) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(pw), nil
}

// ---------- admin list ----------

func newAdminListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all admin users",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			admins, err := rt.svc.Admins.ListAdmins(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(admins)
			}

			if len(admins) == 0 {
				fmt.Fprintln(out, "No admin users. Use 'lms-admin admin create' to create one.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "EMAIL\tID\tCREATED\tLAST LOGIN")
			for _, a := range admins {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.Email, a.ID, a.CreatedAt.Format(time.RFC3339), formatOptionalTime(a.LastLoginAt))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}

// ---------- admin reset-password ----------

func newAdminResetPasswordCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Replace an admin's password with a generated one and end their sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			password, err := rt.svc.Admins.ResetPassword(cmd.Context(), email)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "New password for %s: %s\n", email, password)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email address (required)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Format(time.RFC3339)
}
