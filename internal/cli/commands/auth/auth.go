package auth

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/afterdarksys/helpdesk/internal/authz"
	"github.com/afterdarksys/helpdesk/internal/cli/app"
	"github.com/afterdarksys/helpdesk/internal/models"
)

// NewCmd builds the auth command group
func NewCmd(a *app.App) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication commands",
		Long: `Manage authentication with the helpdesk API.

Examples:
  # Login interactively
  helpdesk auth login

  # Login non-interactively
  helpdesk auth login --username alice --password s3cret

  # Check login status
  helpdesk auth status

  # Create an account
  helpdesk auth register --username dana --password s3cret --email dana@example.com

  # Logout
  helpdesk auth logout`,
	}

	authCmd.AddCommand(newLoginCmd(a))
	authCmd.AddCommand(newLogoutCmd(a))
	authCmd.AddCommand(newStatusCmd(a))
	authCmd.AddCommand(newRegisterCmd(a))
	authCmd.AddCommand(newResetPasswordCmd(a))
	return authCmd
}

func newLoginCmd(a *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to the helpdesk API",
		Long: `Login with a username and password.

Missing values are prompted for. The session is kept until logout or until
the access token expires.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")

			var err error
			if username == "" {
				if username, err = a.Prompt("Username", ""); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = a.Prompt("Password", ""); err != nil {
					return err
				}
			}

			ctx, cancel := a.Context(cmd.Context())
			defer cancel()

			st, err := a.Session.Login(ctx, username, password)
			if err != nil {
				return err
			}

			p := a.Printer()
			if p.JSONMode() {
				return p.JSON(statusView(st.Profile, st.ExpiresAt, true))
			}
			fmt.Fprintf(a.Out, "Signed in as %s (%s)\n", st.Username(), st.Role().DisplayName())
			fmt.Fprintf(a.Out, "Start at: %s\n", authz.Landing(st.Role()))
			return nil
		},
	}
	cmd.Flags().StringP("username", "u", "", "Username")
	cmd.Flags().StringP("password", "p", "", "Password")
	return cmd
}

func newLogoutCmd(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Logout from the helpdesk API",
		Long: `Logout and clear stored credentials.

This removes the stored token and profile.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.Context(cmd.Context())
			defer cancel()

			if err := a.Session.Logout(ctx); err != nil {
				return err
			}
			a.Printer().Printf("Signed out.\n")
			return nil
		},
	}
}

type status struct {
	SignedIn  bool             `json:"signed_in"`
	Profile   *models.Profile  `json:"profile,omitempty"`
	ExpiresAt *time.Time       `json:"expires_at,omitempty"`
	Menu      []authz.MenuItem `json:"menu,omitempty"`
}

func statusView(p models.Profile, exp time.Time, signedIn bool) status {
	s := status{SignedIn: signedIn, Profile: &p, Menu: authz.Menu(p.Role)}
	if !exp.IsZero() {
		s.ExpiresAt = &exp
	}
	return s
}

func newStatusCmd(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check authentication status",
		Long: `Check your current authentication status.

Shows the signed-in user, the resolved role and when the session expires.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.Context(cmd.Context())
			defer cancel()

			p := a.Printer()
			st, err := a.SignedIn(ctx)
			if err != nil {
				if p.JSONMode() {
					return p.JSON(status{SignedIn: false})
				}
				fmt.Fprintln(a.Out, "Status:  Not signed in")
				return nil
			}

			if p.JSONMode() {
				return p.JSON(statusView(st.Profile, st.ExpiresAt, true))
			}
			expires := "unknown"
			if !st.ExpiresAt.IsZero() {
				expires = st.ExpiresAt.Local().Format(time.RFC1123)
			}
			return p.Fields([][2]string{
				{"Status", "Authenticated"},
				{"User", st.Username()},
				{"Email", st.Profile.Email},
				{"Role", st.Role().DisplayName()},
				{"Session", "Valid until " + expires},
			})
		},
	}
}

func newRegisterCmd(a *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in models.RegisterInput
			in.Username, _ = cmd.Flags().GetString("username")
			in.Password, _ = cmd.Flags().GetString("password")
			in.Email, _ = cmd.Flags().GetString("email")

			ctx, cancel := a.Context(cmd.Context())
			defer cancel()

			if err := a.Session.Register(ctx, in); err != nil {
				return err
			}
			a.Printer().Printf("Account %s created. You can now sign in.\n", in.Username)
			return nil
		},
	}
	cmd.Flags().StringP("username", "u", "", "Username (required)")
	cmd.Flags().StringP("password", "p", "", "Password (required)")
	cmd.Flags().String("email", "", "Email address")
	return cmd
}

func newResetPasswordCmd(a *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Request a password reset email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")

			ctx, cancel := a.Context(cmd.Context())
			defer cancel()

			msg, err := a.Session.ResetPassword(ctx, email)
			if err != nil {
				return err
			}
			p := a.Printer()
			if p.JSONMode() {
				return p.JSON(map[string]string{"message": msg})
			}
			fmt.Fprintln(a.Out, p.Clean(msg))
			return nil
		},
	}
	cmd.Flags().String("email", "", "Account email address (required)")
	return cmd
}
