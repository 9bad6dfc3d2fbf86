package commands

import (
	"github.com/spf13/cobra"

	"github.com/afterdarksys/helpdesk/internal/cli/app"
	"github.com/afterdarksys/helpdesk/internal/cli/commands/approval"
	"github.com/afterdarksys/helpdesk/internal/cli/commands/auth"
	"github.com/afterdarksys/helpdesk/internal/cli/commands/config"
	"github.com/afterdarksys/helpdesk/internal/cli/commands/dashboard"
	"github.com/afterdarksys/helpdesk/internal/cli/commands/logs"
	"github.com/afterdarksys/helpdesk/internal/cli/commands/profile"
	"github.com/afterdarksys/helpdesk/internal/cli/commands/ticket"
	"github.com/afterdarksys/helpdesk/internal/cli/commands/users"
)

// NewRootCmd builds the command tree around a
func NewRootCmd(a *app.App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "helpdesk",
		Short: "Helpdesk ticketing CLI",
		Long: `A CLI client for the helpdesk ticketing service.

This tool allows you to:
  - Sign in and see the dashboard for your role
  - Submit tickets and rate them once they are closed
  - Approve or reject tickets as the operations team
  - Close tickets with a remark and team attribution
  - Review user rosters and the audit log as team head or admin`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.Init()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&a.ConfigFile, "config", "", "config file (default is $HOME/.helpdesk/config.yaml)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (default http://localhost:8000/api)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (table, json)")
	rootCmd.PersistentFlags().String("session-backend", "", "Session store (file, redis, memory)")

	// Bind flags to viper
	a.Viper.BindPFlag("api_url", rootCmd.PersistentFlags().Lookup("api-url"))
	a.Viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	a.Viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	a.Viper.BindPFlag("session.backend", rootCmd.PersistentFlags().Lookup("session-backend"))

	// Add subcommands
	rootCmd.AddCommand(auth.NewCmd(a))
	rootCmd.AddCommand(dashboard.NewCmd(a))
	rootCmd.AddCommand(ticket.NewCmd(a))
	rootCmd.AddCommand(approval.NewCmd(a))
	rootCmd.AddCommand(profile.NewCmd(a))
	rootCmd.AddCommand(users.NewCmd(a))
	rootCmd.AddCommand(logs.NewCmd(a))
	rootCmd.AddCommand(config.NewCmd(a))
	return rootCmd
}

// Execute runs the command line and reports any error on stderr
func Execute() error {
	a := app.New()
	defer a.Close()

	err := NewRootCmd(a).Execute()
	a.Report(err)
	return err
}
