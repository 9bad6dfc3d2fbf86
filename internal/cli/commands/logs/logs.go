package logs

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/afterdarksys/helpdesk/internal/apiclient"
	"github.com/afterdarksys/helpdesk/internal/authz"
	"github.com/afterdarksys/helpdesk/internal/cli/app"
	"github.com/afterdarksys/helpdesk/internal/models"
)

// NewCmd builds the logs command
func NewCmd(a *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the user log history",
		Long: `Show the audit history of user actions, newest first.

Only team heads and admins can see the log history.

Examples:
  # Show the latest 20 entries
  helpdesk logs --limit 20

  # Only entries for one user
  helpdesk logs --user alice`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			user, _ := cmd.Flags().GetString("user")

			ctx, cancel := a.Context(cmd.Context())
			defer cancel()

			if _, err := a.Allowed(ctx, authz.ActionViewAuditLog, "Only team heads and admins can view the log history."); err != nil {
				return err
			}
			token, err := a.Session.Token()
			if err != nil {
				return err
			}
			entries, err := a.Client.ListLogHistory(ctx, token)
			if apiclient.KindOf(err) == apiclient.KindSessionExpired {
				a.Session.Expire(ctx)
			}
			if err != nil {
				return err
			}

			shown := make([]models.LogEntry, 0, len(entries))
			for _, e := range entries {
				if user != "" && e.User != user {
					continue
				}
				shown = append(shown, e)
				if limit > 0 && len(shown) == limit {
					break
				}
			}

			p := a.Printer()
			if p.JSONMode() {
				return p.JSON(shown)
			}
			if len(shown) == 0 {
				fmt.Fprintln(a.Out, "No log entries.")
				return nil
			}
			rows := make([][]string, 0, len(shown))
			for _, e := range shown {
				rows = append(rows, []string{
					strconv.Itoa(e.ID), e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.User, e.Action, e.Details,
				})
			}
			return p.Table([]string{"ID", "TIME", "USER", "ACTION", "DETAILS"}, rows)
		},
	}
	cmd.Flags().Int("limit", 50, "Maximum number of entries (0 for all)")
	cmd.Flags().String("user", "", "Only entries for this username")
	return cmd
}
