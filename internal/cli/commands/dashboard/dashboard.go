package dashboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/afterdarksys/helpdesk/internal/authz"
	"github.com/afterdarksys/helpdesk/internal/cli/app"
	"github.com/afterdarksys/helpdesk/internal/models"
	"github.com/afterdarksys/helpdesk/internal/tickets"
)

type summary struct {
	User    string           `json:"user"`
	Role    models.Role      `json:"role"`
	Landing authz.View       `json:"landing"`
	Menu    []authz.MenuItem `json:"menu"`
	Stats   *tickets.Stats   `json:"stats,omitempty"`
}

// NewCmd builds the dashboard command
func NewCmd(a *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"home"},
		Short:   "Show the dashboard for your role",
		Long: `Show the landing view, the menu and the ticket counters for the
signed-in role.

Examples:
  # Show your dashboard
  helpdesk dashboard

  # Counters over every ticket visible to you
  helpdesk dashboard --view all --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, _ := cmd.Flags().GetString("view")
			scope, err := tickets.ParseScope(view)
			if err != nil {
				return err
			}

			ctx, cancel := a.Context(cmd.Context())
			defer cancel()

			st, err := a.SignedIn(ctx)
			if err != nil {
				return err
			}
			role := st.Role()
			out := summary{
				User:    st.Username(),
				Role:    role,
				Landing: authz.Landing(role),
				Menu:    authz.Menu(role),
			}

			// the admin console has no ticket counters
			if authz.Visible(role, authz.ViewDashboard) {
				ts, err := a.Tickets.Refresh(ctx)
				if err != nil {
					return err
				}
				stats := tickets.Compute(tickets.ForScope(scope, role, st.Username(), ts))
				out.Stats = &stats
			}

			p := a.Printer()
			if p.JSONMode() {
				return p.JSON(out)
			}

			labels := make([]string, 0, len(out.Menu))
			for _, item := range out.Menu {
				labels = append(labels, item.Label)
			}
			fmt.Fprintf(a.Out, "%s (%s)\n", p.Clean(out.User), role.DisplayName())
			fmt.Fprintf(a.Out, "Menu: %s\n\n", strings.Join(labels, " | "))
			if out.Stats == nil {
				fmt.Fprintf(a.Out, "Start at: %s\n", out.Landing)
				return nil
			}

			rows := [][]string{{"Total", strconv.Itoa(out.Stats.Total)}}
			for _, s := range models.TicketStatuses {
				rows = append(rows, []string{s.String(), strconv.Itoa(out.Stats.Count(s))})
			}
			rows = append(rows,
				[]string{"Rated", strconv.Itoa(out.Stats.Rated)},
				[]string{"Average Rating", fmt.Sprintf("%.1f", out.Stats.AverageRating)},
			)
			return p.Table([]string{"TICKETS", "COUNT"}, rows)
		},
	}
	cmd.Flags().String("view", "", "Projection: mine, others or all (default depends on role)")
	return cmd
}
