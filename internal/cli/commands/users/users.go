package users

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/afterdarksys/helpdesk/internal/apiclient"
	"github.com/afterdarksys/helpdesk/internal/authz"
	"github.com/afterdarksys/helpdesk/internal/cli/app"
	"github.com/afterdarksys/helpdesk/internal/cli/output"
	"github.com/afterdarksys/helpdesk/internal/models"
)

// NewCmd builds the users command group
func NewCmd(a *app.App) *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Browse user rosters",
		Long: `Browse the accounts known to the helpdesk, grouped by role.

Only team heads and admins can see the rosters.

Examples:
  # Show every roster tab
  helpdesk users roster

  # Show only the tech support tab
  helpdesk users roster --tab tech`,
	}
	usersCmd.AddCommand(newRosterCmd(a))
	return usersCmd
}

func newRosterCmd(a *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Show the user rosters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tab, _ := cmd.Flags().GetString("tab")

			ctx, cancel := a.Context(cmd.Context())
			defer cancel()

			if _, err := a.Allowed(ctx, authz.ActionViewRosters, "Only team heads and admins can view rosters."); err != nil {
				return err
			}
			token, err := a.Session.Token()
			if err != nil {
				return err
			}
			list, err := a.Client.ListUsers(ctx, token)
			if apiclient.KindOf(err) == apiclient.KindSessionExpired {
				a.Session.Expire(ctx)
			}
			if err != nil {
				return err
			}
			rosters := authz.BuildRosters(list, a.Resolver)

			tabs := []rosterTab{
				{"users", "Users", rosters.Users},
				{"operations", "Operations", rosters.Operations},
				{"tech", "Tech Support", rosters.TechSupport},
			}

			if tab != "" {
				var picked []rosterTab
				for _, t := range tabs {
					if t.key == tab {
						picked = append(picked, t)
					}
				}
				if len(picked) == 0 {
					return fmt.Errorf("unknown tab %q (want users, operations or tech)", tab)
				}
				tabs = picked
			}

			p := a.Printer()

			if p.JSONMode() {
				if tab != "" {
					return p.JSON(nonNil(tabs[0].users))
				}
				return p.JSON(rosters)
			}
			for i, t := range tabs {
				if i > 0 {
					fmt.Fprintln(a.Out)
				}
				fmt.Fprintf(a.Out, "%s (%d)\n", t.title, len(t.users))
				if err := table(p, t.users); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().String("tab", "", "Show a single tab: users, operations or tech")
	return cmd
}

type rosterTab struct {
	key, title string
	users      []models.User
}

func table(p *output.Printer, us []models.User) error {
	rows := make([][]string, 0, len(us))
	for _, u := range us {
		rows = append(rows, []string{strconv.Itoa(u.ID), u.Username, u.Email, u.Department, u.AccessLevel})
	}
	return p.Table([]string{"ID", "USERNAME", "EMAIL", "DEPARTMENT", "ACCESS LEVEL"}, rows)
}

func nonNil(us []models.User) []models.User {
	if us == nil {
		return []models.User{}
	}
	return us
}
