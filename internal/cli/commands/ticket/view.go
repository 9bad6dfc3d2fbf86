package ticket

import (
	"github.com/spf13/cobra"

	"github.com/afterdarksys/helpdesk/internal/cli/app"
)

func newViewCmd(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "view [id|ticket-number]",
		Short: "View a ticket",
		Long: `View detailed information about a ticket visible to you.

Examples:
  # View by ticket number
  helpdesk ticket view TCK-0001

  # View by id
  helpdesk ticket view 12`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.Context(cmd.Context())
			defer cancel()

			if _, err := a.SignedIn(ctx); err != nil {
				return err
			}
			id, err := a.TicketID(ctx, args[0])
			if err != nil {
				return err
			}
			t, _ := a.Tickets.Tickets().Get(id)
			return printTicket(a.Printer(), &t)
		},
	}
}
