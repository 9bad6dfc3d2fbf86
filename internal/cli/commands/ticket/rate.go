package ticket

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/afterdarksys/helpdesk/internal/apiclient"
	"github.com/afterdarksys/helpdesk/internal/authz"
	"github.com/afterdarksys/helpdesk/internal/cli/app"
)

func newRateCmd(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "rate [id|ticket-number] [stars]",
		Short: "Rate a closed ticket",
		Long: `Rate one of your closed tickets from 1 to 5 stars.

Examples:
  # Give a closed ticket five stars
  helpdesk ticket rate TCK-0001 5`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.Context(cmd.Context())
			defer cancel()

			if _, err := a.Allowed(ctx, authz.ActionRateTicket, "Only the ticket owner can rate it."); err != nil {
				return err
			}
			stars, err := strconv.Atoi(args[1])
			if err != nil {
				return &apiclient.Error{
					Kind:    apiclient.KindValidation,
					Message: "Rating must be a whole number from 1 to 5.",
					Fields:  map[string][]string{"stars": {fmt.Sprintf("%q is not a number", args[1])}},
				}
			}

			id, err := a.TicketID(ctx, args[0])
			if err != nil {
				return err
			}
			t, err := a.Tickets.Rate(ctx, id, stars)
			if err != nil {
				return err
			}

			p := a.Printer()
			if p.JSONMode() {
				return p.JSON(t)
			}
			fmt.Fprintf(a.Out, "Ticket %s rated %s.\n", p.Clean(t.TicketNo), rating(t.Rate))
			return nil
		},
	}
}
