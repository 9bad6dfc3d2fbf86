package ticket

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/afterdarksys/helpdesk/internal/authz"
	"github.com/afterdarksys/helpdesk/internal/cli/app"
	"github.com/afterdarksys/helpdesk/internal/models"
)

func newCloseCmd(a *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "close [id|ticket-number]",
		Short: "Close a ticket",
		Long: `Close a ticket with a remark and the team that resolved it.

Only the operations team and tech support can close tickets. Values not
given as flags are prompted for.

Examples:
  # Close a ticket
  helpdesk ticket close TCK-0001 --remark "Replaced toner" --team-name Hardware --team-member Sam

  # Close without the confirmation prompt
  helpdesk ticket close 12 --remark "Done" --team-name Network --team-member Lee --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.Context(cmd.Context())
			defer cancel()

			if _, err := a.Allowed(ctx, authz.ActionCloseTicket, "Only the operations team or tech support can close tickets."); err != nil {
				return err
			}

			force, _ := cmd.Flags().GetBool("force")
			var in models.CloseTicketInput
			in.Remark, _ = cmd.Flags().GetString("remark")
			in.TeamName, _ = cmd.Flags().GetString("team-name")
			in.TeamMember, _ = cmd.Flags().GetString("team-member")

			id, err := a.TicketID(ctx, args[0])
			if err != nil {
				return err
			}
			if err := prompt(a, []field{
				{"Remark", &in.Remark},
				{"Team Name", &in.TeamName},
				{"Team Member", &in.TeamMember},
			}); err != nil {
				return err
			}

			if !force && !a.Confirm(fmt.Sprintf("Close ticket %s?", args[0])) {
				fmt.Fprintln(a.Err, "Cancelled")
				return nil
			}

			t, next, err := a.Tickets.Close(ctx, id, in)
			if err != nil {
				return err
			}

			p := a.Printer()
			if p.JSONMode() {
				return p.JSON(struct {
					Ticket *models.Ticket `json:"ticket"`
					Next   authz.View     `json:"next"`
				}{t, next})
			}
			fmt.Fprintf(a.Out, "Ticket %s closed.\n", p.Clean(t.TicketNo))
			fmt.Fprintf(a.Out, "Back to: %s\n", next)
			return nil
		},
	}
	cmd.Flags().String("remark", "", "Resolution remark (required)")
	cmd.Flags().String("team-name", "", "Team that resolved the ticket (required)")
	cmd.Flags().String("team-member", "", "Team member who resolved the ticket (required)")
	cmd.Flags().Bool("force", false, "Skip confirmation prompt")
	return cmd
}
