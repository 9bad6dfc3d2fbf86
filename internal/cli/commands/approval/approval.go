package approval

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

const denied = "Only the operations team can approve or reject tickets."

// NewCmd builds the approval command group
func NewCmd(a *app.App) *cobra.Command {
	approvalCmd := &cobra.Command{
		Use:     "approval",
		Aliases: []string{"approvals", "a"},
		Short:   "Review tickets as the operations team",
		Long: `View the ticket approval queue and approve or reject tickets.

Examples:
  # List the approval queue
  helpdesk approval list

  # Only tickets still awaiting a decision
  helpdesk approval list --pending

  # Approve a ticket
  helpdesk approval approve TCK-0001

  # Reject a ticket
  helpdesk approval reject TCK-0001`,
	}

	list := NewQueueCmd(a)
	list.Use = "list"
	list.Aliases = []string{"ls", "queue"}

	approvalCmd.AddCommand(list)
	approvalCmd.AddCommand(NewApproveCmd(a))
	approvalCmd.AddCommand(NewRejectCmd(a))
	return approvalCmd
}

// NewQueueCmd lists the tickets of the Ticket Approval view
func NewQueueCmd(a *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List the ticket approval queue",
		Long: `List the Ticket Approval view: tickets raised by others, with the
decision controls of those still open for review. Tickets you submitted
are never listed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pending, _ := cmd.Flags().GetBool("pending")

			ctx, cancel := a.Context(cmd.Context())
			defer cancel()

			st, err := a.Allowed(ctx, authz.ActionReviewTicket, denied)
			if err != nil {
				return err
			}
			ts, err := a.Tickets.Refresh(ctx)
			if err != nil {
				return err
			}

			queue := tickets.ReviewQueue(ts, st.Username())
			if pending {
				waiting := queue[:0:0]
				for i := range queue {
					if tickets.Actionable(&queue[i]) {
						waiting = append(waiting, queue[i])
					}
				}
				queue = waiting
			}

			p := a.Printer()
			if p.JSONMode() {
				return p.JSON(queue)
			}
			if len(queue) == 0 {
				fmt.Fprintln(a.Out, "No tickets awaiting review.")
				return nil
			}
			rows := make([][]string, 0, len(queue))
			for i := range queue {
				t := &queue[i]
				action := t.Status.String()
				if tickets.Actionable(t) {
					action = "approve | reject"
				}
				rows = append(rows, []string{
					strconv.Itoa(t.ID), t.TicketNo, t.Subject, t.UserUsername, t.Priority, action,
				})
			}
			return p.Table([]string{"ID", "TICKET NO", "SUBJECT", "SUBMITTED BY", "PRIORITY", "ACTION"}, rows)
		},
	}
	cmd.Flags().Bool("pending", false, "Only list tickets still awaiting a decision")
	return cmd
}

// NewApproveCmd approves a ticket
func NewApproveCmd(a *app.App) *cobra.Command {
	return newDecisionCmd(a, "approve", nil, models.TicketStatusApproved)
}

// NewRejectCmd rejects a ticket
func NewRejectCmd(a *app.App) *cobra.Command {
	return newDecisionCmd(a, "reject", []string{"deny"}, models.TicketStatusRejected)
}

func newDecisionCmd(a *app.App, verb string, aliases []string, status models.TicketStatus) *cobra.Command {
	title := strings.ToUpper(verb[:1]) + verb[1:]
	cmd := &cobra.Command{
		Use:     verb + " [id|ticket-number]",
		Aliases: aliases,
		Short:   fmt.Sprintf("Mark a ticket %s", status),
		Long: fmt.Sprintf(`Mark a ticket %[1]s as the operations team.

Tickets you submitted and tickets already decided cannot be reviewed.

Examples:
  # %[2]s a ticket
  helpdesk approval %[3]s TCK-0001

  # Skip the confirmation prompt
  helpdesk approval %[3]s 12 --force`, status, title, verb),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")

			ctx, cancel := a.Context(cmd.Context())
			defer cancel()

			if _, err := a.Allowed(ctx, authz.ActionReviewTicket, denied); err != nil {
				return err
			}
			id, err := a.TicketID(ctx, args[0])
			if err != nil {
				return err
			}

			if !force && !a.Confirm(fmt.Sprintf("%s ticket %s?", title, args[0])) {
				fmt.Fprintln(a.Err, "Cancelled")
				return nil
			}

			var t *models.Ticket
			if status == models.TicketStatusApproved {
				t, err = a.Tickets.Approve(ctx, id)
			} else {
				t, err = a.Tickets.Reject(ctx, id)
			}
			if err != nil {
				return err
			}

			p := a.Printer()
			if p.JSONMode() {
				return p.JSON(t)
			}
			fmt.Fprintf(a.Out, "Ticket %s is now %s.\n", p.Clean(t.TicketNo), t.Status)
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "Skip confirmation prompt")
	return cmd
}
