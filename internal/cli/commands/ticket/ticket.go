package ticket

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/afterdarksys/helpdesk/internal/cli/app"
	"github.com/afterdarksys/helpdesk/internal/cli/commands/approval"
	"github.com/afterdarksys/helpdesk/internal/cli/output"
	"github.com/afterdarksys/helpdesk/internal/models"
)

// NewCmd builds the ticket command group
func NewCmd(a *app.App) *cobra.Command {
	ticketCmd := &cobra.Command{
		Use:     "ticket",
		Aliases: []string{"tickets", "t"},
		Short:   "Manage helpdesk tickets",
		Long: `Create, list, view, close and rate helpdesk tickets.

Examples:
  # Submit a new ticket interactively
  helpdesk ticket create

  # List the tickets of your "My Ticket" view
  helpdesk ticket list

  # View a specific ticket
  helpdesk ticket view TCK-0001

  # Close a ticket with the resolution details
  helpdesk ticket close TCK-0001 --remark "Replaced cable" --team-name Network --team-member Sam

  # Rate a closed ticket
  helpdesk ticket rate TCK-0001 5

  # Export your tickets to a spreadsheet
  helpdesk ticket export --format xlsx --out tickets.xlsx`,
	}

	// Add subcommands
	ticketCmd.AddCommand(newCreateCmd(a))
	ticketCmd.AddCommand(newListCmd(a))
	ticketCmd.AddCommand(newViewCmd(a))
	ticketCmd.AddCommand(newCloseCmd(a))
	ticketCmd.AddCommand(newRateCmd(a))
	ticketCmd.AddCommand(newExportCmd(a))
	ticketCmd.AddCommand(approval.NewApproveCmd(a))
	ticketCmd.AddCommand(approval.NewRejectCmd(a))
	ticketCmd.AddCommand(approval.NewQueueCmd(a))
	return ticketCmd
}

var listHeaders = []string{"ID", "TICKET NO", "SUBJECT", "STATUS", "SUPPORT BY", "DATE", "RATE"}

func listRow(t models.Ticket) []string {
	return []string{
		strconv.Itoa(t.ID),
		t.TicketNo,
		t.Subject,
		t.Status.String(),
		t.SupportBy,
		t.Date.Local().Format("2006-01-02"),
		rating(t.Rate),
	}
}

func rating(stars int) string {
	if stars < models.MinRating {
		return "-"
	}
	return fmt.Sprintf("%d/%d", stars, models.MaxRating)
}

func orDash(s *string) string {
	if v := models.StringValue(s); v != "" {
		return v
	}
	return "-"
}

// printTicket writes the full record of t
func printTicket(p *output.Printer, t *models.Ticket) error {
	if p.JSONMode() {
		return p.JSON(t)
	}
	return p.Fields([][2]string{
		{"ID", strconv.Itoa(t.ID)},
		{"Ticket No", t.TicketNo},
		{"Subject", t.Subject},
		{"Status", t.Status.String()},
		{"Support By", t.SupportBy},
		{"Date", t.Date.Local().Format("2006-01-02 15:04")},
		{"Submitted By", t.UserUsername},
		{"Category", t.Category},
		{"Type", t.Type},
		{"Priority", t.Priority},
		{"Department", orDash(t.Department)},
		{"Description", t.Description},
		{"Rating", rating(t.Rate)},
		{"Remark", orDash(t.Remark)},
		{"Team Name", orDash(t.TeamName)},
		{"Team Member", orDash(t.TeamMember)},
	})
}
