package ticket

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/afterdarksys/helpdesk/internal/authz"
	"github.com/afterdarksys/helpdesk/internal/cli/app"
	"github.com/afterdarksys/helpdesk/internal/models"
)

func newCreateCmd(a *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Submit a new ticket",
		Long: `Submit a new ticket either interactively or by providing flags.

Required values that are not given as flags are prompted for. New tickets
start In Progress, supported by tech support.

Examples:
  # Create interactively
  helpdesk ticket create

  # Create with all required fields
  helpdesk ticket create \
    --ticket-no TCK-0042 \
    --subject "Printer jam on floor 3" \
    --category Hardware \
    --priority High \
    --description "The printer shows error E52"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.Context(cmd.Context())
			defer cancel()

			if _, err := a.Allowed(ctx, authz.ActionCreateTicket, "Only end users can submit tickets."); err != nil {
				return err
			}

			var in models.CreateTicketInput
			in.TicketNo, _ = cmd.Flags().GetString("ticket-no")
			in.Subject, _ = cmd.Flags().GetString("subject")
			in.Category, _ = cmd.Flags().GetString("category")
			in.Type, _ = cmd.Flags().GetString("type")
			in.Priority, _ = cmd.Flags().GetString("priority")
			in.Description, _ = cmd.Flags().GetString("description")
			if date, _ := cmd.Flags().GetString("date"); date != "" {
				d, err := time.ParseInLocation("2006-01-02", date, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --date %q (want YYYY-MM-DD)", date)
				}
				in.Date = d
			}

			if err := prompt(a, []field{
				{"Ticket No", &in.TicketNo},
				{"Subject", &in.Subject},
				{"Category", &in.Category},
				{"Priority", &in.Priority},
				{"Description", &in.Description},
			}); err != nil {
				return err
			}

			t, err := a.Tickets.Create(ctx, in)
			if err != nil {
				return err
			}

			p := a.Printer()
			if p.JSONMode() {
				return p.JSON(t)
			}
			fmt.Fprintf(a.Out, "Ticket %s submitted (id %d, %s).\n", p.Clean(t.TicketNo), t.ID, t.Status)
			return nil
		},
	}
	cmd.Flags().String("ticket-no", "", "Ticket number (required)")
	cmd.Flags().String("subject", "", "Subject (required)")
	cmd.Flags().String("category", "", "Category (required)")
	cmd.Flags().String("type", "", "Type")
	cmd.Flags().String("priority", "", "Priority (required)")
	cmd.Flags().String("description", "", "Description (required)")
	cmd.Flags().String("date", "", "Date raised, YYYY-MM-DD (default today)")
	return cmd
}

type field struct {
	label string
	value *string
}

// prompt asks for every empty field. Input ending early leaves the rest
// empty for validation to report.
func prompt(a *app.App, fields []field) error {
	for _, f := range fields {
		if *f.value != "" {
			continue
		}
		v, err := a.Prompt(f.label, "")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		*f.value = v
	}
	return nil
}
