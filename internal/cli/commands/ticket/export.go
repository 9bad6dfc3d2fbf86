package ticket

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/afterdarksys/helpdesk/internal/cli/app"
	"github.com/afterdarksys/helpdesk/internal/export"
	"github.com/afterdarksys/helpdesk/internal/models"
	"github.com/afterdarksys/helpdesk/internal/tickets"
)

func newExportCmd(a *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [id|ticket-number...]",
		Short: "Export tickets to JSON or a spreadsheet",
		Long: `Export the tickets of your "My Ticket" view to local files.

Without --out or --dir the JSON export is written to stdout. --dir writes
one JSON file per ticket. --out writes a single file in --format.

Examples:
  # Export to stdout
  helpdesk ticket export

  # Export selected tickets
  helpdesk ticket export TCK-0001 TCK-0002 --out picked.json

  # Export everything visible to you as a spreadsheet
  helpdesk ticket export --view all --format xlsx --out tickets.xlsx

  # Export one file per ticket
  helpdesk ticket export --dir ./backup --overwrite`,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatName, _ := cmd.Flags().GetString("format")
			out, _ := cmd.Flags().GetString("out")
			dir, _ := cmd.Flags().GetString("dir")
			overwrite, _ := cmd.Flags().GetBool("overwrite")
			search, _ := cmd.Flags().GetString("search")
			view, _ := cmd.Flags().GetString("view")

			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}
			scope, err := tickets.ParseScope(view)
			if err != nil {
				return err
			}
			if out != "" && dir != "" {
				return fmt.Errorf("--out and --dir cannot be used together")
			}
			if out == "" && dir == "" && format == export.FormatXLSX {
				return fmt.Errorf("--out is required for xlsx exports")
			}

			ctx, cancel := a.Context(cmd.Context())
			defer cancel()

			st, err := a.SignedIn(ctx)
			if err != nil {
				return err
			}
			ts, err := a.Tickets.Refresh(ctx)
			if err != nil {
				return err
			}

			var selected []models.Ticket
			if len(args) > 0 {
				for _, arg := range args {
					id, err := a.TicketID(ctx, arg)
					if err != nil {
						return err
					}
					t, _ := a.Tickets.Tickets().Get(id)
					selected = append(selected, t)
				}
			} else {
				selected = tickets.Search(tickets.ForScope(scope, st.Role(), st.Username(), ts), search)
			}

			switch {
			case dir != "":
				res, err := export.ToDir(dir, selected, overwrite)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.Err, "Exported %d ticket(s) to %s, skipped %d existing.\n", res.Exported, dir, res.Skipped)
			case out != "":
				if err := export.ToFile(out, format, selected, overwrite); err != nil {
					return err
				}
				fmt.Fprintf(a.Err, "Exported %d ticket(s) to %s.\n", len(selected), out)
			default:
				return export.WriteJSON(a.Out, selected)
			}
			return nil
		},
	}
	cmd.Flags().String("format", "json", "Output format: json or xlsx")
	cmd.Flags().String("out", "", "Write a single export file")
	cmd.Flags().String("dir", "", "Write one JSON file per ticket into this directory")
	cmd.Flags().Bool("overwrite", false, "Overwrite existing files")
	cmd.Flags().StringP("search", "s", "", "Filter by ticket number or subject")
	cmd.Flags().String("view", "", "Projection: mine, others or all (default depends on role)")
	return cmd
}
