package ticket

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/afterdarksys/helpdesk/internal/cli/app"
	"github.com/afterdarksys/helpdesk/internal/tickets"
)

func newListCmd(a *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tickets",
		Long: `List the tickets of your "My Ticket" view.

End users see the tickets they submitted. The operations team and tech
support see the tickets raised by everyone else. Use --view to pick a
different projection.

Examples:
  # List the first page
  helpdesk ticket list

  # Search by ticket number or subject
  helpdesk ticket list --search printer

  # Show page 2 with 20 tickets per page
  helpdesk ticket list --page 2 --page-size 20

  # List every ticket visible to you, as JSON
  helpdesk ticket list --view all --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			search, _ := cmd.Flags().GetString("search")
			pageNum, _ := cmd.Flags().GetInt("page")
			pageSize, _ := cmd.Flags().GetInt("page-size")
			view, _ := cmd.Flags().GetString("view")

			scope, err := tickets.ParseScope(view)
			if err != nil {
				return err
			}
			if pageSize < 1 {
				pageSize = a.Config.PageSize
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

			rows := tickets.ForScope(scope, st.Role(), st.Username(), ts)
			rows = tickets.Search(rows, search)
			page := tickets.Paginate(rows, pageSize, pageNum)

			p := a.Printer()
			if p.JSONMode() {
				return p.JSON(page)
			}
			if page.Total == 0 {
				fmt.Fprintln(a.Out, "No tickets found.")
				return nil
			}

			table := make([][]string, 0, len(page.Items))
			for _, t := range page.Items {
				table = append(table, listRow(t))
			}
			if err := p.Table(listHeaders, table); err != nil {
				return err
			}
			fmt.Fprintf(a.Out, "\nPage %d of %d (%d tickets)\n", page.Page, page.TotalPages, page.Total)
			if page.HasNext() {
				fmt.Fprintf(a.Out, "Next: --page %d\n", page.Page+1)
			}
			return nil
		},
	}
	cmd.Flags().StringP("search", "s", "", "Filter by ticket number or subject")
	cmd.Flags().Int("page", 1, "Page number")
	cmd.Flags().Int("page-size", 0, "Tickets per page (default from config)")
	cmd.Flags().String("view", "", "Projection: mine, others or all (default depends on role)")
	return cmd
}
