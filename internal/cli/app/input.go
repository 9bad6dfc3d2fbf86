package app

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/afterdarksys/helpdesk/internal/apiclient"
)

// Prompt asks for a line of input, returning def when the answer is empty
func (a *App) Prompt(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(a.Err, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(a.Err, "%s: ", label)
	}
	line, err := a.reader().ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	return line, nil
}

// Confirm asks a yes/no question, defaulting to no
func (a *App) Confirm(question string) bool {
	answer, err := a.Prompt(question+" [y/N]", "")
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

func (a *App) reader() *bufio.Reader {
	if a.in == nil {
		a.in = bufio.NewReader(a.In)
	}
	return a.in
}

// TicketID resolves a command argument to a ticket id. The argument is
// either the numeric id or the ticket number.
func (a *App) TicketID(ctx context.Context, arg string) (int, error) {
	if !a.Tickets.Tickets().Loaded() {
		if _, err := a.Tickets.Refresh(ctx); err != nil {
			return 0, err
		}
	}
	if id, err := strconv.Atoi(arg); err == nil {
		if _, ok := a.Tickets.Tickets().Get(id); ok {
			return id, nil
		}
	}
	for _, t := range a.Tickets.Tickets().Snapshot() {
		if strings.EqualFold(t.TicketNo, arg) {
			return t.ID, nil
		}
	}
	return 0, apiclient.NewError(apiclient.KindNotFound, "Ticket %s not found.", arg)
}
