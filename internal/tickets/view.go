// Package tickets holds the session's ticket collection and the read-only
// projections dashboards and tables are built from.
package tickets

import (
	"fmt"
	"strings"

	"github.com/afterdarksys/helpdesk/internal/models"
)

// DefaultPageSize is used when a caller passes a page size below one
const DefaultPageSize = 10

// FilterMine returns the tickets submitted by username
func FilterMine(ts []models.Ticket, username string) []models.Ticket {
	return filter(ts, func(t *models.Ticket) bool { return t.OwnedBy(username) })
}

// FilterOthers returns the tickets not submitted by username
func FilterOthers(ts []models.Ticket, username string) []models.Ticket {
	return filter(ts, func(t *models.Ticket) bool { return !t.OwnedBy(username) })
}

// Search returns tickets whose number or subject contains query, ignoring
// case. A blank query returns ts unchanged.
func Search(ts []models.Ticket, query string) []models.Ticket {
	if strings.TrimSpace(query) == "" {
		return ts
	}
	return filter(ts, func(t *models.Ticket) bool { return t.Matches(query) })
}

// ReviewQueue returns the tickets an operations reviewer can act on: every
// well-formed ticket not authored by the reviewer's own account.
func ReviewQueue(ts []models.Ticket, reviewer string) []models.Ticket {
	return filter(ts, func(t *models.Ticket) bool {
		return !t.OwnedBy(reviewer) && t.TicketNo != "" && t.Subject != ""
	})
}

// ForView returns the "My Ticket" table contents for a role. Operations and
// tech support see the tickets raised by everyone else.
func ForView(role models.Role, username string, ts []models.Ticket) []models.Ticket {
	switch role {
	case models.RoleEndUser:
		return FilterMine(ts, username)
	case models.RoleOperationsTeam, models.RoleTechSupport:
		return FilterOthers(ts, username)
	default:
		return ts
	}
}

// Scope names a listing projection selectable from the command line
type Scope string

const (
	ScopeRole   Scope = ""
	ScopeMine   Scope = "mine"
	ScopeOthers Scope = "others"
	ScopeAll    Scope = "all"
)

// ParseScope parses a scope name; "" and "role" select the role default
func ParseScope(s string) (Scope, error) {
	switch v := Scope(strings.ToLower(strings.TrimSpace(s))); v {
	case ScopeRole, "role":
		return ScopeRole, nil
	case ScopeMine, ScopeOthers, ScopeAll:
		return v, nil
	default:
		return "", fmt.Errorf("unknown view %q (want mine, others or all)", s)
	}
}

// ForScope applies a listing scope; ScopeRole defers to ForView
func ForScope(scope Scope, role models.Role, username string, ts []models.Ticket) []models.Ticket {
	switch scope {
	case ScopeMine:
		return FilterMine(ts, username)
	case ScopeOthers:
		return FilterOthers(ts, username)
	case ScopeAll:
		return ts
	default:
		return ForView(role, username, ts)
	}
}

// Page is one bounded slice of a ticket listing
type Page struct {
	Items      []models.Ticket `json:"items"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
	Total      int             `json:"total"`
}

// HasNext returns true if a later page exists
func (p Page) HasNext() bool {
	return p.Page < p.TotalPages
}

// Paginate returns page number page (1-based) of ts. Out-of-range pages
// clamp to the first or last page.
func Paginate(ts []models.Ticket, pageSize, page int) Page {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	total := len(ts)
	totalPages := (total + pageSize - 1) / pageSize

	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	items := []models.Ticket{}
	if start < end {
		items = ts[start:end:end]
	}

	return Page{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		Total:      total,
	}
}

// Actionable returns true if a reviewer still has approve/reject controls
// for the ticket rather than a static status badge
func Actionable(t *models.Ticket) bool {
	return t.CanReview()
}

func filter(ts []models.Ticket, keep func(*models.Ticket) bool) []models.Ticket {
	out := make([]models.Ticket, 0, len(ts))
	for i := range ts {
		if keep(&ts[i]) {
			out = append(out, ts[i])
		}
	}
	return out
}
