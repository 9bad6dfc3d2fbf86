package authz

import (
	"github.com/afterdarksys/helpdesk/internal/models"
)

// View identifies a dashboard or table a role can navigate to
type View string

const (
	ViewDashboard      View = "dashboard"
	ViewNewTicket      View = "newticket"
	ViewMyTicket       View = "myticket"
	ViewTicketApproval View = "ticketapproval"
	ViewPerformance    View = "performance"
	ViewDatabase       View = "database"
	ViewUserLogHistory View = "userloghistory"
	ViewAdmin          View = "admin"
)

// MenuItem is one navigation entry
type MenuItem struct {
	View  View   `json:"key"`
	Label string `json:"label"`
}

var menus = map[models.Role][]MenuItem{
	models.RoleEndUser: {
		{ViewDashboard, "Dashboard"},
		{ViewNewTicket, "New Ticket"},
		{ViewMyTicket, "My Ticket"},
	},
	models.RoleOperationsTeam: {
		{ViewDashboard, "Dashboard"},
		{ViewTicketApproval, "Ticket Approval"},
		{ViewMyTicket, "My Ticket"},
		{ViewPerformance, "Performance"},
	},
	models.RoleTechSupport: {
		{ViewDashboard, "Dashboard"},
		{ViewMyTicket, "My Ticket"},
		{ViewPerformance, "Performance"},
	},
	models.RoleTeamHead: {
		{ViewDashboard, "Dashboard"},
		{ViewMyTicket, "My Ticket"},
		{ViewPerformance, "Performance"},
		{ViewDatabase, "Database"},
		{ViewUserLogHistory, "User Log History"},
	},
	models.RoleAdmin: {
		{ViewAdmin, "Admin"},
	},
}

// Menu returns the navigation entries visible to role
func Menu(role models.Role) []MenuItem {
	items := menus[role]
	out := make([]MenuItem, len(items))
	copy(out, items)
	return out
}

// Visible returns true if view appears in the role's menu
func Visible(role models.Role, view View) bool {
	for _, item := range menus[role] {
		if item.View == view {
			return true
		}
	}
	return false
}

// Landing returns the view a role starts on after sign-in
func Landing(role models.Role) View {
	switch role {
	case models.RoleAdmin:
		return ViewAdmin
	case models.RoleTeamHead:
		return ViewDatabase
	default:
		return ViewDashboard
	}
}

// AfterClose returns the view a role returns to after closing a ticket
func AfterClose(role models.Role) View {
	if role == models.RoleTechSupport {
		return ViewMyTicket
	}
	return ViewDashboard
}

// Rosters groups accounts into the tabs of the team head database view
type Rosters struct {
	Users       []models.User `json:"users"`
	Operations  []models.User `json:"operations"`
	TechSupport []models.User `json:"tech_support"`
}

// BuildRosters splits users by resolved role. Team heads and admins are
// not listed on any tab.
func BuildRosters(users []models.User, r Resolver) Rosters {
	var out Rosters
	for _, u := range users {
		switch r.User(u) {
		case models.RoleOperationsTeam:
			out.Operations = append(out.Operations, u)
		case models.RoleTechSupport:
			out.TechSupport = append(out.TechSupport, u)
		case models.RoleEndUser:
			out.Users = append(out.Users, u)
		}
	}
	return out
}
