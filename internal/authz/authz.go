// Package authz resolves the acting role of a session and decides which
// views and ticket actions that role is offered.
package authz

import (
	"strings"

	"github.com/afterdarksys/helpdesk/internal/models"
)

// Account names the legacy backend reserves for staff roles
const (
	LegacyAdminUsername      = "admin"
	LegacyOperationsUsername = "teamop"
	LegacyTechUsername       = "teamtech"
	LegacyTeamHeadUsername   = "teamhead"
)

// ResolveInput carries everything the resolver may consult
type ResolveInput struct {
	Username    string
	IsSuperuser bool

	// Claim is a server-issued role (token claim or user record field)
	Claim string

	// Legacy enables username-based resolution when no claim is present
	Legacy bool
}

// Resolve returns exactly one role for a profile. A valid server-issued
// claim always wins. Without one, legacy resolution applies admin first,
// then the reserved staff usernames, then end user.
func Resolve(in ResolveInput) models.Role {
	if in.Claim != "" {
		if role, err := models.ParseRole(in.Claim); err == nil {
			return role
		}
	}
	if !in.Legacy {
		if in.IsSuperuser {
			return models.RoleAdmin
		}
		return models.RoleEndUser
	}

	switch name := strings.ToLower(strings.TrimSpace(in.Username)); {
	case in.IsSuperuser || name == LegacyAdminUsername:
		return models.RoleAdmin
	case name == LegacyOperationsUsername:
		return models.RoleOperationsTeam
	case name == LegacyTechUsername:
		return models.RoleTechSupport
	case name == LegacyTeamHeadUsername:
		return models.RoleTeamHead
	default:
		return models.RoleEndUser
	}
}

// Resolver binds the legacy setting so callers can resolve users repeatedly
type Resolver struct {
	Legacy bool
}

// User resolves the role of a listed user
func (r Resolver) User(u models.User) models.Role {
	return Resolve(ResolveInput{
		Username:    u.Username,
		IsSuperuser: u.IsSuperuser,
		Claim:       u.Role,
		Legacy:      r.Legacy,
	})
}

// Action is a ticket or oversight operation gated by role
type Action string

const (
	ActionCreateTicket Action = "create_ticket"
	ActionReviewTicket Action = "review_ticket"
	ActionCloseTicket  Action = "close_ticket"
	ActionRateTicket   Action = "rate_ticket"
	ActionViewRosters  Action = "view_rosters"
	ActionViewAuditLog Action = "view_audit_log"
)

var permissions = map[models.Role][]Action{
	models.RoleEndUser:        {ActionCreateTicket, ActionRateTicket},
	models.RoleOperationsTeam: {ActionReviewTicket, ActionCloseTicket},
	models.RoleTechSupport:    {ActionCloseTicket},
	models.RoleTeamHead:       {ActionViewRosters, ActionViewAuditLog},
	models.RoleAdmin:          {ActionViewRosters, ActionViewAuditLog},
}

// Can returns true if role may perform action
func Can(role models.Role, action Action) bool {
	for _, a := range permissions[role] {
		if a == action {
			return true
		}
	}
	return false
}
