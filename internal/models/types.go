package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role represents the acting role of a helpdesk session
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleOperationsTeam Role = "operations"
	RoleTechSupport    Role = "tech_support"
	RoleTeamHead       Role = "team_head"
	RoleEndUser        Role = "end_user"
)

// Roles lists every role in display order
var Roles = []Role{RoleEndUser, RoleOperationsTeam, RoleTechSupport, RoleTeamHead, RoleAdmin}

// Valid returns true if the role is valid
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOperationsTeam, RoleTechSupport, RoleTeamHead, RoleEndUser:
		return true
	}
	return false
}

// DisplayName returns a human-readable name for the role
func (r Role) DisplayName() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleOperationsTeam:
		return "Operation Team"
	case RoleTechSupport:
		return "Technical Support"
	case RoleTeamHead:
		return "Team Head"
	case RoleEndUser:
		return "User"
	}
	return string(r)
}

// ParseRole parses a role claim. It accepts the canonical value, the display
// name, and a few short aliases.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin", "administrator":
		return RoleAdmin, nil
	case "operations", "operation team", "operations_team", "ops", "teamop":
		return RoleOperationsTeam, nil
	case "tech_support", "technical support", "tech", "techsupport", "teamtech":
		return RoleTechSupport, nil
	case "team_head", "team head", "head", "teamhead":
		return RoleTeamHead, nil
	case "end_user", "user", "enduser":
		return RoleEndUser, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// TicketStatus represents the status of a support ticket
type TicketStatus int

const (
	TicketStatusOpen TicketStatus = iota
	TicketStatusInProgress
	TicketStatusOnHold
	TicketStatusAwaitingApproval
	TicketStatusApproved
	TicketStatusRejected
	TicketStatusClosed
)

// TicketStatuses lists every status in lifecycle order
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusOnHold,
	TicketStatusAwaitingApproval,
	TicketStatusApproved,
	TicketStatusRejected,
	TicketStatusClosed,
}

var statusLabels = map[TicketStatus]string{
	TicketStatusOpen:             "Open",
	TicketStatusInProgress:       "In Progress",
	TicketStatusOnHold:           "On hold",
	TicketStatusAwaitingApproval: "Awaiting Approval",
	TicketStatusApproved:         "Approved",
	TicketStatusRejected:         "Rejected",
	TicketStatusClosed:           "Closed",
}

// Labels written by older dashboards, folded into the canonical set.
var legacyStatusLabels = map[string]TicketStatus{
	"solved":  TicketStatusClosed,
	"pending": TicketStatusAwaitingApproval,
}

// String returns the wire label of the status
func (s TicketStatus) String() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return fmt.Sprintf("TicketStatus(%d)", int(s))
}

// Valid returns true if the ticket status is valid
func (s TicketStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// IsClosed returns true for the closed status
func (s TicketStatus) IsClosed() bool {
	return s == TicketStatusClosed
}

// IsReviewed returns true once operations has approved or rejected the ticket
func (s TicketStatus) IsReviewed() bool {
	return s == TicketStatusApproved || s == TicketStatusRejected
}

// ParseTicketStatus parses a wire label, case-insensitively
func ParseTicketStatus(s string) (TicketStatus, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	if norm == "" {
		return TicketStatusOpen, nil
	}
	for st, label := range statusLabels {
		if strings.ToLower(label) == norm {
			return st, nil
		}
	}
	if st, ok := legacyStatusLabels[norm]; ok {
		return st, nil
	}
	return 0, fmt.Errorf("unknown ticket status %q", s)
}

// MarshalJSON encodes the status as its wire label
func (s TicketStatus) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid ticket status %d", int(s))
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a wire label
func (s *TicketStatus) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return fmt.Errorf("ticket status: %w", err)
	}
	st, err := ParseTicketStatus(label)
	if err != nil {
		return err
	}
	*s = st
	return nil
}
