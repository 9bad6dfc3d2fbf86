package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Rating bounds for a closed ticket
const (
	MinRating = 1
	MaxRating = 5
)

// Default values the ticket form submits alongside user input
const (
	DefaultSupportBy = "Tech support"
)

// Ticket represents a helpdesk support ticket as served by the remote API
type Ticket struct {
	ID           int          `json:"id"`
	TicketNo     string       `json:"ticketNo"`
	Subject      string       `json:"subject"`
	Status       TicketStatus `json:"status"`
	SupportBy    string       `json:"supportBy"`
	Date         time.Time    `json:"date"`
	Rate         int          `json:"rate"`
	Category     string       `json:"category"`
	Type         string       `json:"type"`
	Priority     string       `json:"priority"`
	Description  string       `json:"description"`
	UserUsername string       `json:"user_username"`
	Department   *string      `json:"department,omitempty"`
	Attachment   *string      `json:"attachment,omitempty"`
	Remark       *string      `json:"remark,omitempty"`
	TeamName     *string      `json:"team_name,omitempty"`
	TeamMember   *string      `json:"team_member,omitempty"`
}

// Date layouts accepted from the API. Values without a zone are UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseDate parses a ticket date as served by the API
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ticket date %q", s)
}

// UnmarshalJSON decodes a ticket, accepting dates with or without a zone
func (t *Ticket) UnmarshalJSON(data []byte) error {
	type plain Ticket
	aux := struct {
		*plain
		Date *string `json:"date"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Date == nil || *aux.Date == "" {
		return nil
	}
	d, err := ParseDate(*aux.Date)
	if err != nil {
		return err
	}
	t.Date = d
	return nil
}

// OwnedBy returns true if the ticket was submitted by username
func (t *Ticket) OwnedBy(username string) bool {
	return t.UserUsername == username
}

// CanRate returns true if the ticket can be rated
func (t *Ticket) CanRate() bool {
	return t.Status.IsClosed()
}

// CanReview returns true if operations can still approve or reject the ticket
func (t *Ticket) CanReview() bool {
	return !t.Status.IsReviewed() && !t.Status.IsClosed()
}

// CanClose returns true if the ticket can be closed
func (t *Ticket) CanClose() bool {
	return !t.Status.IsClosed()
}

// Matches returns true if query is a case-insensitive substring of the
// ticket number or subject
func (t *Ticket) Matches(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(t.TicketNo), q) ||
		strings.Contains(strings.ToLower(t.Subject), q)
}

// Clone returns a deep copy of the ticket
func (t Ticket) Clone() Ticket {
	t.Department = cloneString(t.Department)
	t.Attachment = cloneString(t.Attachment)
	t.Remark = cloneString(t.Remark)
	t.TeamName = cloneString(t.TeamName)
	t.TeamMember = cloneString(t.TeamMember)
	return t
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// StringValue dereferences an optional field, returning "" for nil
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CreateTicketInput represents input for creating a ticket
type CreateTicketInput struct {
	TicketNo    string    `json:"ticketNo" validate:"required,notblank,max=20"`
	Subject     string    `json:"subject" validate:"required,notblank,max=200"`
	Category    string    `json:"category" validate:"required,notblank,max=100"`
	Priority    string    `json:"priority" validate:"required,notblank,max=100"`
	Description string    `json:"description" validate:"required,notblank"`
	Type        string    `json:"type,omitempty" validate:"max=100"`
	Date        time.Time `json:"date,omitempty"`
}

// CreateTicketRequest is the body posted to the ticket endpoint
type CreateTicketRequest struct {
	TicketNo    string       `json:"ticketNo"`
	Subject     string       `json:"subject"`
	Status      TicketStatus `json:"status"`
	SupportBy   string       `json:"supportBy"`
	Date        time.Time    `json:"date"`
	Rate        int          `json:"rate"`
	Category    string       `json:"category"`
	Type        string       `json:"type"`
	Priority    string       `json:"priority"`
	Description string       `json:"description"`
}

// Request builds the submission body. New tickets always start In Progress,
// unrated, supported by tech support.
func (in CreateTicketInput) Request(now time.Time) CreateTicketRequest {
	date := in.Date
	if date.IsZero() {
		date = now
	}
	return CreateTicketRequest{
		TicketNo:    strings.TrimSpace(in.TicketNo),
		Subject:     strings.TrimSpace(in.Subject),
		Status:      TicketStatusInProgress,
		SupportBy:   DefaultSupportBy,
		Date:        date.UTC(),
		Rate:        0,
		Category:    strings.TrimSpace(in.Category),
		Type:        strings.TrimSpace(in.Type),
		Priority:    strings.TrimSpace(in.Priority),
		Description: in.Description,
	}
}

// CloseTicketInput represents the resolution details captured when closing
type CloseTicketInput struct {
	Remark     string `json:"remark" validate:"required,notblank"`
	TeamName   string `json:"team_name" validate:"required,notblank"`
	TeamMember string `json:"team_member" validate:"required,notblank"`
}

// TicketPatch represents a partial ticket update
type TicketPatch struct {
	Status     *TicketStatus `json:"status,omitempty"`
	Rate       *int          `json:"rate,omitempty"`
	Remark     *string       `json:"remark,omitempty"`
	TeamName   *string       `json:"team_name,omitempty"`
	TeamMember *string       `json:"team_member,omitempty"`
}

// StatusPatch builds a patch that only changes the status
func StatusPatch(status TicketStatus) TicketPatch {
	return TicketPatch{Status: &status}
}

// RatePatch builds a patch that only changes the rating
func RatePatch(stars int) TicketPatch {
	return TicketPatch{Rate: &stars}
}

// ClosePatch builds the patch sent when closing a ticket
func ClosePatch(in CloseTicketInput) TicketPatch {
	status := TicketStatusClosed
	remark, team, member := in.Remark, in.TeamName, in.TeamMember
	return TicketPatch{
		Status:     &status,
		Remark:     &remark,
		TeamName:   &team,
		TeamMember: &member,
	}
}
