package tickets

import (
	"github.com/afterdarksys/helpdesk/internal/models"
)

// Stats are the dashboard counters, computed the same way for every role
type Stats struct {
	Total            int     `json:"total"`
	Open             int     `json:"open"`
	InProgress       int     `json:"in_progress"`
	OnHold           int     `json:"on_hold"`
	AwaitingApproval int     `json:"awaiting_approval"`
	Approved         int     `json:"approved"`
	Rejected         int     `json:"rejected"`
	Closed           int     `json:"closed"`
	Rated            int     `json:"rated"`
	AverageRating    float64 `json:"average_rating"`
}

// Compute builds the counters for ts
func Compute(ts []models.Ticket) Stats {
	s := Stats{Total: len(ts)}
	var stars int
	for i := range ts {
		switch ts[i].Status {
		case models.TicketStatusOpen:
			s.Open++
		case models.TicketStatusInProgress:
			s.InProgress++
		case models.TicketStatusOnHold:
			s.OnHold++
		case models.TicketStatusAwaitingApproval:
			s.AwaitingApproval++
		case models.TicketStatusApproved:
			s.Approved++
		case models.TicketStatusRejected:
			s.Rejected++
		case models.TicketStatusClosed:
			s.Closed++
		}
		if ts[i].Rate >= models.MinRating {
			s.Rated++
			stars += ts[i].Rate
		}
	}
	if s.Rated > 0 {
		s.AverageRating = float64(stars) / float64(s.Rated)
	}
	return s
}

// Count returns the counter for a single status
func (s Stats) Count(status models.TicketStatus) int {
	switch status {
	case models.TicketStatusOpen:
		return s.Open
	case models.TicketStatusInProgress:
		return s.InProgress
	case models.TicketStatusOnHold:
		return s.OnHold
	case models.TicketStatusAwaitingApproval:
		return s.AwaitingApproval
	case models.TicketStatusApproved:
		return s.Approved
	case models.TicketStatusRejected:
		return s.Rejected
	case models.TicketStatusClosed:
		return s.Closed
	}
	return 0
}
