package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTicketStatus(t *testing.T) {
	tests := []struct {
		name    string
		label   string
		want    TicketStatus
		wantErr bool
	}{
		{name: "canonical", label: "In Progress", want: TicketStatusInProgress},
		{name: "lower case", label: "on hold", want: TicketStatusOnHold},
		{name: "padded", label: "  Closed ", want: TicketStatusClosed},
		{name: "empty defaults to open", label: "", want: TicketStatusOpen},
		{name: "legacy solved", label: "Solved", want: TicketStatusClosed},
		{name: "legacy pending", label: "Pending", want: TicketStatusAwaitingApproval},
		{name: "unknown", label: "Escalated", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTicketStatus(tt.label)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTicketStatusJSON(t *testing.T) {
	var ticket Ticket
	err := json.Unmarshal([]byte(`{"id":4,"ticketNo":"T-4","status":"Solved","rate":0}`), &ticket)
	require.NoError(t, err)
	assert.Equal(t, TicketStatusClosed, ticket.Status)

	out, err := json.Marshal(ticket.Status)
	require.NoError(t, err)
	assert.JSONEq(t, `"Closed"`, string(out))

	err = json.Unmarshal([]byte(`{"status":"Escalated"}`), &ticket)
	assert.Error(t, err)

	_, err = json.Marshal(TicketStatus(42))
	assert.Error(t, err)
}

func TestParseRole(t *testing.T) {
	for _, r := range Roles {
		got, err := ParseRole(string(r))
		require.NoError(t, err)
		assert.Equal(t, r, got)

		got, err = ParseRole(r.DisplayName())
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}

	_, err := ParseRole("janitor")
	assert.Error(t, err)
}

func TestTicketPredicates(t *testing.T) {
	ticket := Ticket{TicketNo: "HD-0042", Subject: "Printer is on fire", Status: TicketStatusInProgress, UserUsername: "alice"}

	assert.True(t, ticket.OwnedBy("alice"))
	assert.False(t, ticket.OwnedBy("Alice"))
	assert.False(t, ticket.CanRate())
	assert.True(t, ticket.CanReview())
	assert.True(t, ticket.Matches("hd-00"))
	assert.True(t, ticket.Matches("FIRE"))
	assert.False(t, ticket.Matches("scanner"))

	ticket.Status = TicketStatusApproved
	assert.False(t, ticket.CanReview())
	assert.True(t, ticket.CanClose())

	ticket.Status = TicketStatusClosed
	assert.True(t, ticket.CanRate())
	assert.False(t, ticket.CanClose())
}

func TestClonePointerFields(t *testing.T) {
	remark := "fixed"
	orig := Ticket{Remark: &remark}
	cp := orig.Clone()
	*cp.Remark = "changed"
	assert.Equal(t, "fixed", *orig.Remark)
}
