package tickets

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afterdarksys/helpdesk/internal/models"
)

func sampleTickets() []models.Ticket {
	owners := []string{"alice", "bob", "teamop", "alice", "carol", "alice", "bob"}
	subjects := []string{"VPN drops", "Printer jam", "Ops check", "Laptop slow", "New monitor", "vpn token", "Email bounce"}
	out := make([]models.Ticket, len(owners))
	for i := range owners {
		out[i] = models.Ticket{
			ID:           i + 1,
			TicketNo:     fmt.Sprintf("HD-%03d", i+1),
			Subject:      subjects[i],
			Status:       models.TicketStatusInProgress,
			UserUsername: owners[i],
		}
	}
	return out
}

func ids(ts []models.Ticket) []int {
	out := make([]int, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.ID)
	}
	return out
}

func TestFilterPartition(t *testing.T) {
	all := sampleTickets()

	for _, user := range []string{"alice", "bob", "teamop", "nobody", ""} {
		t.Run(user, func(t *testing.T) {
			mine := FilterMine(all, user)
			others := FilterOthers(all, user)

			assert.Equal(t, len(all), len(mine)+len(others))

			seen := map[int]int{}
			for _, id := range ids(mine) {
				seen[id]++
			}
			for _, id := range ids(others) {
				seen[id]++
			}
			for _, tk := range all {
				assert.Equal(t, 1, seen[tk.ID], "ticket %d must be in exactly one side", tk.ID)
			}
			for _, tk := range mine {
				assert.Equal(t, user, tk.UserUsername)
			}
		})
	}
}

func TestSearch(t *testing.T) {
	all := sampleTickets()

	assert.Equal(t, all, Search(all, ""))
	assert.Equal(t, all, Search(all, "   "))

	assert.Equal(t, []int{1, 6}, ids(Search(all, "VPN")))
	assert.Equal(t, []int{1, 6}, ids(Search(all, "vpn")))
	assert.Equal(t, []int{3}, ids(Search(all, "hd-003")))
	assert.Empty(t, Search(all, "kernel panic"))
}

func TestSearchKeepsSurroundingSpaces(t *testing.T) {
	ts := []models.Ticket{
		{ID: 1, TicketNo: "HD-1", Subject: "Apply fix to mailbox"},
		{ID: 2, TicketNo: "HD-2", Subject: "Update prefix list"},
	}

	assert.Equal(t, []int{1, 2}, ids(Search(ts, "fix")))
	assert.Equal(t, []int{1}, ids(Search(ts, " fix")))
	assert.Equal(t, []int{2}, ids(Search(ts, "prefix ")))
}

func TestPaginateReconstructs(t *testing.T) {
	all := sampleTickets()

	for size := 1; size <= len(all)+2; size++ {
		t.Run(fmt.Sprintf("size=%d", size), func(t *testing.T) {
			first := Paginate(all, size, 1)
			wantPages := (len(all) + size - 1) / size
			require.Equal(t, wantPages, first.TotalPages)

			var joined []models.Ticket
			for p := 1; p <= first.TotalPages; p++ {
				page := Paginate(all, size, p)
				assert.Equal(t, p, page.Page)
				assert.LessOrEqual(t, len(page.Items), size)
				joined = append(joined, page.Items...)
			}
			assert.Equal(t, ids(all), ids(joined))
		})
	}
}

func TestPaginateClamps(t *testing.T) {
	all := sampleTickets()

	last := Paginate(all, 3, 99)
	assert.Equal(t, 3, last.Page)
	assert.Equal(t, []int{7}, ids(last.Items))
	assert.False(t, last.HasNext())

	first := Paginate(all, 3, -4)
	assert.Equal(t, 1, first.Page)
	assert.Equal(t, []int{1, 2, 3}, ids(first.Items))
	assert.True(t, first.HasNext())

	defaults := Paginate(all, 0, 1)
	assert.Equal(t, DefaultPageSize, defaults.PageSize)
	assert.Len(t, defaults.Items, len(all))

	empty := Paginate(nil, 5, 3)
	assert.Equal(t, 1, empty.Page)
	assert.Equal(t, 0, empty.TotalPages)
	assert.NotNil(t, empty.Items)
	assert.Empty(t, empty.Items)
}

func TestPaginateItemsDoNotAlias(t *testing.T) {
	all := sampleTickets()
	page := Paginate(all, 2, 1)
	page.Items = append(page.Items, models.Ticket{ID: 99})
	assert.Equal(t, 3, all[2].ID)
}

func TestReviewQueue(t *testing.T) {
	all := append(sampleTickets(), models.Ticket{ID: 20, UserUsername: "dave"})

	queue := ReviewQueue(all, "teamop")
	assert.NotContains(t, ids(queue), 3)
	assert.NotContains(t, ids(queue), 20)
	assert.Len(t, queue, 6)
}

func TestForView(t *testing.T) {
	all := sampleTickets()

	assert.Equal(t, []int{1, 4, 6}, ids(ForView(models.RoleEndUser, "alice", all)))
	assert.NotContains(t, ids(ForView(models.RoleOperationsTeam, "teamop", all)), 3)
	assert.Len(t, ForView(models.RoleTechSupport, "teamtech", all), len(all))
	assert.Len(t, ForView(models.RoleTeamHead, "teamhead", all), len(all))

	assert.Equal(t, []int{2, 7}, ids(ForScope(ScopeMine, models.RoleOperationsTeam, "bob", all)))
	assert.Len(t, ForScope(ScopeAll, models.RoleEndUser, "alice", all), len(all))
	assert.Len(t, ForScope(ScopeOthers, models.RoleEndUser, "alice", all), 4)
}

func TestCompute(t *testing.T) {
	ts := []models.Ticket{
		{Status: models.TicketStatusInProgress},
		{Status: models.TicketStatusClosed, Rate: 4},
		{Status: models.TicketStatusClosed, Rate: 5},
		{Status: models.TicketStatusClosed},
		{Status: models.TicketStatusAwaitingApproval},
		{Status: models.TicketStatusApproved},
		{Status: models.TicketStatusOnHold},
	}

	s := Compute(ts)
	assert.Equal(t, 7, s.Total)
	assert.Equal(t, 3, s.Closed)
	assert.Equal(t, 1, s.InProgress)
	assert.Equal(t, 1, s.AwaitingApproval)
	assert.Equal(t, 1, s.OnHold)
	assert.Equal(t, 2, s.Rated)
	assert.InDelta(t, 4.5, s.AverageRating, 0.001)
	assert.Equal(t, 1, s.Count(models.TicketStatusApproved))

	assert.Zero(t, Compute(nil).AverageRating)
}

func TestParseScope(t *testing.T) {
	for in, want := range map[string]Scope{"": ScopeRole, "role": ScopeRole, "Mine": ScopeMine, "others": ScopeOthers, " all ": ScopeAll} {
		got, err := ParseScope(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseScope("team")
	assert.Error(t, err)
}
