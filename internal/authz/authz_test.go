package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/afterdarksys/helpdesk/internal/models"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		in   ResolveInput
		want models.Role
	}{
		{name: "end user", in: ResolveInput{Username: "alice", Legacy: true}, want: models.RoleEndUser},
		{name: "operations", in: ResolveInput{Username: "teamop", Legacy: true}, want: models.RoleOperationsTeam},
		{name: "tech support", in: ResolveInput{Username: "TeamTech", Legacy: true}, want: models.RoleTechSupport},
		{name: "team head", in: ResolveInput{Username: "teamhead", Legacy: true}, want: models.RoleTeamHead},
		{name: "admin username", in: ResolveInput{Username: "admin", Legacy: true}, want: models.RoleAdmin},
		{name: "superuser beats reserved name", in: ResolveInput{Username: "teamop", IsSuperuser: true, Legacy: true}, want: models.RoleAdmin},
		{name: "claim beats username", in: ResolveInput{Username: "teamop", Claim: "tech_support", Legacy: true}, want: models.RoleTechSupport},
		{name: "invalid claim falls back", in: ResolveInput{Username: "teamhead", Claim: "wizard", Legacy: true}, want: models.RoleTeamHead},
		{name: "legacy disabled ignores username", in: ResolveInput{Username: "teamop"}, want: models.RoleEndUser},
		{name: "legacy disabled keeps superuser", in: ResolveInput{Username: "root", IsSuperuser: true}, want: models.RoleAdmin},
		{name: "claim without legacy", in: ResolveInput{Username: "bob", Claim: "operations"}, want: models.RoleOperationsTeam},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.in))
		})
	}
}

func TestMenu(t *testing.T) {
	views := func(items []MenuItem) []View {
		var out []View
		for _, item := range items {
			out = append(out, item.View)
		}
		return out
	}

	assert.Equal(t, []View{ViewDashboard, ViewNewTicket, ViewMyTicket}, views(Menu(models.RoleEndUser)))
	assert.Equal(t, []View{ViewDashboard, ViewTicketApproval, ViewMyTicket, ViewPerformance}, views(Menu(models.RoleOperationsTeam)))
	assert.Equal(t, []View{ViewDashboard, ViewMyTicket, ViewPerformance}, views(Menu(models.RoleTechSupport)))
	assert.Equal(t, []View{ViewAdmin}, views(Menu(models.RoleAdmin)))

	m := Menu(models.RoleEndUser)
	m[0].Label = "mutated"
	assert.Equal(t, "Dashboard", Menu(models.RoleEndUser)[0].Label)

	assert.True(t, Visible(models.RoleOperationsTeam, ViewTicketApproval))
	assert.False(t, Visible(models.RoleTechSupport, ViewTicketApproval))
}

func TestLandingAndAfterClose(t *testing.T) {
	assert.Equal(t, ViewAdmin, Landing(models.RoleAdmin))
	assert.Equal(t, ViewDatabase, Landing(models.RoleTeamHead))
	assert.Equal(t, ViewDashboard, Landing(models.RoleEndUser))

	assert.Equal(t, ViewMyTicket, AfterClose(models.RoleTechSupport))
	assert.Equal(t, ViewDashboard, AfterClose(models.RoleOperationsTeam))
}

func TestCan(t *testing.T) {
	assert.True(t, Can(models.RoleEndUser, ActionCreateTicket))
	assert.True(t, Can(models.RoleEndUser, ActionRateTicket))
	assert.False(t, Can(models.RoleEndUser, ActionReviewTicket))

	assert.True(t, Can(models.RoleOperationsTeam, ActionReviewTicket))
	assert.True(t, Can(models.RoleOperationsTeam, ActionCloseTicket))
	assert.True(t, Can(models.RoleTechSupport, ActionCloseTicket))
	assert.False(t, Can(models.RoleTechSupport, ActionReviewTicket))

	assert.True(t, Can(models.RoleTeamHead, ActionViewAuditLog))
	assert.False(t, Can(models.RoleTeamHead, ActionCloseTicket))
	assert.False(t, Can(models.Role("ghost"), ActionCreateTicket))
}

func TestBuildRosters(t *testing.T) {
	users := []models.User{
		{Username: "alice"},
		{Username: "teamop"},
		{Username: "teamtech"},
		{Username: "teamhead"},
		{Username: "admin"},
		{Username: "bob"},
	}

	rosters := BuildRosters(users, Resolver{Legacy: true})

	assert.Len(t, rosters.Users, 2)
	assert.Equal(t, "alice", rosters.Users[0].Username)
	assert.Equal(t, "bob", rosters.Users[1].Username)
	assert.Len(t, rosters.Operations, 1)
	assert.Len(t, rosters.TechSupport, 1)
}
