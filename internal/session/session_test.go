package session

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afterdarksys/helpdesk/internal/apiclient"
	"github.com/afterdarksys/helpdesk/internal/authz"
	"github.com/afterdarksys/helpdesk/internal/fakeapi"
	"github.com/afterdarksys/helpdesk/internal/models"
)

func newManager(t *testing.T, opts fakeapi.Options, store Store) (*Manager, *fakeapi.Server) {
	t.Helper()
	fake := fakeapi.New(opts, fakeapi.DefaultAccounts()...)
	srv := fake.Start()
	t.Cleanup(srv.Close)

	client, err := apiclient.New(srv.URL + "/api")
	require.NoError(t, err)
	return NewManager(client, store, authz.Resolver{Legacy: true}, nil), fake
}

func TestLoginResolvesRole(t *testing.T) {
	tests := []struct {
		user string
		want models.Role
	}{
		{"alice", models.RoleEndUser},
		{"teamop", models.RoleOperationsTeam},
		{"teamtech", models.RoleTechSupport},
		{"teamhead", models.RoleTeamHead},
		{"admin", models.RoleAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			store := NewMemoryStore()
			m, _ := newManager(t, fakeapi.Options{}, store)

			st, err := m.Login(context.Background(), tt.user, tt.user+"-pass")
			require.NoError(t, err)
			assert.Equal(t, tt.want, st.Role())
			assert.Equal(t, tt.user, st.Username())
			assert.False(t, st.ExpiresAt.IsZero())

			stored, err := store.Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, st.Token, stored.Token)
		})
	}
}

func TestLoginClaimWins(t *testing.T) {
	m, _ := newManager(t, fakeapi.Options{
		RoleClaims: map[string]models.Role{"teamop": models.RoleTeamHead},
	}, NewMemoryStore())

	st, err := m.Login(context.Background(), "teamop", "teamop-pass")
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeamHead, st.Role())
}

func TestLoginFailures(t *testing.T) {
	m, fake := newManager(t, fakeapi.Options{}, NewMemoryStore())
	ctx := context.Background()

	_, err := m.Login(ctx, "  ", "")
	require.Error(t, err)
	assert.Equal(t, apiclient.KindValidation, apiclient.KindOf(err))
	assert.Equal(t, "Missing required fields: password, username", apiclient.MessageOf(err))
	assert.Zero(t, fake.Calls(http.MethodPost, "/api/token/"))

	_, err = m.Login(ctx, "alice", "wrong")
	assert.True(t, errors.Is(err, apiclient.ErrCredentials))

	fake.Fail(http.MethodGet, "/api/users/", http.StatusInternalServerError, nil)
	_, err = m.Login(ctx, "alice", "alice-pass")
	assert.Equal(t, apiclient.KindServer, apiclient.KindOf(err))

	_, ok := m.Current()
	assert.False(t, ok)
}

func TestLoginProfileMissing(t *testing.T) {
	// token issued but user listing does not contain the caller
	fake := fakeapi.New(fakeapi.Options{}, fakeapi.DefaultAccounts()...)
	srv := fake.Start()
	defer srv.Close()
	client, err := apiclient.New(srv.URL + "/api")
	require.NoError(t, err)

	m := NewManager(emptyUsers{client}, NewMemoryStore(), authz.Resolver{Legacy: true}, nil)
	_, err = m.Login(context.Background(), "alice", "alice-pass")
	assert.True(t, errors.Is(err, apiclient.ErrNotFound))
}

type emptyUsers struct {
	*apiclient.Client
}

func (emptyUsers) ListUsers(context.Context, string) ([]models.User, error) {
	return []models.User{{ID: 9, Username: "someone-else"}}, nil
}

func TestLogoutClearsStore(t *testing.T) {
	store := NewMemoryStore()
	m, _ := newManager(t, fakeapi.Options{}, store)
	ctx := context.Background()

	_, err := m.Login(ctx, "alice", "alice-pass")
	require.NoError(t, err)
	require.NoError(t, m.Logout(ctx))

	_, ok := m.Current()
	assert.False(t, ok)
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = m.Token()
	assert.True(t, errors.Is(err, apiclient.ErrSessionExpired))
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m, _ := newManager(t, fakeapi.Options{}, store)

	require.NoError(t, m.Restore(ctx))
	_, ok := m.Current()
	assert.False(t, ok)

	_, err := m.Login(ctx, "teamop", "teamop-pass")
	require.NoError(t, err)

	fresh := NewManager(nil, store, authz.Resolver{Legacy: true}, nil)
	require.NoError(t, fresh.Restore(ctx))
	st, ok := fresh.Current()
	require.True(t, ok)
	assert.Equal(t, models.RoleOperationsTeam, st.Role())

	fresh.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	err = fresh.Restore(ctx)
	assert.True(t, errors.Is(err, apiclient.ErrSessionExpired))
	_, ok = fresh.Current()
	assert.False(t, ok)
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRegisterAndReset(t *testing.T) {
	m, _ := newManager(t, fakeapi.Options{}, NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, m.Register(ctx, models.RegisterInput{Username: "dana", Password: "pw", Email: "dana@example.com"}))

	err := m.Register(ctx, models.RegisterInput{Username: "dana", Password: "pw"})
	assert.Equal(t, "A user with that username already exists.", apiclient.MessageOf(err))

	err = m.Register(ctx, models.RegisterInput{Username: "erin", Password: "pw", Email: "not-an-email"})
	require.Error(t, err)
	assert.Equal(t, apiclient.KindValidation, apiclient.KindOf(err))

	msg, err := m.ResetPassword(ctx, "dana@example.com")
	require.NoError(t, err)
	assert.Contains(t, msg, "dana@example.com")

	_, err = m.ResetPassword(ctx, " ")
	assert.Equal(t, apiclient.KindValidation, apiclient.KindOf(err))
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileStore(path)

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	want := &State{
		Token:     "tok",
		Profile:   models.Profile{Username: "alice", Role: models.RoleEndUser},
		ExpiresAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save(ctx, want))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path).Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSession)
}

func TestStateExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		exp  time.Time
		want bool
	}{
		{"no expiry", time.Time{}, false},
		{"future", now.Add(time.Minute), false},
		{"exact", now, true},
		{"past", now.Add(-time.Minute), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &State{ExpiresAt: tt.exp}
			assert.Equal(t, tt.want, st.Expired(now))
		})
	}
}
