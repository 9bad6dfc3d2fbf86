package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/afterdarksys/helpdesk/internal/fakeapi"
	"github.com/afterdarksys/helpdesk/internal/models"
)

func newTestClient(t *testing.T) (*Client, *fakeapi.Server) {
	t.Helper()
	fake := fakeapi.New(fakeapi.Options{}, fakeapi.DefaultAccounts()...)
	srv := fake.Start()
	t.Cleanup(srv.Close)

	c, err := New(srv.URL + "/api")
	require.NoError(t, err)
	return c, fake
}

func token(t *testing.T, c *Client, user string) string {
	t.Helper()
	pair, err := c.Token(context.Background(), models.Credentials{Username: user, Password: user + "-pass"})
	require.NoError(t, err)
	return pair.Access
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"default", "", DefaultBaseURL, false},
		{"trailing slash", "https://desk.example.com/api/", "https://desk.example.com/api", false},
		{"bad scheme", "ftp://desk.example.com/api", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.BaseURL())
		})
	}
}

func TestTokenInvalidCredentials(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.Token(context.Background(), models.Credentials{Username: "alice", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCredentials))
	assert.Equal(t, "Invalid credentials", MessageOf(err))
}

func TestListTicketsSessionExpired(t *testing.T) {
	c, fake := newTestClient(t)
	tok := token(t, c, "alice")
	fake.RevokeTokens()

	_, err := c.ListTickets(context.Background(), tok)
	require.Error(t, err)
	assert.Equal(t, KindSessionExpired, KindOf(err))
	assert.Equal(t, "Session expired or unauthorized. Please log in again.", MessageOf(err))
}

func TestListTicketsServerError(t *testing.T) {
	c, fake := newTestClient(t)
	tok := token(t, c, "alice")
	fake.Fail(http.MethodGet, "/api/tickets/", http.StatusInternalServerError, nil)

	_, err := c.ListTickets(context.Background(), tok)
	require.Error(t, err)
	assert.Equal(t, KindServer, KindOf(err))
	assert.Equal(t, "Failed to fetch tickets.", MessageOf(err))

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.NotEmpty(t, apiErr.RequestID)
}

func TestListTicketsSkipsUndecodableRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":1,"ticketNo":"T-1","status":"Closed","date":"2024-05-01T10:00:00Z","user_username":"alice"},
			{"id":2,"ticketNo":"T-2","status":"Escalated","date":"2024-05-01T10:00:00Z","user_username":"alice"},
			{"id":3,"ticketNo":"T-3","status":"In Progress","date":"2024-05-01T10:00:00.123456","user_username":"alice"}
		]`))
	}))
	defer srv.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	c, err := New(srv.URL+"/api", WithLogger(zap.New(core)))
	require.NoError(t, err)

	ts, err := c.ListTickets(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, ts, 2)
	assert.Equal(t, 1, ts[0].ID)
	assert.Equal(t, 3, ts[1].ID)

	want := time.Date(2024, 5, 1, 10, 0, 0, 123456000, time.UTC)
	assert.True(t, want.Equal(ts[1].Date), "got %s", ts[1].Date)
	assert.Equal(t, time.UTC, ts[1].Date.Location())

	entries := logs.FilterMessage("Skipping undecodable ticket").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ContextMap()["index"])
}

func TestListTicketsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c, err := New(srv.URL + "/api")
	require.NoError(t, err)

	ts, err := c.ListTickets(context.Background(), "tok")
	require.NoError(t, err)
	assert.NotNil(t, ts)
	assert.Empty(t, ts)
}

func TestCreateTicketRoundTrip(t *testing.T) {
	c, fake := newTestClient(t)
	tok := token(t, c, "alice")

	in := models.CreateTicketInput{
		TicketNo:    "T-100",
		Subject:     "Printer jam",
		Category:    "Hardware",
		Priority:    "High",
		Description: "Tray 2",
	}
	got, err := c.CreateTicket(context.Background(), tok, in.Request(time.Now()))
	require.NoError(t, err)
	assert.NotZero(t, got.ID)
	assert.Equal(t, models.TicketStatusInProgress, got.Status)
	assert.Equal(t, "alice", got.UserUsername)
	assert.Len(t, fake.Tickets(), 1)
}

func TestCreateTicketFieldMessage(t *testing.T) {
	c, fake := newTestClient(t)
	tok := token(t, c, "alice")
	fake.Fail(http.MethodPost, "/api/tickets/", http.StatusBadRequest, map[string]any{
		"subject": []string{"Ensure this field has no more than 200 characters."},
	})

	_, err := c.CreateTicket(context.Background(), tok, models.CreateTicketRequest{TicketNo: "T-1"})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "Ensure this field has no more than 200 characters.", MessageOf(err))
}

func TestPatchTicketNotFound(t *testing.T) {
	c, _ := newTestClient(t)
	tok := token(t, c, "alice")

	_, err := c.PatchTicket(context.Background(), tok, 999, models.RatePatch(4))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRegisterMessages(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	err := c.Register(ctx, models.RegisterInput{Username: "alice", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "A user with that username already exists.", MessageOf(err))

	fake.Fail(http.MethodPost, "/api/register/", http.StatusBadRequest, map[string]any{})
	err = c.Register(ctx, models.RegisterInput{Username: "zed", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, msgSignUpFailed, MessageOf(err))

	require.NoError(t, c.Register(ctx, models.RegisterInput{Username: "zed", Password: "x"}))
}

func TestPasswordReset(t *testing.T) {
	c, fake := newTestClient(t)

	msg, err := c.PasswordReset(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "If a@example.com exists, a reset link will be sent.", msg)

	fake.Fail(http.MethodPost, "/api/password-reset/", http.StatusBadRequest, map[string]string{"detail": "nope"})
	_, err = c.PasswordReset(context.Background(), "a@example.com")
	require.Error(t, err)
	assert.Equal(t, msgResetFailed, MessageOf(err))
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url + "/api")
	require.NoError(t, err)

	_, err = c.ListTickets(context.Background(), "tok")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetwork))
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c, err := New(srv.URL+"/api", WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = c.ListUsers(context.Background(), "tok")
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
}

func TestRequestHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c, err := New(srv.URL+"/api", WithUserAgent("helpdesk-test"))
	require.NoError(t, err)

	_, err = c.ListLogHistory(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", got.Get("Authorization"))
	assert.Equal(t, "helpdesk-test", got.Get("User-Agent"))
	assert.Len(t, got.Get("X-Request-ID"), 36)
}
