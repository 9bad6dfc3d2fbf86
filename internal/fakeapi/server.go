// Package fakeapi is an in-memory stand-in for the remote helpdesk API. It
// speaks the same routes and payload shapes and is used to exercise the
// client end to end in tests.
package fakeapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/afterdarksys/helpdesk/internal/models"
)

// Account is a seeded user with a password
type Account struct {
	models.User
	Password string
}

// Options configures the fake
type Options struct {
	// RoleClaims adds a "role" claim to issued tokens
	RoleClaims map[string]models.Role

	// TokenTTL defaults to one hour
	TokenTTL time.Duration

	Logger *zap.Logger
}

// fault is a one-shot injected failure
type fault struct {
	method string
	path   string
	status int
	body   any
}

// Server holds the fake's state
type Server struct {
	mu       sync.Mutex
	opts     Options
	secret   []byte
	accounts map[string]*Account
	profiles map[int]*models.UserProfile
	tickets  []models.Ticket
	logs     []models.LogEntry
	nextUser int
	nextID   int
	faults   []fault
	revoked  bool
	calls    map[string]int
	now      func() time.Time
}

// New creates a fake seeded with accounts
func New(opts Options, accounts ...Account) *Server {
	if opts.TokenTTL == 0 {
		opts.TokenTTL = time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &Server{
		opts:     opts,
		secret:   []byte("fakeapi-signing-key"),
		accounts: map[string]*Account{},
		profiles: map[int]*models.UserProfile{},
		nextUser: 1,
		nextID:   1,
		calls:    map[string]int{},
		now:      time.Now,
	}
	for _, a := range accounts {
		s.addAccount(a)
	}
	return s
}

// DefaultAccounts seeds the reserved staff accounts plus two end users
func DefaultAccounts() []Account {
	names := []string{"alice", "bob", "teamop", "teamtech", "teamhead", "admin"}
	out := make([]Account, 0, len(names))
	for _, n := range names {
		out = append(out, Account{
			User:     models.User{Username: n, Email: n + "@example.com", IsSuperuser: n == "admin"},
			Password: n + "-pass",
		})
	}
	return out
}

func (s *Server) addAccount(a Account) *Account {
	a.ID = s.nextUser
	s.nextUser++
	acc := a
	s.accounts[strings.ToLower(a.Username)] = &acc
	s.profiles[acc.ID] = &models.UserProfile{ID: acc.ID, User: acc.ID}
	return &acc
}

// Start serves the fake on a loopback listener. The API root is
// srv.URL + "/api".
func (s *Server) Start() *httptest.Server {
	return httptest.NewServer(s.Handler())
}

// Handler returns the gin engine serving the API
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(requestID())
	router.Use(recovery(s.opts.Logger))
	router.Use(s.countCalls())
	router.Use(s.injectFaults())

	api := router.Group("/api")
	{
		api.POST("/token/", s.handleToken)
		api.POST("/register/", s.handleRegister)
		api.POST("/password-reset/", s.handlePasswordReset)

		protected := api.Group("")
		protected.Use(s.auth())
		{
			protected.GET("/users/", s.handleListUsers)
			protected.GET("/tickets/", s.handleListTickets)
			protected.POST("/tickets/", s.handleCreateTicket)
			protected.PATCH("/tickets/:id/", s.handlePatchTicket)
			protected.PATCH("/profile/", s.handleUpdateProfile)
			protected.GET("/userloghistory/", s.handleLogHistory)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	})
	return router
}

// Fail makes the next request matching method and path answer with status
// and body instead of being handled
func (s *Server) Fail(method, path string, status int, body any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, fault{method: method, path: path, status: status, body: body})
}

// RevokeTokens makes every authenticated request answer 401
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	s.revoked = true
	s.mu.Unlock()
}

// Calls returns how many requests hit "METHOD /path"
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

// Seed stores a ticket as if user had submitted it and returns its copy
func (s *Server) Seed(t models.Ticket) models.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.nextID
	s.nextID++
	if t.Date.IsZero() {
		t.Date = s.now().UTC()
	}
	s.tickets = append(s.tickets, t)
	return t.Clone()
}

// Ticket returns the stored copy of ticket id
func (s *Server) Ticket(id int) (models.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tickets {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return models.Ticket{}, false
}

// Tickets returns every stored ticket
func (s *Server) Tickets() []models.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Ticket, len(s.tickets))
	for i, t := range s.tickets {
		out[i] = t.Clone()
	}
	return out
}

// Profile returns the stored profile record of username
func (s *Server) Profile(username string) (models.UserProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[strings.ToLower(username)]
	if !ok {
		return models.UserProfile{}, false
	}
	return *s.profiles[acc.ID], true
}

// Log appends a user log history record
func (s *Server) Log(entry models.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now().UTC()
	}
	entry.ID = len(s.logs) + 1
	s.logs = append(s.logs, entry)
}

// claims is the payload of issued access tokens
type claims struct {
	TokenType string `json:"token_type"`
	UserID    int    `json:"user_id"`
	Username  string `json:"username"`
	Role      string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (s *Server) issue(acc *Account) (string, error) {
	now := s.now()
	c := claims{
		TokenType: "access",
		UserID:    acc.ID,
		Username:  acc.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if role, ok := s.opts.RoleClaims[acc.Username]; ok {
		c.Role = string(role)
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

// staff accounts the legacy backend lets see every ticket
func seesAll(username string) bool {
	return username == "teamop" || username == "teamtech"
}
