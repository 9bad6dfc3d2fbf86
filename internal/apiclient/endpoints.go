package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/afterdarksys/helpdesk/internal/models"
)

// Messages shown when the server gives nothing more specific
const (
	msgInvalidCredentials = "Invalid credentials"
	msgSignUpFailed       = "Sign up failed. Please try a different username and check your details."
	msgResetFailed        = "Failed to send reset email"
	msgCreateFailed       = "Failed to create ticket."
	msgFetchFailed        = "Failed to fetch tickets."
	msgSessionExpired     = "Session expired or unauthorized. Please log in again."
	msgProfileFailed      = "Failed to update profile"
	msgLogFailed          = "Failed to fetch user log history."
)

// TokenPair is the response of the token endpoint
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// Token exchanges credentials for a bearer token
func (c *Client) Token(ctx context.Context, creds models.Credentials) (*TokenPair, error) {
	var pair TokenPair
	err := c.do(ctx, request{method: http.MethodPost, path: "token/", body: creds, out: &pair})
	if err != nil {
		if e, ok := apiError(err); ok && e.Status >= 400 && e.Status < 500 {
			e.Kind = KindCredentials
			e.Message = msgInvalidCredentials
		}
		return nil, err
	}
	if pair.Access == "" {
		return nil, &Error{Kind: KindCredentials, Message: msgInvalidCredentials}
	}
	return &pair, nil
}

// Register creates an account
func (c *Client) Register(ctx context.Context, in models.RegisterInput) error {
	err := c.do(ctx, request{method: http.MethodPost, path: "register/", body: in})
	if e, ok := apiError(err); ok && e.Status >= 400 && e.Status < 500 {
		e.Kind = KindValidation
		e.Message = e.body.RegistrationMessage(msgSignUpFailed)
	}
	return err
}

// PasswordReset requests a reset link and returns the server's message
func (c *Client) PasswordReset(ctx context.Context, email string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "password-reset/",
		body:   map[string]string{"email": email},
		out:    &out,
	})
	if err != nil {
		if e, ok := apiError(err); ok && e.Status != 0 {
			e.Message = msgResetFailed
		}
		return "", err
	}
	return out.Message, nil
}

// ListUsers returns every account visible to the bearer
func (c *Client) ListUsers(ctx context.Context, token string) ([]models.User, error) {
	var users []models.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "users/", token: token, out: &users}); err != nil {
		return nil, sessionMessage(err)
	}
	return users, nil
}

// ListTickets returns every ticket visible to the bearer
func (c *Client) ListTickets(ctx context.Context, token string) ([]models.Ticket, error) {
	var raw []json.RawMessage
	err := c.do(ctx, request{method: http.MethodGet, path: "tickets/", token: token, out: &raw})
	if err != nil {
		if e, ok := apiError(err); ok && e.Kind != KindSessionExpired && e.Kind != KindNetwork {
			e.Message = msgFetchFailed
		}
		return nil, sessionMessage(err)
	}

	// records that fail to decode are skipped
	ts := make([]models.Ticket, 0, len(raw))
	for i, r := range raw {
		var t models.Ticket
		if err := json.Unmarshal(r, &t); err != nil {
			c.logger.Warn("Skipping undecodable ticket",
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		ts = append(ts, t)
	}
	return ts, nil
}

// CreateTicket submits a new ticket
func (c *Client) CreateTicket(ctx context.Context, token string, body models.CreateTicketRequest) (*models.Ticket, error) {
	var t models.Ticket
	err := c.do(ctx, request{method: http.MethodPost, path: "tickets/", token: token, body: body, out: &t})
	if err != nil {
		if e, ok := apiError(err); ok && e.Kind != KindSessionExpired && e.Kind != KindNetwork {
			e.Message = e.body.FirstMessage(msgCreateFailed)
		}
		return nil, sessionMessage(err)
	}
	return &t, nil
}

// PatchTicket partially updates a ticket and returns the server's copy
func (c *Client) PatchTicket(ctx context.Context, token string, id int, patch models.TicketPatch) (*models.Ticket, error) {
	var t models.Ticket
	path := "tickets/" + strconv.Itoa(id) + "/"
	if err := c.do(ctx, request{method: http.MethodPatch, path: path, token: token, body: patch, out: &t}); err != nil {
		return nil, sessionMessage(err)
	}
	if t.ID == 0 {
		return nil, &Error{Kind: KindServer, Message: fmt.Sprintf("ticket %d: empty update response", id)}
	}
	return &t, nil
}

// UpdateProfile patches the signed-in user's profile
func (c *Client) UpdateProfile(ctx context.Context, token string, update models.ProfileUpdate) (*models.UserProfile, error) {
	var p models.UserProfile
	err := c.do(ctx, request{method: http.MethodPatch, path: "profile/", token: token, body: update, out: &p})
	if err != nil {
		if e, ok := apiError(err); ok && e.Kind != KindSessionExpired && e.Kind != KindNetwork {
			e.Message = e.body.FirstMessage(msgProfileFailed)
		}
		return nil, sessionMessage(err)
	}
	return &p, nil
}

// ListLogHistory returns the user log history, newest first
func (c *Client) ListLogHistory(ctx context.Context, token string) ([]models.LogEntry, error) {
	var entries []models.LogEntry
	err := c.do(ctx, request{method: http.MethodGet, path: "userloghistory/", token: token, out: &entries})
	if err != nil {
		if e, ok := apiError(err); ok && e.Kind != KindSessionExpired && e.Kind != KindNetwork {
			e.Message = msgLogFailed
		}
		return nil, sessionMessage(err)
	}
	return entries, nil
}

func sessionMessage(err error) error {
	if e, ok := apiError(err); ok && e.Kind == KindSessionExpired {
		e.Message = msgSessionExpired
	}
	return err
}
