package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/afterdarksys/helpdesk/internal/models"
)

const requiredMsg = "This field is required."

func (s *Server) handleToken(c *gin.Context) {
	var creds models.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[strings.ToLower(creds.Username)]
	s.mu.Unlock()
	if !ok || acc.Password != creds.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "No active account found with the given credentials"})
		return
	}

	token, err := s.issue(acc)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	s.Log(models.LogEntry{User: acc.Username, Action: "login"})
	c.JSON(http.StatusOK, gin.H{"access": token, "refresh": token})
}

func (s *Server) handleRegister(c *gin.Context) {
	var in models.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	errs := map[string][]string{}
	if strings.TrimSpace(in.Username) == "" {
		errs["username"] = []string{requiredMsg}
	}
	if in.Password == "" {
		errs["password"] = []string{requiredMsg}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.accounts[strings.ToLower(in.Username)]; taken && in.Username != "" {
		errs["username"] = []string{"A user with that username already exists."}
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, errs)
		return
	}

	acc := s.addAccount(Account{
		User:     models.User{Username: in.Username, Email: in.Email},
		Password: in.Password,
	})
	c.JSON(http.StatusCreated, gin.H{"id": acc.ID, "username": acc.Username, "email": acc.Email})
}

func (s *Server) handlePasswordReset(c *gin.Context) {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("If %s exists, a reset link will be sent.", body.Email)})
}

func (s *Server) handleListUsers(c *gin.Context) {
	s.mu.Lock()
	users := make([]models.User, 0, len(s.accounts))
	for _, acc := range s.accounts {
		u := acc.User
		if p := s.profiles[acc.ID]; p != nil {
			u.Department = p.Department
			u.AccessLevel = p.AccessLevel
		}
		users = append(users, u)
	}
	s.mu.Unlock()

	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	c.JSON(http.StatusOK, users)
}

func (s *Server) visible(acc *Account) []models.Ticket {
	var out []models.Ticket
	for _, t := range s.tickets {
		if seesAll(acc.Username) || t.UserUsername == acc.Username {
			out = append(out, t.Clone())
		}
	}
	return out
}

func (s *Server) handleListTickets(c *gin.Context) {
	acc := currentAccount(c)
	s.mu.Lock()
	out := s.visible(acc)
	s.mu.Unlock()
	if out == nil {
		out = []models.Ticket{}
	}
	c.JSON(http.StatusOK, out)
}

// ticketBody is the create payload, decoded loosely so missing fields can
// be reported per field
type ticketBody struct {
	TicketNo    string     `json:"ticketNo"`
	Subject     string     `json:"subject"`
	Status      string     `json:"status"`
	SupportBy   string     `json:"supportBy"`
	Date        *time.Time `json:"date"`
	Rate        int        `json:"rate"`
	Category    string     `json:"category"`
	Type        string     `json:"type"`
	Priority    string     `json:"priority"`
	Description string     `json:"description"`
}

func (s *Server) handleCreateTicket(c *gin.Context) {
	acc := currentAccount(c)

	var body ticketBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	errs := map[string][]string{}
	for field, val := range map[string]string{
		"ticketNo":  body.TicketNo,
		"subject":   body.Subject,
		"status":    body.Status,
		"supportBy": body.SupportBy,
	} {
		if strings.TrimSpace(val) == "" {
			errs[field] = []string{requiredMsg}
		}
	}
	status, err := models.ParseTicketStatus(body.Status)
	if err != nil && body.Status != "" {
		errs["status"] = []string{err.Error()}
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, errs)
		return
	}

	t := models.Ticket{
		TicketNo:     body.TicketNo,
		Subject:      body.Subject,
		Status:       status,
		SupportBy:    body.SupportBy,
		Rate:         body.Rate,
		Category:     body.Category,
		Type:         body.Type,
		Priority:     body.Priority,
		Description:  body.Description,
		UserUsername: acc.Username,
	}
	if body.Date != nil {
		t.Date = body.Date.UTC()
	}
	created := s.Seed(t)
	s.Log(models.LogEntry{User: acc.Username, Action: "create ticket", Details: created.TicketNo})
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handlePatchTicket(c *gin.Context) {
	acc := currentAccount(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}

	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.tickets {
		t := &s.tickets[i]
		if t.ID == id && (seesAll(acc.Username) || t.UserUsername == acc.Username) {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}

	updated := s.tickets[idx].Clone()
	errs := map[string][]string{}
	for key, val := range raw {
		switch key {
		case "status":
			var st models.TicketStatus
			if err := json.Unmarshal(val, &st); err != nil {
				errs[key] = []string{err.Error()}
				continue
			}
			updated.Status = st
		case "rate":
			var n int
			if err := json.Unmarshal(val, &n); err != nil {
				errs[key] = []string{"A valid integer is required."}
				continue
			}
			if n < 0 || n > models.MaxRating {
				errs[key] = []string{fmt.Sprintf("Ensure this value is between 0 and %d.", models.MaxRating)}
				continue
			}
			updated.Rate = n
		case "remark", "team_name", "team_member":
			var v string
			if err := json.Unmarshal(val, &v); err != nil {
				errs[key] = []string{"Not a valid string."}
				continue
			}
			switch key {
			case "remark":
				updated.Remark = &v
			case "team_name":
				updated.TeamName = &v
			case "team_member":
				updated.TeamMember = &v
			}
		}
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, errs)
		return
	}

	s.tickets[idx] = updated
	s.logs = append(s.logs, models.LogEntry{
		ID:        len(s.logs) + 1,
		User:      acc.Username,
		Action:    "update ticket",
		Timestamp: s.now().UTC(),
		Details:   updated.TicketNo,
	})
	c.JSON(http.StatusOK, updated.Clone())
}

func (s *Server) handleUpdateProfile(c *gin.Context) {
	acc := currentAccount(c)

	var update models.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.profiles[acc.ID]
	if update.Contact != nil {
		p.Contact = *update.Contact
	}
	if update.Department != nil {
		p.Department = *update.Department
	}
	if update.RealName != nil {
		p.RealName = *update.RealName
	}
	if update.AccessLevel != nil {
		p.AccessLevel = *update.AccessLevel
	}
	if update.ProjectAccessLevel != nil {
		p.ProjectAccessLevel = *update.ProjectAccessLevel
	}
	c.JSON(http.StatusOK, *p)
}

func (s *Server) handleLogHistory(c *gin.Context) {
	s.mu.Lock()
	out := make([]models.LogEntry, len(s.logs))
	copy(out, s.logs)
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	c.JSON(http.StatusOK, out)
}
