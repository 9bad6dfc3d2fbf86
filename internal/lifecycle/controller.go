// Package lifecycle performs ticket mutations against the API and keeps the
// session's ticket collection in step with the server.
package lifecycle

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/afterdarksys/helpdesk/internal/apiclient"
	"github.com/afterdarksys/helpdesk/internal/authz"
	"github.com/afterdarksys/helpdesk/internal/models"
	"github.com/afterdarksys/helpdesk/internal/pkg/validation"
	"github.com/afterdarksys/helpdesk/internal/session"
	"github.com/afterdarksys/helpdesk/internal/tickets"
)

// API is the part of the helpdesk API the controller needs
type API interface {
	ListTickets(ctx context.Context, token string) ([]models.Ticket, error)
	CreateTicket(ctx context.Context, token string, body models.CreateTicketRequest) (*models.Ticket, error)
	PatchTicket(ctx context.Context, token string, id int, patch models.TicketPatch) (*models.Ticket, error)
}

// Session supplies the signed-in state and is torn down on expiry
type Session interface {
	Require() (*session.State, error)
	Expire(ctx context.Context)
}

// Controller is the only writer of the ticket collection besides refresh
type Controller struct {
	api      API
	session  Session
	tickets  *tickets.Collection
	logger   *zap.Logger
	validate *validation.Validator
	now      func() time.Time

	mu       sync.Mutex
	inflight map[int]struct{}
}

// New creates a controller writing to coll
func New(api API, sess Session, coll *tickets.Collection, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if coll == nil {
		coll = tickets.NewCollection()
	}
	return &Controller{
		api:      api,
		session:  sess,
		tickets:  coll,
		logger:   logger,
		validate: validation.New(),
		now:      time.Now,
		inflight: map[int]struct{}{},
	}
}

// Tickets returns the collection the controller maintains
func (c *Controller) Tickets() *tickets.Collection {
	return c.tickets
}

// Busy returns true while a mutation of ticket id is outstanding
func (c *Controller) Busy(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[id]
	return ok
}

func (c *Controller) begin(id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.inflight[id]; ok {
		return apiclient.NewError(apiclient.KindBusy, "Ticket %d is already being updated.", id)
	}
	c.inflight[id] = struct{}{}
	return nil
}

func (c *Controller) end(id int) {
	c.mu.Lock()
	delete(c.inflight, id)
	c.mu.Unlock()
}

// Refresh replaces the collection with the server's ticket list. A rejected
// token ends the session and empties the collection; any other failure
// leaves the collection as it was.
func (c *Controller) Refresh(ctx context.Context) ([]models.Ticket, error) {
	st, err := c.session.Require()
	if err != nil {
		c.tickets.Clear()
		return nil, err
	}

	ts, err := c.api.ListTickets(ctx, st.Token)
	if err != nil {
		return nil, c.fail(ctx, "refresh", 0, err)
	}
	c.tickets.Replace(ts)
	c.logger.Debug("Tickets refreshed", zap.Int("count", len(ts)))
	return c.tickets.Snapshot(), nil
}

// Create submits a new ticket and re-fetches the collection
func (c *Controller) Create(ctx context.Context, in models.CreateTicketInput) (*models.Ticket, error) {
	st, err := c.acting(authz.ActionCreateTicket, "Only end users can submit tickets.")
	if err != nil {
		return nil, err
	}
	if err := c.validate.Struct(in); err != nil {
		return nil, apiclient.ValidationError(err, "Please fill in all required fields.")
	}

	created, err := c.api.CreateTicket(ctx, st.Token, in.Request(c.now()))
	if err != nil {
		return nil, c.fail(ctx, "create", 0, err)
	}
	c.tickets.Upsert(*created)
	c.logger.Info("Ticket created",
		zap.Int("ticket_id", created.ID),
		zap.String("ticket_no", created.TicketNo),
	)

	c.refreshAfter(ctx, "create")
	return created, nil
}

// Approve marks ticket id Approved
func (c *Controller) Approve(ctx context.Context, id int) (*models.Ticket, error) {
	return c.review(ctx, id, models.TicketStatusApproved)
}

// Reject marks ticket id Rejected
func (c *Controller) Reject(ctx context.Context, id int) (*models.Ticket, error) {
	return c.review(ctx, id, models.TicketStatusRejected)
}

// review applies an operations decision. Local state changes only after the
// server acknowledges it.
func (c *Controller) review(ctx context.Context, id int, status models.TicketStatus) (*models.Ticket, error) {
	st, err := c.acting(authz.ActionReviewTicket, "Only the operations team can approve or reject tickets.")
	if err != nil {
		return nil, err
	}
	t, err := c.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.OwnedBy(st.Username()) {
		return nil, apiclient.NewError(apiclient.KindForbidden, "You cannot review a ticket you submitted.")
	}
	if !t.CanReview() {
		return nil, apiclient.NewError(apiclient.KindInvalidState, "Ticket %s is already %s.", t.TicketNo, t.Status)
	}

	if err := c.begin(id); err != nil {
		return nil, err
	}
	defer c.end(id)

	updated, err := c.api.PatchTicket(ctx, st.Token, id, models.StatusPatch(status))
	if err != nil {
		return nil, c.fail(ctx, "review", id, err)
	}
	c.tickets.Upsert(*updated)
	c.logger.Info("Ticket reviewed",
		zap.Int("ticket_id", id),
		zap.String("status", updated.Status.String()),
		zap.String("reviewer", st.Username()),
	)
	return updated, nil
}

// Close resolves ticket id with the remark and team attribution, re-fetches
// the collection and returns the view the caller goes back to
func (c *Controller) Close(ctx context.Context, id int, in models.CloseTicketInput) (*models.Ticket, authz.View, error) {
	st, err := c.acting(authz.ActionCloseTicket, "Only the operations team or tech support can close tickets.")
	if err != nil {
		return nil, "", err
	}
	if err := c.validate.Struct(in); err != nil {
		return nil, "", apiclient.ValidationError(err, "Remark and team details are required.")
	}
	t, err := c.lookup(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if !t.CanClose() {
		return nil, "", apiclient.NewError(apiclient.KindInvalidState, "Ticket %s is already closed.", t.TicketNo)
	}

	if err := c.begin(id); err != nil {
		return nil, "", err
	}
	defer c.end(id)

	updated, err := c.api.PatchTicket(ctx, st.Token, id, models.ClosePatch(in))
	if err != nil {
		return nil, "", c.fail(ctx, "close", id, err)
	}
	c.tickets.Upsert(*updated)
	c.logger.Info("Ticket closed",
		zap.Int("ticket_id", id),
		zap.String("team", in.TeamName),
		zap.String("member", in.TeamMember),
	)

	c.refreshAfter(ctx, "close")
	return updated, authz.AfterClose(st.Role()), nil
}

// Rate records the owner's 1-5 rating of a closed ticket. The collection is
// updated first and rolled back if the server refuses.
func (c *Controller) Rate(ctx context.Context, id int, stars int) (*models.Ticket, error) {
	st, err := c.acting(authz.ActionRateTicket, "Only the ticket owner can rate it.")
	if err != nil {
		return nil, err
	}
	if stars < models.MinRating || stars > models.MaxRating {
		return nil, &apiclient.Error{
			Kind:    apiclient.KindValidation,
			Message: "Rating must be between 1 and 5.",
			Fields:  map[string][]string{"rate": {"Rating must be between 1 and 5."}},
		}
	}
	t, err := c.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.OwnedBy(st.Username()) {
		return nil, apiclient.NewError(apiclient.KindForbidden, "Only the ticket owner can rate it.")
	}
	if !t.CanRate() {
		return nil, apiclient.NewError(apiclient.KindInvalidState, "Ticket %s can be rated once it is closed.", t.TicketNo)
	}

	if err := c.begin(id); err != nil {
		return nil, err
	}
	defer c.end(id)

	prev, _ := c.tickets.Update(id, func(t *models.Ticket) { t.Rate = stars })

	updated, err := c.api.PatchTicket(ctx, st.Token, id, models.RatePatch(stars))
	if err != nil {
		c.tickets.Update(id, func(t *models.Ticket) { t.Rate = prev.Rate })
		return nil, c.fail(ctx, "rate", id, err)
	}
	c.tickets.Upsert(*updated)
	c.logger.Info("Ticket rated", zap.Int("ticket_id", id), zap.Int("rate", updated.Rate))
	return updated, nil
}

// acting returns the session if its role may perform action
func (c *Controller) acting(action authz.Action, denied string) (*session.State, error) {
	st, err := c.session.Require()
	if err != nil {
		return nil, err
	}
	if !authz.Can(st.Role(), action) {
		return nil, apiclient.NewError(apiclient.KindForbidden, "%s", denied)
	}
	return st, nil
}

// lookup finds ticket id, fetching the collection first if it was never loaded
func (c *Controller) lookup(ctx context.Context, id int) (models.Ticket, error) {
	if !c.tickets.Loaded() {
		if _, err := c.Refresh(ctx); err != nil {
			return models.Ticket{}, err
		}
	}
	t, ok := c.tickets.Get(id)
	if !ok {
		return models.Ticket{}, apiclient.NewError(apiclient.KindNotFound, "Ticket %d not found.", id)
	}
	return t, nil
}

// refreshAfter re-fetches after a successful mutation. The mutation already
// succeeded, so a failed re-fetch is only logged.
func (c *Controller) refreshAfter(ctx context.Context, op string) {
	if _, err := c.Refresh(ctx); err != nil {
		c.logger.Warn("Re-fetch after mutation failed", zap.String("op", op), zap.Error(err))
	}
}

// fail ends the session when the server rejected the token
func (c *Controller) fail(ctx context.Context, op string, id int, err error) error {
	fields := []zap.Field{zap.String("op", op), zap.String("kind", string(apiclient.KindOf(err))), zap.Error(err)}
	if id != 0 {
		fields = append(fields, zap.Int("ticket_id", id))
	}
	if apiclient.KindOf(err) == apiclient.KindSessionExpired {
		c.session.Expire(ctx)
		c.tickets.Clear()
		c.logger.Warn("Session expired", fields...)
		return err
	}
	c.logger.Warn("Ticket operation failed", fields...)
	return err
}
