package tickets

import (
	"sync"

	"github.com/afterdarksys/helpdesk/internal/models"
)

// Collection is the authoritative in-memory ticket list of a session. Every
// read hands out a copy so callers can derive projections without locking.
type Collection struct {
	mu      sync.RWMutex
	tickets []models.Ticket
	loaded  bool
}

// NewCollection creates an empty collection
func NewCollection() *Collection {
	return &Collection{}
}

// Replace swaps the whole list for a freshly fetched one
func (c *Collection) Replace(ts []models.Ticket) {
	cp := cloneAll(ts)
	c.mu.Lock()
	c.tickets = cp
	c.loaded = true
	c.mu.Unlock()
}

// Snapshot returns a copy of the current list
func (c *Collection) Snapshot() []models.Ticket {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneAll(c.tickets)
}

// Loaded returns true once a fetch has populated the collection
func (c *Collection) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Len returns the number of tickets held
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tickets)
}

// Get returns a copy of the ticket with the given id
func (c *Collection) Get(id int) (models.Ticket, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := range c.tickets {
		if c.tickets[i].ID == id {
			return c.tickets[i].Clone(), true
		}
	}
	return models.Ticket{}, false
}

// Upsert replaces the ticket with the same id, or appends it
func (c *Collection) Upsert(t models.Ticket) {
	t = t.Clone()
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.tickets {
		if c.tickets[i].ID == t.ID {
			c.tickets[i] = t
			return
		}
	}
	c.tickets = append(c.tickets, t)
}

// Update applies fn to the stored ticket with the given id and returns the
// ticket as it was before fn ran
func (c *Collection) Update(id int, fn func(*models.Ticket)) (models.Ticket, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.tickets {
		if c.tickets[i].ID == id {
			prev := c.tickets[i].Clone()
			fn(&c.tickets[i])
			return prev, true
		}
	}
	return models.Ticket{}, false
}

// Clear empties the collection, as on logout
func (c *Collection) Clear() {
	c.mu.Lock()
	c.tickets = nil
	c.loaded = false
	c.mu.Unlock()
}

func cloneAll(ts []models.Ticket) []models.Ticket {
	if ts == nil {
		return nil
	}
	out := make([]models.Ticket, len(ts))
	for i := range ts {
		out[i] = ts[i].Clone()
	}
	return out
}
