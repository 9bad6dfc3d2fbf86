package tickets

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/afterdarksys/helpdesk/internal/models"
)

func TestCollectionSnapshotIsCopy(t *testing.T) {
	c := NewCollection()
	assert.False(t, c.Loaded())

	c.Replace(sampleTickets())
	assert.True(t, c.Loaded())
	assert.Equal(t, 7, c.Len())

	snap := c.Snapshot()
	snap[0].Subject = "mutated"

	got, ok := c.Get(1)
	assert.True(t, ok)
	assert.Equal(t, "VPN drops", got.Subject)
}

func TestCollectionUpsertAndUpdate(t *testing.T) {
	c := NewCollection()
	c.Replace(sampleTickets())

	c.Upsert(models.Ticket{ID: 2, Subject: "Printer fixed"})
	got, _ := c.Get(2)
	assert.Equal(t, "Printer fixed", got.Subject)

	c.Upsert(models.Ticket{ID: 50, Subject: "New"})
	assert.Equal(t, 8, c.Len())

	prev, ok := c.Update(1, func(t *models.Ticket) { t.Rate = 3 })
	assert.True(t, ok)
	assert.Equal(t, 0, prev.Rate)
	got, _ = c.Get(1)
	assert.Equal(t, 3, got.Rate)

	_, ok = c.Update(404, func(t *models.Ticket) {})
	assert.False(t, ok)

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.False(t, c.Loaded())
}

func TestCollectionConcurrentAccess(t *testing.T) {
	c := NewCollection()
	c.Replace(sampleTickets())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			c.Update(n%7+1, func(t *models.Ticket) { t.Rate = n % 5 })
		}(i)
		go func() {
			defer wg.Done()
			_ = Search(c.Snapshot(), "vpn")
		}()
	}
	wg.Wait()
	assert.Equal(t, 7, c.Len())
}
