// ABOUTME: TTL cache mapping idempotency keys to the client id they created
// ABOUTME: Backed by go-cache; Add gives an atomic check-and-mark

package dedupe

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// pending marks a key whose first request has not finished yet.
const pending int64 = 0

// Status is the state of an idempotency key.
type Status int

const (
	// StatusNew means the key was unseen and is now reserved by the caller.
	StatusNew Status = iota
	// StatusInFlight means another request holding the key has not completed.
	StatusInFlight
	// StatusDone means a client was already created for the key.
	StatusDone
)

// Cache remembers which client each idempotency key produced.
type Cache struct {
	c   *gocache.Cache
	ttl time.Duration
}

// New creates a cache whose entries live for ttl.
func New(ttl time.Duration) *Cache {
	return &Cache{
		c:   gocache.New(ttl, time.Minute),
		ttl: ttl,
	}
}

// CheckAndMark reserves key if it is unseen. For a StatusDone key it also returns
// the id of the client the first request created.
func (c *Cache) CheckAndMark(key string) (Status, int64) {
	if err := c.c.Add(key, pending, gocache.DefaultExpiration); err == nil {
		return StatusNew, 0
	}

	v, ok := c.c.Get(key)
	if !ok {
		// expired between Add and Get; try once more
		if err := c.c.Add(key, pending, gocache.DefaultExpiration); err == nil {
			return StatusNew, 0
		}
		return StatusInFlight, 0
	}
	id, _ := v.(int64)
	if id == pending {
		return StatusInFlight, 0
	}
	return StatusDone, id
}

// Complete records the client id created for a reserved key.
func (c *Cache) Complete(key string, clientID int64) {
	c.c.Set(key, clientID, gocache.DefaultExpiration)
}

// Release drops a reservation so a failed request can be retried.
func (c *Cache) Release(key string) {
	c.c.Delete(key)
}

// Len returns the number of keys held, expired ones included until the janitor runs.
func (c *Cache) Len() int {
	return c.c.ItemCount()
}

// TTL returns how long keys are remembered.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Close drops every key.
func (c *Cache) Close() {
	c.c.Flush()
}
