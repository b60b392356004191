// ABOUTME: In-memory Store implementation mirroring SQLiteStore semantics
// ABOUTME: Used by tests and by `crm serve --memory` for throwaway sessions

package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu       sync.RWMutex
	clients  map[int64]*Client // keyed by client ID
	byEmail  map[string]int64  // email -> client ID, mirrors the UNIQUE constraint
	nextID   int64
	prefs    map[string]string
	prefTime time.Time
	activity []ActivityEntry
	now      func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		clients: make(map[int64]*Client),
		byEmail: make(map[string]int64),
		nextID:  1,
		prefs:   make(map[string]string),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// InsertClient stores a copy of c and assigns the next ID.
func (m *MemoryStore) InsertClient(ctx context.Context, c *Client) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.byEmail[c.Email]; taken {
		return 0, &DuplicateError{Field: "email", Value: c.Email}
	}

	now := m.now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	c.ID = m.nextID
	m.nextID++

	// Make a copy to avoid external modification
	stored := *c
	m.clients[stored.ID] = &stored
	m.byEmail[stored.Email] = stored.ID
	return stored.ID, nil
}

// GetClient retrieves a client by ID.
func (m *MemoryStore) GetClient(ctx context.Context, id int64) (*Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.clients[id]
	if !ok {
		return nil, ErrNotFound
	}
	result := *c
	return &result, nil
}

// ListClients returns all clients sorted by name.
func (m *MemoryStore) ListClients(ctx context.Context) ([]Client, error) {
	return m.filter(func(*Client) bool { return true }), nil
}

// SearchClients matches query as a case-sensitive substring of name or email.
func (m *MemoryStore) SearchClients(ctx context.Context, query string) ([]Client, error) {
	return m.filter(func(c *Client) bool {
		return strings.Contains(c.Name, query) || strings.Contains(c.Email, query)
	}), nil
}

func (m *MemoryStore) filter(keep func(*Client) bool) []Client {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []Client{}
	for _, c := range m.clients {
		if keep(c) {
			out = append(out, *c)
		}
	}
	sortClients(out)
	return out
}

// sortClients orders by name then id, the same as ORDER BY name, id in SQLite.
func sortClients(clients []Client) {
	sort.Slice(clients, func(i, j int) bool {
		if clients[i].Name != clients[j].Name {
			return clients[i].Name < clients[j].Name
		}
		return clients[i].ID < clients[j].ID
	})
}

// UpdateClient overwrites an existing client. Returns 0 when the ID is unknown.
func (m *MemoryStore) UpdateClient(ctx context.Context, c *Client) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.clients[c.ID]
	if !ok {
		return 0, nil
	}
	if owner, taken := m.byEmail[c.Email]; taken && owner != c.ID {
		return 0, &DuplicateError{Field: "email", Value: c.Email}
	}

	c.UpdatedAt = m.now()
	c.CreatedAt = existing.CreatedAt

	delete(m.byEmail, existing.Email)
	stored := *c
	m.clients[c.ID] = &stored
	m.byEmail[stored.Email] = stored.ID
	return 1, nil
}

// DeleteClient removes a client. Returns 0 when the ID is unknown.
func (m *MemoryStore) DeleteClient(ctx context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.clients[id]
	if !ok {
		return 0, nil
	}
	delete(m.byEmail, c.Email)
	delete(m.clients, id)
	return 1, nil
}

// CountClients returns the number of stored clients.
func (m *MemoryStore) CountClients(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients), nil
}

// GetProfile returns the saved profile with placeholders for missing keys.
func (m *MemoryStore) GetProfile(ctx context.Context) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p := profileFromValues(m.prefs)
	p.UpdatedAt = m.prefTime
	return p, nil
}

// SaveProfile replaces all four profile keys.
func (m *MemoryStore) SaveProfile(ctx context.Context, p *Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p.UpdatedAt = m.now()
	for k, v := range profileValues(p) {
		m.prefs[k] = v
	}
	m.prefTime = p.UpdatedAt
	return nil
}

// AppendActivity records an activity entry.
func (m *MemoryStore) AppendActivity(ctx context.Context, e *ActivityEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = m.now()
	}
	m.activity = append(m.activity, *e)
	return nil
}

// ListActivity returns matching entries newest first.
func (m *MemoryStore) ListActivity(ctx context.Context, f ActivityFilter) ([]ActivityEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []ActivityEntry{}
	for i := len(m.activity) - 1; i >= 0; i-- {
		e := m.activity[i]
		if f.Since != nil && e.Timestamp.Before(*f.Since) {
			continue
		}
		if f.Action != nil && e.Action != *f.Action {
			continue
		}
		if f.TargetID != nil && e.TargetID != *f.TargetID {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	if limit := normalizeActivityLimit(f.Limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}

