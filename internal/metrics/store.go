// ABOUTME: store.Store decorator that counts and times every call
// ABOUTME: Duplicate and not-found results count as ok; only real failures are errors

package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/2389/personal-crm/internal/store"
)

// instrumentedStore wraps a store.Store with call metrics.
type instrumentedStore struct {
	next store.Store
	m    *Metrics
}

var _ store.Store = (*instrumentedStore)(nil)

// InstrumentStore returns s wrapped so every call is recorded on m.
func InstrumentStore(s store.Store, m *Metrics) store.Store {
	return &instrumentedStore{next: s, m: m}
}

// observe records op. Expected domain outcomes are not failures.
func (s *instrumentedStore) observe(op string, start time.Time, err error) {
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrDuplicateEmail) {
		err = nil
	}
	s.m.observeStore(op, start, err)
}

func (s *instrumentedStore) InsertClient(ctx context.Context, c *store.Client) (int64, error) {
	start := time.Now()
	id, err := s.next.InsertClient(ctx, c)
	s.observe("insert_client", start, err)
	return id, err
}

func (s *instrumentedStore) GetClient(ctx context.Context, id int64) (*store.Client, error) {
	start := time.Now()
	c, err := s.next.GetClient(ctx, id)
	s.observe("get_client", start, err)
	return c, err
}

func (s *instrumentedStore) ListClients(ctx context.Context) ([]store.Client, error) {
	start := time.Now()
	out, err := s.next.ListClients(ctx)
	s.observe("list_clients", start, err)
	return out, err
}

func (s *instrumentedStore) SearchClients(ctx context.Context, query string) ([]store.Client, error) {
	start := time.Now()
	out, err := s.next.SearchClients(ctx, query)
	s.observe("search_clients", start, err)
	return out, err
}

func (s *instrumentedStore) UpdateClient(ctx context.Context, c *store.Client) (int64, error) {
	start := time.Now()
	n, err := s.next.UpdateClient(ctx, c)
	s.observe("update_client", start, err)
	return n, err
}

func (s *instrumentedStore) DeleteClient(ctx context.Context, id int64) (int64, error) {
	start := time.Now()
	n, err := s.next.DeleteClient(ctx, id)
	s.observe("delete_client", start, err)
	return n, err
}

func (s *instrumentedStore) CountClients(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := s.next.CountClients(ctx)
	s.observe("count_clients", start, err)
	return n, err
}

func (s *instrumentedStore) GetProfile(ctx context.Context) (*store.Profile, error) {
	start := time.Now()
	p, err := s.next.GetProfile(ctx)
	s.observe("get_profile", start, err)
	return p, err
}

func (s *instrumentedStore) SaveProfile(ctx context.Context, p *store.Profile) error {
	start := time.Now()
	err := s.next.SaveProfile(ctx, p)
	s.observe("save_profile", start, err)
	return err
}

func (s *instrumentedStore) AppendActivity(ctx context.Context, e *store.ActivityEntry) error {
	start := time.Now()
	err := s.next.AppendActivity(ctx, e)
	s.observe("append_activity", start, err)
	return err
}

func (s *instrumentedStore) ListActivity(ctx context.Context, f store.ActivityFilter) ([]store.ActivityEntry, error) {
	start := time.Now()
	out, err := s.next.ListActivity(ctx, f)
	s.observe("list_activity", start, err)
	return out, err
}

func (s *instrumentedStore) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

func (s *instrumentedStore) Close() error {
	return s.next.Close()
}
