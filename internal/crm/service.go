// ABOUTME: Service validates client and profile input and persists it through the store
// ABOUTME: Every successful mutation is also appended to the activity log

package crm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/2389/personal-crm/internal/store"
	"github.com/2389/personal-crm/internal/validate"
)

// ProfileTarget is the activity target used for profile saves.
const ProfileTarget = "profile"

// ClientInput is the raw form data for a client.
type ClientInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Validate trims and checks the input.
func (in ClientInput) Validate() validate.Result {
	return validate.ValidateClient(in.Name, in.Email, in.Phone)
}

func (in ClientInput) client(id int64) *store.Client {
	return &store.Client{
		ID:    id,
		Name:  strings.TrimSpace(in.Name),
		Email: strings.TrimSpace(in.Email),
		Phone: strings.TrimSpace(in.Phone),
	}
}

// ProfileInput is the raw form data for the personal profile.
type ProfileInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Bio   string `json:"bio"`
}

// Validate trims and checks the input.
func (in ProfileInput) Validate() validate.Result {
	return validate.ValidateProfile(in.Name, in.Email, in.Phone, in.Bio)
}

// ListState is what a list screen shows: the active query and its matches.
// Total is the number of clients shown, not the number stored.
type ListState struct {
	Query   string         `json:"query"`
	Clients []store.Client `json:"clients"`
	Total   int            `json:"total"`
}

// RejectionRecorder is told about every field a validation rejects.
type RejectionRecorder interface {
	RecordRejection(field, kind string)
}

// Service is the application layer over a store.Store.
type Service struct {
	store     store.Store
	rejection RejectionRecorder
	logger    *slog.Logger
}

// NewService creates a Service.
func NewService(s store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  s,
		logger: logger.With("component", "crm"),
	}
}

// SetRejectionRecorder reports validation failures from every caller to r.
// Call it before the service is shared.
func (s *Service) SetRejectionRecorder(r RejectionRecorder) {
	s.rejection = r
}

// check returns the validation error for res, if any, and reports its violations.
func (s *Service) check(res validate.Result) error {
	err := res.Err()
	if err != nil && s.rejection != nil {
		for _, v := range res.Violations() {
			s.rejection.RecordRejection(v.Field, string(v.Kind))
		}
	}
	return err
}

// CreateClient validates in and inserts a new client.
// Returns *validate.ValidationError or *store.DuplicateError on rejection.
func (s *Service) CreateClient(ctx context.Context, in ClientInput) (*store.Client, error) {
	if err := s.check(in.Validate()); err != nil {
		return nil, err
	}

	c := in.client(0)
	if _, err := s.store.InsertClient(ctx, c); err != nil {
		return nil, err
	}

	s.record(ctx, store.ActivityClientCreated, store.ClientTarget(c.ID), map[string]any{
		"name":  c.Name,
		"email": c.Email,
	})
	s.logger.Info("client created", "id", c.ID)
	return c, nil
}

// UpdateClient validates in and overwrites client id.
// The bool is false when no client has that id; that is not an error.
func (s *Service) UpdateClient(ctx context.Context, id int64, in ClientInput) (*store.Client, bool, error) {
	if err := s.check(in.Validate()); err != nil {
		return nil, false, err
	}

	c := in.client(id)
	n, err := s.store.UpdateClient(ctx, c)
	if err != nil {
		return nil, false, err
	}
	if n == 0 {
		s.logger.Debug("update skipped, client not found", "id", id)
		return nil, false, nil
	}

	updated, err := s.store.GetClient(ctx, id)
	if err != nil {
		return nil, true, fmt.Errorf("reloading client: %w", err)
	}

	s.record(ctx, store.ActivityClientUpdated, store.ClientTarget(id), map[string]any{
		"name":  updated.Name,
		"email": updated.Email,
	})
	s.logger.Info("client updated", "id", id)
	return updated, true, nil
}

// DeleteClient removes client id. The bool is false when it did not exist.
func (s *Service) DeleteClient(ctx context.Context, id int64) (bool, error) {
	n, err := s.store.DeleteClient(ctx, id)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	s.record(ctx, store.ActivityClientDeleted, store.ClientTarget(id), nil)
	s.logger.Info("client deleted", "id", id)
	return true, nil
}

// GetClient returns client id or store.ErrNotFound.
func (s *Service) GetClient(ctx context.Context, id int64) (*store.Client, error) {
	return s.store.GetClient(ctx, id)
}

// CountClients returns how many clients are stored.
func (s *Service) CountClients(ctx context.Context) (int, error) {
	return s.store.CountClients(ctx)
}

// Refresh reruns the query held in state and returns the new state.
// A blank query lists every client.
func (s *Service) Refresh(ctx context.Context, state ListState) (ListState, error) {
	query := strings.TrimSpace(state.Query)

	var (
		clients []store.Client
		err     error
	)
	if query == "" {
		clients, err = s.store.ListClients(ctx)
	} else {
		clients, err = s.store.SearchClients(ctx, query)
	}
	if err != nil {
		return state, fmt.Errorf("loading clients: %w", err)
	}

	return ListState{
		Query:   query,
		Clients: clients,
		Total:   len(clients),
	}, nil
}

// Profile returns the saved profile.
func (s *Service) Profile(ctx context.Context) (*store.Profile, error) {
	return s.store.GetProfile(ctx)
}

// SaveProfile validates in and stores it as the profile.
func (s *Service) SaveProfile(ctx context.Context, in ProfileInput) (*store.Profile, error) {
	if err := s.check(in.Validate()); err != nil {
		return nil, err
	}

	p := &store.Profile{
		Name:  strings.TrimSpace(in.Name),
		Email: strings.TrimSpace(in.Email),
		Phone: strings.TrimSpace(in.Phone),
		Bio:   strings.TrimSpace(in.Bio),
	}
	if err := s.store.SaveProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("saving profile: %w", err)
	}

	s.record(ctx, store.ActivityProfileSaved, ProfileTarget, nil)
	s.logger.Info("profile saved")
	return s.store.GetProfile(ctx)
}

// Activity returns the most recent activity entries, newest first.
func (s *Service) Activity(ctx context.Context, limit int) ([]store.ActivityEntry, error) {
	return s.store.ListActivity(ctx, store.ActivityFilter{Limit: limit})
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// record appends to the activity log. Failures are logged, not returned:
// the mutation itself already succeeded.
func (s *Service) record(ctx context.Context, action store.ActivityAction, target string, detail map[string]any) {
	err := s.store.AppendActivity(ctx, &store.ActivityEntry{
		Action:   action,
		TargetID: target,
		Detail:   detail,
	})
	if err != nil {
		s.logger.Warn("failed to record activity", "action", action, "target", target, "error", err)
	}
}

// IsRejection reports whether err is a validation or duplicate rejection
// rather than a storage failure.
func IsRejection(err error) bool {
	return errors.Is(err, validate.ErrInvalid) || errors.Is(err, store.ErrDuplicateEmail)
}
