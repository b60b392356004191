// ABOUTME: Command dispatch for front ends: commands in, Outcomes out to a Presenter
// ABOUTME: List state is passed into Dispatch and returned, never held by the dispatcher

package crm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/2389/personal-crm/internal/store"
	"github.com/2389/personal-crm/internal/validate"
)

// Feedback messages shown after a command.
const (
	FeedbackClientSaved    = "Client saved"
	FeedbackClientDeleted  = "Client deleted"
	FeedbackClientNotFound = "Client not found"
	FeedbackFixErrors      = "Please fix the errors"
	FeedbackDuplicateEmail = "A client with this email already exists"
	FeedbackProfileSaved   = "Profile saved"
)

// Command is something a front end asks the application to do.
type Command interface {
	commandName() string
}

// Search filters the client list by a name or email substring.
type Search struct{ Query string }

// Create adds a new client.
type Create struct{ Input ClientInput }

// Edit replaces the fields of an existing client.
type Edit struct {
	ID    int64
	Input ClientInput
}

// Delete removes a client.
type Delete struct{ ID int64 }

// Open loads one client, typically to fill an edit form.
type Open struct{ ID int64 }

// ShowProfile loads the personal profile.
type ShowProfile struct{}

// SaveProfile validates and stores the personal profile.
type SaveProfile struct{ Input ProfileInput }

func (Search) commandName() string      { return "search" }
func (Create) commandName() string      { return "create" }
func (Edit) commandName() string        { return "edit" }
func (Delete) commandName() string      { return "delete" }
func (Open) commandName() string        { return "open" }
func (ShowProfile) commandName() string { return "show_profile" }
func (SaveProfile) commandName() string { return "save_profile" }

// Outcome is what a front end needs to render after a command.
type Outcome struct {
	Command    Command
	List       *ListState
	Client     *store.Client
	Profile    *store.Profile
	Feedback   string
	Violations []validate.Violation

	// DuplicateField names the unique field a rejected write collided on.
	DuplicateField string
}

// Rejected reports whether the command's input was refused.
func (o Outcome) Rejected() bool {
	return len(o.Violations) > 0 || o.DuplicateField != ""
}

// Presenter renders outcomes. The CLI and the web UI each implement it.
type Presenter interface {
	Present(ctx context.Context, o Outcome) error
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(ctx context.Context, o Outcome) error

// Present calls f.
func (f PresenterFunc) Present(ctx context.Context, o Outcome) error {
	return f(ctx, o)
}

// Dispatcher runs commands against a Service and presents the results.
type Dispatcher struct {
	svc       *Service
	presenter Presenter
	logger    *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(svc *Service, presenter Presenter, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		svc:       svc,
		presenter: presenter,
		logger:    logger.With("component", "dispatcher"),
	}
}

// Dispatch runs cmd with the caller's list state and returns the new state.
// Rejected input is presented, not returned; only storage and presenter
// failures come back as errors.
func (d *Dispatcher) Dispatch(ctx context.Context, state ListState, cmd Command) (ListState, error) {
	out := Outcome{Command: cmd}
	var err error

	switch c := cmd.(type) {
	case Search:
		state.Query = c.Query
		state, err = d.refresh(ctx, state, &out)

	case Create:
		var client *store.Client
		client, err = d.svc.CreateClient(ctx, c.Input)
		if err = rejection(err, &out); err == nil && !out.Rejected() {
			out.Client = client
			out.Feedback = FeedbackClientSaved
			state, err = d.refresh(ctx, state, &out)
		}

	case Edit:
		var (
			client *store.Client
			found  bool
		)
		client, found, err = d.svc.UpdateClient(ctx, c.ID, c.Input)
		if err = rejection(err, &out); err == nil && !out.Rejected() {
			if found {
				out.Client = client
				out.Feedback = FeedbackClientSaved
			} else {
				out.Feedback = FeedbackClientNotFound
			}
			state, err = d.refresh(ctx, state, &out)
		}

	case Delete:
		var found bool
		if found, err = d.svc.DeleteClient(ctx, c.ID); err == nil {
			out.Feedback = FeedbackClientDeleted
			if !found {
				out.Feedback = FeedbackClientNotFound
			}
			state, err = d.refresh(ctx, state, &out)
		}

	case Open:
		var client *store.Client
		client, err = d.svc.GetClient(ctx, c.ID)
		if errors.Is(err, store.ErrNotFound) {
			out.Feedback = FeedbackClientNotFound
			err = nil
		} else {
			out.Client = client
		}

	case ShowProfile:
		out.Profile, err = d.svc.Profile(ctx)

	case SaveProfile:
		var profile *store.Profile
		profile, err = d.svc.SaveProfile(ctx, c.Input)
		if err = rejection(err, &out); err == nil && !out.Rejected() {
			out.Profile = profile
			out.Feedback = FeedbackProfileSaved
		}

	default:
		return state, fmt.Errorf("unknown command %T", cmd)
	}

	if err != nil {
		d.logger.Error("command failed", "command", cmd.commandName(), "error", err)
		return state, err
	}

	d.logger.Debug("dispatched", "command", cmd.commandName(), "feedback", out.Feedback)
	if err := d.presenter.Present(ctx, out); err != nil {
		return state, fmt.Errorf("presenting %s: %w", cmd.commandName(), err)
	}
	return state, nil
}

func (d *Dispatcher) refresh(ctx context.Context, state ListState, out *Outcome) (ListState, error) {
	next, err := d.svc.Refresh(ctx, state)
	if err != nil {
		return state, err
	}
	out.List = &next
	return next, nil
}

// rejection moves validation and duplicate errors into out and returns
// whatever error is left.
func rejection(err error, out *Outcome) error {
	var verr *validate.ValidationError
	if errors.As(err, &verr) {
		out.Violations = verr.Violations
		out.Feedback = FeedbackFixErrors
		return nil
	}
	var derr *store.DuplicateError
	if errors.As(err, &derr) {
		out.DuplicateField = derr.Field
		out.Feedback = FeedbackDuplicateEmail
		return nil
	}
	return err
}
