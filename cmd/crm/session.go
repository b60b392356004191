// ABOUTME: Opens the store for terminal commands and dispatches crm commands
// ABOUTME: One session per invocation; the store is closed when the command returns

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/2389/personal-crm/internal/crm"
	"github.com/2389/personal-crm/internal/store"
)

type session struct {
	store      store.Store
	svc        *crm.Service
	presenter  *terminalPresenter
	dispatcher *crm.Dispatcher
}

// openSession loads the config and opens the configured database.
// Terminal commands only log warnings unless debug logging is configured.
func (a *app) openSession(out io.Writer) (*session, error) {
	cfg, err := loadConfig(a.configPath)
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Logging
	if logCfg.Level != "debug" {
		logCfg.Level = "warn"
	}
	logger := setupLogger(logCfg)

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return newSession(s, out, logger), nil
}

func newSession(s store.Store, out io.Writer, logger *slog.Logger) *session {
	p := newTerminalPresenter(out)
	svc := crm.NewService(s, logger)
	return &session{
		store:      s,
		svc:        svc,
		presenter:  p,
		dispatcher: crm.NewDispatcher(svc, p, logger),
	}
}

// run dispatches cmd. A rejected outcome has already been printed and comes back as errRejected.
func (s *session) run(ctx context.Context, cmd crm.Command) error {
	if _, err := s.dispatcher.Dispatch(ctx, crm.ListState{}, cmd); err != nil {
		return err
	}
	if s.presenter.rejected {
		return errRejected
	}
	return nil
}

func (s *session) Close() error {
	return s.store.Close()
}
