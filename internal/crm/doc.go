// Package crm is the application layer between the front ends and the store.
//
// Service validates input with the validate package before anything reaches
// storage, and records every successful mutation in the activity log.
// List state (the current query and the clients it matched) is passed in and
// returned explicitly, so the service itself holds no per-caller state.
//
// Front ends drive the service through commands:
//
//	d := crm.NewDispatcher(svc, presenter, logger)
//	err := d.Dispatch(ctx, crm.Search{Query: "ana"})
//
// The Dispatcher turns each command into an Outcome and hands it to the
// Presenter. The terminal CLI and the HTML web UI each implement Presenter.
package crm
