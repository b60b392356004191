// Package metrics exposes Prometheus metrics for the HTTP server and the store.
//
// New registers every collector on the given registry. Middleware wraps a
// handler with request counters, latency and in-flight gauges. InstrumentStore
// wraps a store.Store so each call is counted and timed, and the clients gauge
// reads the live client count on every scrape.
package metrics
