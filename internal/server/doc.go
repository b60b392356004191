// Package server wires the CRM service to HTTP.
//
// # Routes
//
//	GET    /api/clients?q=       list state {query, clients, total}
//	POST   /api/clients          create (Idempotency-Key honored)
//	GET    /api/clients/count    {count}
//	GET    /api/clients/{id}     one client
//	PUT    /api/clients/{id}     {updated, client}
//	DELETE /api/clients/{id}     {deleted}
//	GET    /api/profile          profile
//	PUT    /api/profile          validated save
//	GET    /api/activity?limit=  {entries}
//	GET    /health               liveness
//	GET    /health/ready         store ping
//	GET    /metrics              Prometheus, when enabled
//
// Everything else is served by the webui package.
//
// When auth.jwt_secret is configured every /api route requires a bearer
// token; health, metrics and the web UI stay open.
//
// # Errors
//
// Error bodies are {"error": "..."}. Validation failures add a
// "violations" array and duplicate emails add the conflicting "field".
package server
