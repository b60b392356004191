// ABOUTME: Tests for the JSON API: client CRUD, idempotent create, profile, activity and auth
// ABOUTME: Drives Server.Handler() with httptest over an in-memory store

package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/personal-crm/internal/auth"
	"github.com/2389/personal-crm/internal/crm"
	"github.com/2389/personal-crm/internal/store"
	"github.com/2389/personal-crm/internal/webui"
)

const (
	anaJSON   = `{"name":"Ana","email":"ana@example.com","phone":"987654321"}`
	brunoJSON = `{"name":"Bruno","email":"bruno@example.com","phone":"123456789"}`
)

func decode[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v), body)
	return v
}

func createClient(t *testing.T, srv *Server, body string) store.Client {
	t.Helper()
	rec := serve(srv, http.MethodPost, "/api/clients", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[store.Client](t, rec.Body.String())
}

func TestCreateAndGetClient(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := serve(srv, http.MethodPost, "/api/clients", anaJSON)
	require.Equal(t, http.StatusCreated, rec.Code)
	c := decode[store.Client](t, rec.Body.String())
	assert.Equal(t, int64(1), c.ID)
	assert.Equal(t, "Ana", c.Name)
	assert.Equal(t, "/api/clients/1", rec.Header().Get("Location"))

	rec = serve(srv, http.MethodGet, "/api/clients/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[store.Client](t, rec.Body.String())
	assert.Equal(t, "ana@example.com", got.Email)
}

func TestCreateTrimsInput(t *testing.T) {
	srv := newTestServer(t, nil)

	c := createClient(t, srv, `{"name":"  Ana  ","email":" ana@example.com ","phone":"987654321 "}`)
	assert.Equal(t, "Ana", c.Name)
	assert.Equal(t, "ana@example.com", c.Email)
	assert.Equal(t, "987654321", c.Phone)
}

func TestCreateClientValidation(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := serve(srv, http.MethodPost, "/api/clients", `{"name":"Al","email":"nope","phone":"12a"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decode[ValidationErrorResponse](t, rec.Body.String())
	assert.Equal(t, "invalid input", resp.Error)
	kinds := map[string][]string{}
	for _, v := range resp.Violations {
		kinds[v.Field] = append(kinds[v.Field], v.Kind)
		assert.NotEmpty(t, v.Message)
	}
	assert.Equal(t, []string{"too_short"}, kinds["name"])
	assert.Equal(t, []string{"invalid_format"}, kinds["email"])
	assert.ElementsMatch(t, []string{"too_short", "non_numeric"}, kinds["phone"])

	metricsBody := serve(srv, http.MethodGet, "/metrics", "").Body.String()
	assert.Contains(t, metricsBody, `crm_validation_rejections_total{field="name",kind="too_short"} 1`)

	count := decode[CountResponse](t, serve(srv, http.MethodGet, "/api/clients/count", "").Body.String())
	assert.Zero(t, count.Count)
}

func TestWebFormRejectionsAreCounted(t *testing.T) {
	srv := newTestServer(t, nil)

	form := url.Values{"name": {"Al"}, "email": {"ana@example.com"}, "phone": {"600123456"}, "csrf_token": {"tok"}}
	rec := serve(srv, http.MethodPost, "/clients", form.Encode(),
		"Content-Type", "application/x-www-form-urlencoded",
		"Cookie", webui.CSRFCookieName+"=tok")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	metricsBody := serve(srv, http.MethodGet, "/metrics", "").Body.String()
	assert.Contains(t, metricsBody, `crm_validation_rejections_total{field="name",kind="too_short"} 1`)
}

func TestCreateClientDuplicateEmail(t *testing.T) {
	srv := newTestServer(t, nil)
	createClient(t, srv, anaJSON)

	rec := serve(srv, http.MethodPost, "/api/clients", `{"name":"Ana Two","email":"ana@example.com","phone":"111222333"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	resp := decode[DuplicateErrorResponse](t, rec.Body.String())
	assert.Equal(t, "email", resp.Field)
	assert.Equal(t, crm.FeedbackDuplicateEmail, resp.Error)

	count := decode[CountResponse](t, serve(srv, http.MethodGet, "/api/clients/count", "").Body.String())
	assert.Equal(t, 1, count.Count)
}

func TestCreateInvalidJSON(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := serve(srv, http.MethodPost, "/api/clients", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid JSON body"}`, rec.Body.String())
}

func TestIdempotentCreate(t *testing.T) {
	srv := newTestServer(t, nil)

	first := serve(srv, http.MethodPost, "/api/clients", anaJSON, IdempotencyKeyHeader, "key-1")
	require.Equal(t, http.StatusCreated, first.Code)
	second := serve(srv, http.MethodPost, "/api/clients", anaJSON, IdempotencyKeyHeader, "key-1")
	require.Equal(t, http.StatusOK, second.Code)

	a := decode[store.Client](t, first.Body.String())
	b := decode[store.Client](t, second.Body.String())
	assert.Equal(t, a.ID, b.ID)

	count := decode[CountResponse](t, serve(srv, http.MethodGet, "/api/clients/count", "").Body.String())
	assert.Equal(t, 1, count.Count)

	metricsBody := serve(srv, http.MethodGet, "/metrics", "").Body.String()
	assert.Contains(t, metricsBody, "crm_idempotent_replays_total 1")
}

func TestIdempotentCreateInFlight(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.dedupe.CheckAndMark("key-1")

	rec := serve(srv, http.MethodPost, "/api/clients", anaJSON, IdempotencyKeyHeader, "key-1")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestIdempotencyKeyReleasedOnRejection(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := serve(srv, http.MethodPost, "/api/clients", `{"name":"","email":"","phone":""}`, IdempotencyKeyHeader, "key-1")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(srv, http.MethodPost, "/api/clients", anaJSON, IdempotencyKeyHeader, "key-1")
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestIdempotentReplayOfDeletedClient(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := serve(srv, http.MethodPost, "/api/clients", anaJSON, IdempotencyKeyHeader, "key-1")
	require.Equal(t, http.StatusCreated, rec.Code)
	serve(srv, http.MethodDelete, "/api/clients/1", "")

	rec = serve(srv, http.MethodPost, "/api/clients", anaJSON, IdempotencyKeyHeader, "key-1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListAndSearchClients(t *testing.T) {
	srv := newTestServer(t, nil)
	createClient(t, srv, brunoJSON)
	createClient(t, srv, anaJSON)

	rec := serve(srv, http.MethodGet, "/api/clients", "")
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[crm.ListState](t, rec.Body.String())
	assert.Equal(t, 2, all.Total)
	require.Len(t, all.Clients, 2)
	assert.Equal(t, "Ana", all.Clients[0].Name)

	rec = serve(srv, http.MethodGet, "/api/clients?q=brun", "")
	found := decode[crm.ListState](t, rec.Body.String())
	assert.Equal(t, "brun", found.Query)
	assert.Equal(t, 1, found.Total)

	rec = serve(srv, http.MethodGet, "/api/clients?q=zzz", "")
	assert.JSONEq(t, `{"query":"zzz","clients":[],"total":0}`, rec.Body.String())
}

func TestUpdateClient(t *testing.T) {
	srv := newTestServer(t, nil)
	createClient(t, srv, anaJSON)

	rec := serve(srv, http.MethodPut, "/api/clients/1", `{"name":"Ana Maria","email":"ana@example.com","phone":"987654321"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[UpdateResponse](t, rec.Body.String())
	assert.Equal(t, 1, resp.Updated)
	require.NotNil(t, resp.Client)
	assert.Equal(t, "Ana Maria", resp.Client.Name)

	rec = serve(srv, http.MethodPut, "/api/clients/99", anaJSON)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"updated":0}`, rec.Body.String())

	rec = serve(srv, http.MethodPut, "/api/clients/1", `{"name":"Ana","email":"ana@example.com","phone":"12"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateClientDuplicateEmail(t *testing.T) {
	srv := newTestServer(t, nil)
	createClient(t, srv, anaJSON)
	createClient(t, srv, brunoJSON)

	rec := serve(srv, http.MethodPut, "/api/clients/2", `{"name":"Bruno","email":"ana@example.com","phone":"123456789"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "email", decode[DuplicateErrorResponse](t, rec.Body.String()).Field)
}

func TestDeleteClient(t *testing.T) {
	srv := newTestServer(t, nil)
	createClient(t, srv, anaJSON)

	rec := serve(srv, http.MethodDelete, "/api/clients/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":1}`, rec.Body.String())

	rec = serve(srv, http.MethodDelete, "/api/clients/1", "")
	assert.JSONEq(t, `{"deleted":0}`, rec.Body.String())

	rec = serve(srv, http.MethodGet, "/api/clients/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvalidClientID(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, path := range []string{"/api/clients/abc", "/api/clients/0", "/api/clients/-3"} {
		rec := serve(srv, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestProfile(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := serve(srv, http.MethodGet, "/api/profile", "")
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[store.Profile](t, rec.Body.String())
	assert.Equal(t, store.NoInformation, p.Name)
	assert.Equal(t, store.NoInformation, p.Bio)

	rec = serve(srv, http.MethodPut, "/api/profile", `{"name":"Dana","email":"dana@example.com","phone":"600700800","bio":""}`)
	require.Equal(t, http.StatusOK, rec.Code)
	p = decode[store.Profile](t, rec.Body.String())
	assert.Equal(t, "Dana", p.Name)
	assert.Equal(t, store.NoInformation, p.Bio)

	rec = serve(srv, http.MethodPut, "/api/profile", `{"name":"Dana","email":"dana@example.com","phone":"600700800","bio":"short"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[ValidationErrorResponse](t, rec.Body.String())
	require.Len(t, resp.Violations, 1)
	assert.Equal(t, "bio", resp.Violations[0].Field)
}

func TestActivity(t *testing.T) {
	srv := newTestServer(t, nil)
	createClient(t, srv, anaJSON)
	createClient(t, srv, brunoJSON)
	serve(srv, http.MethodDelete, "/api/clients/1", "")

	rec := serve(srv, http.MethodGet, "/api/activity", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[ActivityResponse](t, rec.Body.String())
	require.Len(t, resp.Entries, 3)
	assert.Equal(t, store.ActivityClientDeleted, resp.Entries[0].Action)
	assert.Equal(t, "1", resp.Entries[0].TargetID)

	rec = serve(srv, http.MethodGet, "/api/activity?limit=1", "")
	assert.Len(t, decode[ActivityResponse](t, rec.Body.String()).Entries, 1)

	rec = serve(srv, http.MethodGet, "/api/activity?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestActivityEmpty(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := serve(srv, http.MethodGet, "/api/activity", "")
	assert.JSONEq(t, `{"entries":[]}`, rec.Body.String())
}

func TestAPIRequiresBearerWhenSecretSet(t *testing.T) {
	secret := strings.Repeat("s", 32)
	cfg := testConfig()
	cfg.Auth.JWTSecret = secret
	srv := newTestServer(t, cfg)

	rec := serve(srv, http.MethodGet, "/api/clients", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	verifier, err := auth.NewJWTVerifier([]byte(secret))
	require.NoError(t, err)
	token, err := verifier.Generate("tester", time.Hour)
	require.NoError(t, err)

	rec = serve(srv, http.MethodGet, "/api/clients", "", "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)

	// health and the web UI stay open
	assert.Equal(t, http.StatusOK, serve(srv, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, serve(srv, http.MethodGet, "/", "").Code)
}
