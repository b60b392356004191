// ABOUTME: Tests for the HTML front end using httptest and the in-memory store
// ABOUTME: Covers listing, search, client forms, delete confirmation, profile pages and CSRF

package webui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/personal-crm/internal/crm"
	"github.com/2389/personal-crm/internal/store"
)

const testToken = "test-csrf-token"

func newTestUI(t *testing.T) (*http.ServeMux, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	t.Cleanup(func() { _ = s.Close() })

	ui := New(crm.NewService(s, nil), nil)
	mux := http.NewServeMux()
	ui.RegisterRoutes(mux)
	return mux, s
}

func seed(t *testing.T, s store.Store, name, email, phone string) int64 {
	t.Helper()
	id, err := s.InsertClient(context.Background(), &store.Client{Name: name, Email: email, Phone: phone})
	require.NoError(t, err)
	return id
}

func get(mux http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func post(mux http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	form.Set("csrf_token", testToken)
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: testToken})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestListShowsClientsAndTotal(t *testing.T) {
	mux, s := newTestUI(t)
	seed(t, s, "Bruno", "bruno@example.com", "123456789")
	seed(t, s, "Ana", "ana@example.com", "987654321")

	rec := get(mux, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Total clients: 2")
	assert.Less(t, strings.Index(body, "Ana"), strings.Index(body, "Bruno"), "clients sorted by name")
	assert.Contains(t, rec.Header().Get("Set-Cookie"), CSRFCookieName)
}

func TestListSearch(t *testing.T) {
	mux, s := newTestUI(t)
	seed(t, s, "Ana", "ana@example.com", "987654321")
	seed(t, s, "Bruno", "bruno@example.com", "123456789")

	rec := get(mux, "/?q=brun")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Total clients: 1")
	assert.Contains(t, body, "Bruno")
	assert.NotContains(t, body, "ana@example.com")

	rec = get(mux, "/?q=nobody")
	assert.Contains(t, rec.Body.String(), "No clients match")
}

func TestCreateClient(t *testing.T) {
	mux, s := newTestUI(t)

	rec := post(mux, "/clients", url.Values{
		"name":  {"Carla"},
		"email": {"carla@example.com"},
		"phone": {"555123456"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?flash="+url.QueryEscape(crm.FeedbackClientSaved), rec.Header().Get("Location"))

	n, err := s.CountClients(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rec = get(mux, rec.Header().Get("Location"))
	assert.Contains(t, rec.Body.String(), crm.FeedbackClientSaved)
}

func TestCreateClientRejected(t *testing.T) {
	mux, s := newTestUI(t)

	rec := post(mux, "/clients", url.Values{
		"name":  {"Al"},
		"email": {"not-an-email"},
		"phone": {"12ab"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, crm.FeedbackFixErrors)
	assert.Contains(t, body, "Name must be at least 3 characters")
	assert.Contains(t, body, "Enter a valid email address")
	assert.Contains(t, body, "Phone must contain only digits")
	assert.Contains(t, body, `value="not-an-email"`, "input is kept")

	n, err := s.CountClients(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateClientDuplicateEmail(t *testing.T) {
	mux, s := newTestUI(t)
	seed(t, s, "Ana", "ana@example.com", "987654321")

	rec := post(mux, "/clients", url.Values{
		"name":  {"Another Ana"},
		"email": {"ana@example.com"},
		"phone": {"123456789"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), crm.FeedbackDuplicateEmail)
}

func TestPostWithoutCSRFIsForbidden(t *testing.T) {
	mux, s := newTestUI(t)

	form := url.Values{"name": {"Carla"}, "email": {"carla@example.com"}, "phone": {"555123456"}}
	req := httptest.NewRequest(http.MethodPost, "/clients", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: testToken})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	n, _ := s.CountClients(context.Background())
	assert.Zero(t, n)
}

func TestCSRFHeaderAccepted(t *testing.T) {
	mux, _ := newTestUI(t)

	req := httptest.NewRequest(http.MethodPost, "/clients/999/delete", nil)
	req.Header.Set("X-CSRF-Token", testToken)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: testToken})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestEditClient(t *testing.T) {
	mux, s := newTestUI(t)
	id := seed(t, s, "Ana", "ana@example.com", "987654321")
	path := "/clients/" + itoa(id)

	rec := get(mux, path+"/edit")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="ana@example.com"`)
	assert.Contains(t, rec.Body.String(), `action="`+path+`"`)

	rec = post(mux, path, url.Values{
		"name":  {"Ana Maria"},
		"email": {"ana@example.com"},
		"phone": {"987654321"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	c, err := s.GetClient(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", c.Name)
}

func TestEditMissingClientRedirects(t *testing.T) {
	mux, _ := newTestUI(t)

	rec := get(mux, "/clients/42/edit")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), url.QueryEscape(crm.FeedbackClientNotFound))
}

func TestInvalidIDIsNotFound(t *testing.T) {
	mux, _ := newTestUI(t)

	assert.Equal(t, http.StatusNotFound, get(mux, "/clients/abc/edit").Code)
	assert.Equal(t, http.StatusNotFound, get(mux, "/clients/0/delete").Code)
}

func TestDeleteClient(t *testing.T) {
	mux, s := newTestUI(t)
	id := seed(t, s, "Ana", "ana@example.com", "987654321")
	path := "/clients/" + itoa(id) + "/delete"

	rec := get(mux, path)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Are you sure you want to delete Ana?")

	rec = post(mux, path, url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?flash="+url.QueryEscape(crm.FeedbackClientDeleted), rec.Header().Get("Location"))

	_, err := s.GetClient(context.Background(), id)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMutationsKeepSearchQuery(t *testing.T) {
	mux, s := newTestUI(t)
	ana := seed(t, s, "Ana", "ana@example.com", "987654321")
	bruno := seed(t, s, "Bruno", "bruno@example.com", "123456789")

	rec := get(mux, "/?q=Ana")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `/clients/`+itoa(ana)+`/edit?q=Ana`)
	assert.Contains(t, rec.Body.String(), `/clients/new?q=Ana`)

	rec = get(mux, "/clients/"+itoa(ana)+"/edit?q=Ana")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="q" value="Ana"`)

	rec = post(mux, "/clients/"+itoa(ana), url.Values{
		"name":  {"Ana Maria"},
		"email": {"ana@example.com"},
		"phone": {"987654321"},
		"q":     {"Ana"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?flash="+url.QueryEscape(crm.FeedbackClientSaved)+"&q=Ana", rec.Header().Get("Location"))

	rec = get(mux, rec.Header().Get("Location"))
	assert.Contains(t, rec.Body.String(), `value="Ana"`)
	assert.Contains(t, rec.Body.String(), "Ana Maria")
	assert.NotContains(t, rec.Body.String(), "Bruno")

	rec = post(mux, "/clients/"+itoa(bruno)+"/delete", url.Values{"q": {"Ana"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?flash="+url.QueryEscape(crm.FeedbackClientDeleted)+"&q=Ana", rec.Header().Get("Location"))

	rec = post(mux, "/clients", url.Values{
		"name":  {"Carla"},
		"email": {"carla@example.com"},
		"phone": {"555123456"},
		"q":     {"Ana"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?flash="+url.QueryEscape(crm.FeedbackClientSaved)+"&q=Ana", rec.Header().Get("Location"))
}

func TestProfilePlaceholder(t *testing.T) {
	mux, _ := newTestUI(t)

	rec := get(mux, "/profile")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), store.NoInformation)

	rec = get(mux, "/profile/edit")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), store.NoInformation, "placeholder is not prefilled")
}

func TestSaveProfile(t *testing.T) {
	mux, _ := newTestUI(t)

	rec := post(mux, "/profile", url.Values{
		"name":  {"Dana"},
		"email": {"dana@example.com"},
		"phone": {"600700800"},
		"bio":   {"I like **clean** records."},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/profile?flash="+url.QueryEscape(crm.FeedbackProfileSaved), rec.Header().Get("Location"))

	rec = get(mux, "/profile")
	body := rec.Body.String()
	assert.Contains(t, body, "dana@example.com")
	assert.Contains(t, body, "<strong>clean</strong>")

	rec = get(mux, "/profile/edit")
	assert.Contains(t, rec.Body.String(), `value="Dana"`)

	rec = get(mux, "/profile/edit?clear=1")
	assert.NotContains(t, rec.Body.String(), `value="Dana"`)
}

func TestSaveProfileRejected(t *testing.T) {
	mux, _ := newTestUI(t)

	rec := post(mux, "/profile", url.Values{
		"name":  {""},
		"email": {"dana@example.com"},
		"phone": {"600700800"},
		"bio":   {"short"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Name is required")
	assert.Contains(t, body, "Bio must be at least 10 characters")
}

func TestFlashFromIgnoresUnknownMessages(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?flash="+url.QueryEscape("<script>"), nil)
	msg, warn := flashFrom(r)
	assert.Empty(t, msg)
	assert.False(t, warn)

	r = httptest.NewRequest(http.MethodGet, "/?flash="+url.QueryEscape(crm.FeedbackClientNotFound), nil)
	msg, warn = flashFrom(r)
	assert.Equal(t, crm.FeedbackClientNotFound, msg)
	assert.True(t, warn)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
