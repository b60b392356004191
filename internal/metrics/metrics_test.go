// ABOUTME: Tests for HTTP and store metrics
// ABOUTME: Reads values back through Registry.Gather

package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/personal-crm/internal/store"
)

func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)
	return m, reg
}

// metricValue returns the counter or gauge value of name whose labels include want.
func metricValue(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue next
				}
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	return 0
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"":                                        "/",
		"/":                                       "/",
		"/api/clients":                            "/api/clients",
		"/api/clients/42":                         "/api/clients/:id",
		"/api/clients/42?x=1":                     "/api/clients/:id",
		"/clients/7/edit":                         "/clients/:id/edit",
		"/x/123e4567-e89b-12d3-a456-426614174000": "/x/:id",
		"/api/clients/count":                      "/api/clients/count",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizePath(in), in)
	}
}

func TestMiddleware_CountsRequests(t *testing.T) {
	m, reg := newTestMetrics(t)

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/404") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	for _, path := range []string{"/api/clients/1", "/api/clients/2", "/api/clients/404"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, metricValue(t, reg, "crm_http_requests_total",
		map[string]string{"method": "GET", "path": "/api/clients/:id", "status": "200"}))
	assert.Equal(t, 1.0, metricValue(t, reg, "crm_http_requests_total",
		map[string]string{"method": "GET", "path": "/api/clients/:id", "status": "404"}))
	assert.Equal(t, 0.0, metricValue(t, reg, "crm_http_inflight_requests",
		map[string]string{"method": "GET", "path": "/api/clients/:id"}))
}

func TestInstrumentStore(t *testing.T) {
	m, reg := newTestMetrics(t)
	s := InstrumentStore(store.NewMemoryStore(), m)
	ctx := context.Background()

	_, err := s.InsertClient(ctx, &store.Client{Name: "Ada", Email: "ada@example.com", Phone: "600000001"})
	require.NoError(t, err)
	_, err = s.InsertClient(ctx, &store.Client{Name: "Ada", Email: "ada@example.com", Phone: "600000001"})
	require.ErrorIs(t, err, store.ErrDuplicateEmail)
	_, err = s.GetClient(ctx, 99)
	require.ErrorIs(t, err, store.ErrNotFound)

	assert.Equal(t, 2.0, metricValue(t, reg, "crm_store_operations_total",
		map[string]string{"op": "insert_client", "result": "ok"}), "duplicates are not store failures")
	assert.Equal(t, 1.0, metricValue(t, reg, "crm_store_operations_total",
		map[string]string{"op": "get_client", "result": "ok"}))
}

func TestWatchClients(t *testing.T) {
	m, reg := newTestMetrics(t)
	s := store.NewMemoryStore()
	require.NoError(t, m.WatchClients(s))

	assert.Equal(t, 0.0, metricValue(t, reg, "crm_clients", nil))

	_, err := s.InsertClient(context.Background(), &store.Client{Name: "Bo", Email: "bo@example.com", Phone: "600000002"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, metricValue(t, reg, "crm_clients", nil))
}

func TestHandler_ServesRegistry(t *testing.T) {
	m, _ := newTestMetrics(t)
	m.RecordReplay()
	m.RecordRejection("email", "invalid_format")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "crm_idempotent_replays_total 1")
	assert.Contains(t, string(body), `crm_validation_rejections_total{field="email",kind="invalid_format"} 1`)
}

func TestNew_RegistersTwiceWithoutError(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.NoError(t, err, "already registered collectors are tolerated")
}
