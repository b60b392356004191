// ABOUTME: Prometheus collectors for HTTP requests, store calls and client totals
// ABOUTME: Registers on a caller-supplied registry and serves it with promhttp

package metrics

import (
	"context"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/2389/personal-crm/internal/store"
)

const namespace = "crm"

// Metrics holds every collector the service exports.
type Metrics struct {
	reg *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        *prometheus.GaugeVec

	storeOpsTotal   *prometheus.CounterVec
	storeOpDuration *prometheus.HistogramVec

	idempotentReplays prometheus.Counter
	validationRejects *prometheus.CounterVec
}

// New creates the collectors and registers them on reg. A nil reg uses a
// fresh registry, which keeps tests independent.
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		reg: reg,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpInflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_inflight_requests",
			Help:      "Requests in flight by method and path",
		}, []string{"method", "path"}),
		storeOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Store calls by operation and result",
		}, []string{"op", "result"}), // result: ok|error
		storeOpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Store call latency",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"op"}),
		idempotentReplays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "idempotent_replays_total",
			Help:      "Create requests answered from the idempotency cache",
		}),
		validationRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_rejections_total",
			Help:      "Rejected writes by field and kind",
		}, []string{"field", "kind"}),
	}

	for _, c := range []prometheus.Collector{
		m.httpRequestsTotal, m.httpRequestDuration, m.httpInflight,
		m.storeOpsTotal, m.storeOpDuration,
		m.idempotentReplays, m.validationRejects,
	} {
		if err := registerCollector(reg, c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// WatchClients registers a gauge that counts clients on every scrape.
func (m *Metrics) WatchClients(s store.ClientStore) error {
	return registerCollector(m.reg, &clientsCollector{
		store: s,
		desc:  prometheus.NewDesc(namespace+"_clients", "Number of stored clients", nil, nil),
	})
}

// RecordReplay counts a create answered from the idempotency cache.
func (m *Metrics) RecordReplay() {
	m.idempotentReplays.Inc()
}

// RecordRejection counts one rejected field.
func (m *Metrics) RecordRejection(field, kind string) {
	m.validationRejects.WithLabelValues(field, kind).Inc()
}

// Middleware instruments requests with counters, latency and in-flight gauges.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := strings.ToUpper(r.Method)
		pathLabel := normalizePath(r.URL.Path)

		m.httpInflight.WithLabelValues(method, pathLabel).Inc()
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w}
		defer func() {
			m.httpInflight.WithLabelValues(method, pathLabel).Dec()
			m.httpRequestDuration.WithLabelValues(method, pathLabel).Observe(time.Since(start).Seconds())

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			m.httpRequestsTotal.WithLabelValues(method, pathLabel, strconv.Itoa(status)).Inc()
		}()

		next.ServeHTTP(rec, r)
	})
}

func (m *Metrics) observeStore(op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.storeOpsTotal.WithLabelValues(op, result).Inc()
	m.storeOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// registerCollector registers c on reg, ignoring duplicates.
func registerCollector(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

// clientsCollector reports the client count at scrape time.
type clientsCollector struct {
	store store.ClientStore
	desc  *prometheus.Desc
}

func (c *clientsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *clientsCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	n, err := c.store.CountClients(ctx)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.desc, err)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(n))
}

var idSegmentRE = regexp.MustCompile(`^[0-9]+$|^[0-9a-fA-F]{8}-[0-9a-fA-F-]{27}$`)

// normalizePath replaces numeric ids and uuids with :id to bound label cardinality.
func normalizePath(p string) string {
	clean := strings.SplitN(p, "?", 2)[0]
	segments := strings.Split(clean, "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		if idSegmentRE.MatchString(seg) {
			seg = ":id"
		}
		out = append(out, seg)
	}
	if len(out) == 0 {
		return "/"
	}
	return "/" + strings.Join(out, "/")
}
