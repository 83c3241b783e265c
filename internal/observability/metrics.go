package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline collectors on a private registry so tests can
// build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	renderSeconds     *prometheus.HistogramVec
	generationsTotal  *prometheus.CounterVec
	deliveriesTotal   *prometheus.CounterVec
	templateCache     *prometheus.CounterVec
	orphanedDeletions *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "claimpacket_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "claimpacket_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		renderSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "claimpacket_report_render_seconds",
			Help:    "Time spent turning merged HTML into a PDF.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"backend", "outcome"}),
		generationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "claimpacket_report_generations_total",
			Help: "Report generations by artifact type and outcome.",
		}, []string{"type", "outcome"}),
		deliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "claimpacket_deliveries_total",
			Help: "Artifact deliveries by recipient type and outcome.",
		}, []string{"recipient_type", "outcome"}),
		templateCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "claimpacket_template_cache_total",
			Help: "Merged template cache lookups.",
		}, []string{"result"}),
		orphanedDeletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "claimpacket_storage_cleanup_total",
			Help: "Best-effort object deletions after failed or superseded writes.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.renderSeconds,
		m.generationsTotal,
		m.deliveriesTotal,
		m.templateCache,
		m.orphanedDeletions,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveHTTP(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (m *Metrics) ObserveRender(backend string, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.renderSeconds.WithLabelValues(backend, outcome(err)).Observe(d.Seconds())
}

func (m *Metrics) IncGeneration(artifactType string, err error) {
	if m == nil {
		return
	}
	m.generationsTotal.WithLabelValues(artifactType, outcome(err)).Inc()
}

func (m *Metrics) IncDelivery(recipientType string, err error) {
	if m == nil {
		return
	}
	m.deliveriesTotal.WithLabelValues(recipientType, outcome(err)).Inc()
}

// IncTemplateCache records "hit", "miss" or "error".
func (m *Metrics) IncTemplateCache(result string) {
	if m == nil {
		return
	}
	m.templateCache.WithLabelValues(result).Inc()
}

func (m *Metrics) IncStorageCleanup(err error) {
	if m == nil {
		return
	}
	m.orphanedDeletions.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
