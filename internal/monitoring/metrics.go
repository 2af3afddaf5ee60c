package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolution sources.
const (
	SourceCache       = "cache"
	SourceNetwork     = "network"
	SourceFilesystem  = "filesystem"
	SourceReplacement = "replacement"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	ResolutionsTotal    *prometheus.CounterVec
	NotFoundTotal       *prometheus.CounterVec
	CollectedTotal      *prometheus.CounterVec
	FetchDuration       prometheus.Histogram
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ResolutionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "embed_resolutions_total",
			Help: "The total number of reference resolutions by source and outcome",
		}, []string{"source", "outcome"}), // outcome: 'hit', 'miss', 'ok', 'failed'
		NotFoundTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "embed_not_found_total",
			Help: "The total number of references that could not be resolved",
		}, []string{"kind"}), // 'image' or 'attachment'
		CollectedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "embed_resources_collected_total",
			Help: "The total number of unique resources emitted",
		}, []string{"kind"}),
		FetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "embed_fetch_duration_seconds",
			Help:    "Duration of remote resource fetches.",
			Buckets: prometheus.DefBuckets,
		}),
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

func (m *Metrics) IncResolution(source, outcome string) {
	if m == nil {
		return
	}
	m.ResolutionsTotal.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) IncNotFound(kind string) {
	if m == nil {
		return
	}
	m.NotFoundTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) AddCollected(kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.CollectedTotal.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveHTTP(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
}
