package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters shared by the lookup pipeline and the HTTP API.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	CacheLookups     *prometheus.CounterVec
	CacheWrites      *prometheus.CounterVec
	ProviderRequests *prometheus.CounterVec
	ProviderDuration *prometheus.HistogramVec
	Resolutions      *prometheus.CounterVec
	SessionsActive   prometheus.Gauge
	HTTPRequests     *prometheus.CounterVec
}

// New registers every whorep metric on reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "whorep_cache_lookups_total",
			Help: "Cache lookups by namespace and result (hit, miss)",
		}, []string{"namespace", "result"}),
		CacheWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "whorep_cache_writes_total",
			Help: "Cache namespace rewrites by namespace and outcome",
		}, []string{"namespace", "outcome"}),
		ProviderRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "whorep_provider_requests_total",
			Help: "Upstream provider requests by provider and outcome category",
		}, []string{"provider", "outcome"}),
		ProviderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "whorep_provider_request_duration_seconds",
			Help:    "Duration of upstream provider requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
		Resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "whorep_resolutions_total",
			Help: "Entity resolution outcomes by tier",
		}, []string{"tier"}),
		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "whorep_sessions_active",
			Help: "Traversal sessions currently held by the API",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "whorep_http_requests_total",
			Help: "HTTP requests by method and status code",
		}, []string{"method", "status"}),
	}
}

// CacheHit records a lookup that found a value.
func (m *Metrics) CacheHit(namespace string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(namespace, "hit").Inc()
}

// CacheMiss records a lookup that found nothing.
func (m *Metrics) CacheMiss(namespace string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(namespace, "miss").Inc()
}

func (m *Metrics) CacheWrite(namespace string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.CacheWrites.WithLabelValues(namespace, outcome).Inc()
}

// ObserveProvider records one upstream request. Call with time.Now() taken
// before the request and the error category ("ok" on success).
func (m *Metrics) ObserveProvider(provider, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.ProviderRequests.WithLabelValues(provider, outcome).Inc()
	m.ProviderDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
}

func (m *Metrics) Resolution(tier string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(tier).Inc()
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.SessionsActive.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
}

func (m *Metrics) HTTPRequest(method, status string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, status).Inc()
}
