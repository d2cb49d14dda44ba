package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "giveaway_bot"

// Resolution outcomes.
const (
	OutcomeWinners = "winners"
	OutcomeEmpty   = "no_participants"
	OutcomeCleanup = "cleanup"
	OutcomeError   = "error"
)

// Metrics holds the Prometheus collectors of the bot. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Resolutions        *prometheus.CounterVec
	ResolutionDuration prometheus.Histogram
	OpenGiveaways      prometheus.Gauge
	Sweeps             *prometheus.CounterVec
	Signals            *prometheus.CounterVec
	RequestCounter     *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	DBConnPoolStats    *prometheus.GaugeVec
}

// New registers the collectors on reg; pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Resolutions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_total",
				Help:      "Giveaway resolutions by outcome",
			},
			[]string{"outcome"},
		),
		ResolutionDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolution_duration_seconds",
				Help:      "Time spent resolving one giveaway",
				Buckets:   prometheus.DefBuckets,
			},
		),
		OpenGiveaways: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "open_giveaways",
				Help:      "Open giveaways seen by the last reconcile",
			},
		),
		Sweeps: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sweeps_total",
				Help:      "Reconcile sweeps by status",
			},
			[]string{"status"},
		),
		Signals: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signals_total",
				Help:      "Participant signals by action and result",
			},
			[]string{"action", "result"},
		),
		RequestCounter: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		DBConnPoolStats: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connection_pool",
				Help:      "Database connection pool statistics",
			},
			[]string{"stat"},
		),
	}
}

func (m *Metrics) ObserveResolution(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(outcome).Inc()
	m.ResolutionDuration.Observe(took.Seconds())
}

func (m *Metrics) ObserveSweep(open int, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	} else {
		m.OpenGiveaways.Set(float64(open))
	}
	m.Sweeps.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveSignal(action, result string) {
	if m == nil {
		return
	}
	m.Signals.WithLabelValues(action, result).Inc()
}

func (m *Metrics) ObserveRequest(method, path string, status int, took time.Duration) {
	if m == nil {
		return
	}
	m.RequestCounter.WithLabelValues(method, path, statusClass(status)).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(took.Seconds())
}

// RecordDBPoolStats records database connection pool statistics
func (m *Metrics) RecordDBPoolStats(open, inUse, idle int, waitCount int64, waitDuration time.Duration) {
	if m == nil {
		return
	}
	m.DBConnPoolStats.WithLabelValues("open").Set(float64(open))
	m.DBConnPoolStats.WithLabelValues("in_use").Set(float64(inUse))
	m.DBConnPoolStats.WithLabelValues("idle").Set(float64(idle))
	m.DBConnPoolStats.WithLabelValues("wait_count").Set(float64(waitCount))
	m.DBConnPoolStats.WithLabelValues("wait_duration_ms").Set(float64(waitDuration.Milliseconds()))
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
