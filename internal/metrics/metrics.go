package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
)

// Metrics is the process-wide instrument set. A nil *Metrics is valid and
// records nothing, which keeps test wiring small.
type Metrics struct {
	relayAttempts    *prometheus.CounterVec
	rateLimitRetries prometheus.Counter
	lookups          *prometheus.CounterVec
	enrichDuration   prometheus.Histogram
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		relayAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_relay_attempts_total",
			Help: "Relay attempts by relay name and outcome.",
		}, []string{"relay", "outcome"}),
		rateLimitRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "tracker_rate_limit_retries_total",
			Help: "Retries triggered by upstream 429 responses.",
		}),
		lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_live_lookups_total",
			Help: "Live-game lookups by outcome.",
		}, []string{"outcome"}),
		enrichDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_enrich_duration_seconds",
			Help:    "Wall-clock time to enrich a full live game.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
		}),
	}
}

func (m *Metrics) RelayAttempt(relay, outcome string) {
	if m == nil {
		return
	}
	m.relayAttempts.WithLabelValues(relay, outcome).Inc()
}

func (m *Metrics) RateLimitRetry() {
	if m == nil {
		return
	}
	m.rateLimitRetries.Inc()
}

func (m *Metrics) Lookup(outcome string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveEnrich(d time.Duration) {
	if m == nil {
		return
	}
	m.enrichDuration.Observe(d.Seconds())
}

var Module = fx.Provide(New)
