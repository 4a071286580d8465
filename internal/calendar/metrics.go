package calendar

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "meetingcal"

// Metrics holds the pipeline's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	sourceFetch    *prometheus.CounterVec
	syncDuration   prometheus.Histogram
	cacheResponses *prometheus.CounterVec
	eventsCached   prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg when reg
// is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sourceFetch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "source_fetch_total",
			Help:      "Listing fetches per source by outcome.",
		}, []string{"source", "outcome"}),
		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "sync_duration_seconds",
			Help:      "Wall time of a full multi-source sync.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16},
		}),
		cacheResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_responses_total",
			Help:      "GetEvents responses by cache result (hit, miss, stale).",
		}, []string{"result"}),
		eventsCached: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "events_cached",
			Help:      "Events in the most recently written snapshot.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.sourceFetch, m.syncDuration, m.cacheResponses, m.eventsCached)
	}
	return m
}

func (m *Metrics) observeFetch(source, outcome string) {
	if m == nil {
		return
	}
	m.sourceFetch.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) observeSync(seconds float64, events int) {
	if m == nil {
		return
	}
	m.syncDuration.Observe(seconds)
	m.eventsCached.Set(float64(events))
}

func (m *Metrics) observeCache(result string) {
	if m == nil {
		return
	}
	m.cacheResponses.WithLabelValues(result).Inc()
}
