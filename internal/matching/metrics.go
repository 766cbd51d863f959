package matching

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes counters/histograms for matching flows.
type Metrics struct {
	attemptsTotal     *prometheus.CounterVec
	candidatesScanned *prometheus.HistogramVec
	executeLatency    prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		attemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carelink",
			Subsystem: "matching",
			Name:      "attempts_total",
			Help:      "Total matching attempts by trigger side and outcome",
		}, []string{"trigger", "outcome"}),
		candidatesScanned: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "carelink",
			Subsystem: "matching",
			Name:      "candidates_scanned",
			Help:      "Candidates evaluated per matching attempt",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50},
		}, []string{"trigger"}),
		executeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "carelink",
			Subsystem: "matching",
			Name:      "execute_latency_seconds",
			Help:      "Latency of match execution (writes plus notifications)",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.attemptsTotal, m.candidatesScanned, m.executeLatency)
	return m
}

func (m *Metrics) ObserveAttempt(trigger string, outcome Outcome) {
	if m == nil {
		return
	}
	m.attemptsTotal.WithLabelValues(trigger, string(outcome)).Inc()
}

func (m *Metrics) ObserveCandidates(trigger string, count int) {
	if m == nil {
		return
	}
	m.candidatesScanned.WithLabelValues(trigger).Observe(float64(count))
}

func (m *Metrics) ObserveExecuteLatency(seconds float64) {
	if m == nil {
		return
	}
	m.executeLatency.Observe(seconds)
}
