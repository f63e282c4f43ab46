package metrics

import "github.com/prometheus/client_golang/prometheus"

// LifecycleMetrics exposes counters/histograms for the interaction lifecycle.
type LifecycleMetrics struct {
	phaseTransitions *prometheus.CounterVec
	alertsFired      *prometheus.CounterVec
	queueRefresh     *prometheus.HistogramVec
	activeSession    prometheus.Gauge
}

func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	m := &LifecycleMetrics{
		phaseTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "interaction",
			Name:      "phase_transitions_total",
			Help:      "Total phase transitions by target phase",
		}, []string{"phase"}),
		alertsFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "interaction",
			Name:      "duration_alerts_total",
			Help:      "Total duration warnings and alerts fired",
		}, []string{"severity"}),
		queueRefresh: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "queue",
			Name:      "refresh_latency_seconds",
			Help:      "Latency of waiting-queue reconciliation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		activeSession: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "clinic",
			Subsystem: "interaction",
			Name:      "active_session",
			Help:      "Whether an interaction session is currently active (0 or 1)",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.phaseTransitions, m.alertsFired, m.queueRefresh, m.activeSession)
	return m
}

func (m *LifecycleMetrics) ObservePhaseTransition(phase string) {
	if m == nil {
		return
	}
	m.phaseTransitions.WithLabelValues(phase).Inc()
}

func (m *LifecycleMetrics) ObserveAlert(severity string) {
	if m == nil {
		return
	}
	m.alertsFired.WithLabelValues(severity).Inc()
}

func (m *LifecycleMetrics) ObserveQueueRefresh(status string, seconds float64) {
	if m == nil {
		return
	}
	m.queueRefresh.WithLabelValues(status).Observe(seconds)
}

func (m *LifecycleMetrics) SetSessionActive(active bool) {
	if m == nil {
		return
	}
	if active {
		m.activeSession.Set(1)
	} else {
		m.activeSession.Set(0)
	}
}
