package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "medtriage"

// TriageMetrics exposes counters/histograms for the chat and booking flows.
type TriageMetrics struct {
	turnsTotal         *prometheus.CounterVec
	matchesTotal       *prometheus.CounterVec
	confirmationsTotal *prometheus.CounterVec
	appointmentsTotal  *prometheus.CounterVec
	llmLatency         *prometheus.HistogramVec
	activeSessions     prometheus.Gauge
}

func NewTriageMetrics(reg prometheus.Registerer) *TriageMetrics {
	m := &TriageMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dialogue",
			Name:      "turns_total",
			Help:      "Chat turns by classified intent",
		}, []string{"intent"}),
		matchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dialogue",
			Name:      "symptom_matches_total",
			Help:      "Symptom analyses by outcome and top urgency",
		}, []string{"outcome", "urgency"}),
		confirmationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dialogue",
			Name:      "confirmations_total",
			Help:      "Answers to the booking offer",
		}, []string{"answer"}),
		appointmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "appointments",
			Name:      "operations_total",
			Help:      "Appointment store operations by result",
		}, []string{"operation", "result"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "latency_seconds",
			Help:      "Latency of language model completions",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"provider", "status"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dialogue",
			Name:      "active_sessions",
			Help:      "Sessions currently held in memory",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.matchesTotal, m.confirmationsTotal, m.appointmentsTotal, m.llmLatency, m.activeSessions)
	return m
}

func (m *TriageMetrics) ObserveTurn(intent string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(intent).Inc()
}

func (m *TriageMetrics) ObserveMatch(found bool, urgency string) {
	if m == nil {
		return
	}
	outcome := "unmatched"
	if found {
		outcome = "matched"
	}
	if urgency == "" {
		urgency = "none"
	}
	m.matchesTotal.WithLabelValues(outcome, urgency).Inc()
}

func (m *TriageMetrics) ObserveConfirmation(answer string) {
	if m == nil {
		return
	}
	m.confirmationsTotal.WithLabelValues(answer).Inc()
}

func (m *TriageMetrics) ObserveAppointment(operation, result string) {
	if m == nil {
		return
	}
	m.appointmentsTotal.WithLabelValues(operation, result).Inc()
}

func (m *TriageMetrics) ObserveLLM(provider, status string, seconds float64) {
	if m == nil {
		return
	}
	m.llmLatency.WithLabelValues(provider, status).Observe(seconds)
}

func (m *TriageMetrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}
