package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveConversations prometheus.Gauge
	GatewayAttempts     *prometheus.CounterVec
	GatewayRotations    prometheus.Counter
	GatewayErrors       *prometheus.CounterVec
	TokensUsed          *prometheus.CounterVec
	AnswerLatency       prometheus.Histogram

	stages *stageWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveConversations: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_conversations",
			Help:      "Number of conversations with recent activity.",
		}),
		GatewayAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_attempts_total",
			Help:      "LLM gateway attempts by outcome.",
		}, []string{"outcome"}),
		GatewayRotations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_rotations_total",
			Help:      "Credential rotations triggered by recoverable failures.",
		}),
		GatewayErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_errors_total",
			Help:      "LLM gateway failures by category.",
		}, []string{"category"}),
		TokensUsed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_used_total",
			Help:      "Approximate tokens used by direction.",
		}, []string{"direction"}),
		AnswerLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "answer_latency_ms",
			Help:      "Latency from question received to answer ready in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 4000, 8000, 16000, 30000},
		}),
		stages: newStageWindow(256),
	}
}

func (m *Metrics) ObserveAnswerLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.AnswerLatency.Observe(float64(d.Milliseconds()))
	m.ObserveStage(StageTotal, d)
}

// ObserveStage records one pipeline stage duration in the rolling
// percentile window.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stages.Observe(stage, float64(d.Nanoseconds())/1e6)
}

// ObserveIndicator bumps a named event counter in the rolling window.
func (m *Metrics) ObserveIndicator(name string) {
	if m == nil {
		return
	}
	m.stages.ObserveIndicator(name)
}

// SnapshotStages summarizes the rolling window for the perf endpoint.
func (m *Metrics) SnapshotStages() StageSnapshot {
	return m.stages.Snapshot()
}

func (m *Metrics) ResetStages() {
	m.stages.Reset()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
