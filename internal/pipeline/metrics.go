package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JaimeStill/scribe/pkg/metrics"
)

// Metrics are the pipeline collectors. A nil *Metrics records nothing.
type Metrics struct {
	messages      *prometheus.CounterVec
	conversations *prometheus.CounterVec
	proposals     *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
	watermarkLag  *prometheus.GaugeVec
	runs          *prometheus.CounterVec
}

// NewMetrics registers the pipeline collectors with r.
func NewMetrics(r *metrics.Registry) *Metrics {
	return &Metrics{
		messages: r.Counter(
			"pipeline_messages_total",
			"Messages processed, by outcome.",
			"outcome",
		),
		conversations: r.Counter(
			"pipeline_conversations_total",
			"Conversations handled, by route.",
			"route",
		),
		proposals: r.Counter(
			"pipeline_proposals_total",
			"Proposals generated, by review outcome.",
			"outcome",
		),
		batchDuration: r.Histogram(
			"pipeline_batch_duration_seconds",
			"Wall time spent processing one batch.",
			[]float64{1, 5, 15, 30, 60, 120, 300, 600},
			"stream",
		),
		watermarkLag: r.Gauge(
			"pipeline_watermark_lag_seconds",
			"Distance between now and the stream watermark after the last advance.",
			"stream",
		),
		runs: r.Counter(
			"pipeline_runs_total",
			"Pipeline runs, by result.",
			"result",
		),
	}
}

func (m *Metrics) message(outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.messages.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) conversation(route string) {
	if m == nil {
		return
	}
	m.conversations.WithLabelValues(route).Inc()
}

func (m *Metrics) proposal(outcome string) {
	if m == nil {
		return
	}
	m.proposals.WithLabelValues(outcome).Inc()
}

func (m *Metrics) batch(stream string, d time.Duration) {
	if m == nil {
		return
	}
	m.batchDuration.WithLabelValues(stream).Observe(d.Seconds())
}

func (m *Metrics) lag(stream string, d time.Duration) {
	if m == nil {
		return
	}
	m.watermarkLag.WithLabelValues(stream).Set(d.Seconds())
}

func (m *Metrics) run(result string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(result).Inc()
}
