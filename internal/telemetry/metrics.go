package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Command pipeline
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_commands_total",
		Help: "Transcripts accepted or discarded by the dialogue controller",
	}, []string{"outcome", "reason"})

	ClassificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_classifications_total",
		Help: "Classified commands by source and fallback reason",
	}, []string{"source", "reason"})

	ClassificationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voice_classification_latency_seconds",
		Help:    "Time from transcript to intent record",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	ActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_actions_dispatched_total",
		Help: "Actions dispatched by intent type",
	}, []string{"type"})

	ClassifierTokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_classifier_tokens_total",
		Help: "Tokens consumed by the remote classifier",
	}, []string{"kind"})

	ClassifierCostUSD = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_classifier_cost_usd_total",
		Help: "Estimated remote classifier spend in USD",
	})

	BreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_classifier_breaker_state",
		Help: "Classifier circuit breaker state (0 closed, 1 half-open, 2 open)",
	})

	// Host engines
	CaptureErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_capture_errors_total",
		Help: "Speech capture errors by code",
	}, []string{"code"})

	PlaybackErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_playback_errors_total",
		Help: "Speech playback errors by code",
	}, []string{"code"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_active_sessions",
		Help: "Connected bridge sessions",
	})
)
