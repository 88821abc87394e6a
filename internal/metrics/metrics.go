// Package metrics exposes Prometheus instrumentation for the hybrid
// response pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TurnsTotal counts completed conversation turns.
	TurnsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "solace",
		Name:      "turns_total",
		Help:      "Completed conversation turns.",
	})

	// MergeDecisions counts merge outcomes by primary source.
	MergeDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "solace",
		Name:      "merge_decisions_total",
		Help:      "Merge outcomes by primary source (custom, remote, hybrid).",
	}, []string{"source"})

	// GenerationDuration observes per-provider generation latency.
	GenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "solace",
		Name:      "generation_duration_seconds",
		Help:      "Candidate generation latency by provider.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"provider"})

	// LocalConfidence observes the confidence the local model reports.
	LocalConfidence = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "solace",
		Name:      "local_confidence",
		Help:      "Confidence scores reported by the local model.",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
	})

	// ActiveSessions tracks the number of live sessions.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "solace",
		Name:      "active_sessions",
		Help:      "Sessions currently held in the store.",
	})

	// EmotionalStates counts turns by classified emotional state.
	EmotionalStates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "solace",
		Name:      "emotional_states_total",
		Help:      "Turns by classified emotional state.",
	}, []string{"state"})
)
