package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meetpilot",
		Subsystem: "pipeline",
		Name:      "turns_total",
		Help:      "Completed pipeline turns by outcome.",
	}, []string{"outcome"})

	gateRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meetpilot",
		Subsystem: "pipeline",
		Name:      "gate_rejections_total",
		Help:      "Turns stopped before the pipeline ran, by gate reason.",
	}, []string{"reason"})

	agentDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "meetpilot",
		Subsystem: "pipeline",
		Name:      "agent_duration_seconds",
		Help:      "Wall-clock duration of each agent call.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"agent"})
)
