// Package metrics holds the process-wide Prometheus collectors for
// the pipewalk host. Collectors register on the default registry and
// are served by the HTTP server's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipewalk_sessions_created_total",
		Help: "Number of walkthrough sessions created.",
	})

	SessionsDestroyed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipewalk_sessions_destroyed_total",
		Help: "Number of walkthrough sessions destroyed.",
	})

	StageAdvances = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipewalk_stage_advances_total",
		Help: "Number of applied transformations, by resulting stage.",
	}, []string{"stage"})

	PipelineFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipewalk_pipeline_fallbacks_total",
		Help: "Number of pipeline documents that failed to parse and fell back to the default pipeline.",
	})
)
