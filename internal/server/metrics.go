package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lectern_queries_total",
		Help: "Answered queries by outcome (ok, error)",
	}, []string{"outcome"})

	queryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lectern_query_duration_seconds",
		Help:    "End-to-end query handling latency",
		Buckets: prometheus.DefBuckets,
	})

	toolCallsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lectern_tool_calls_total",
		Help: "Tool invocations requested by the model",
	})
)
