package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 流水线指标，/metrics端点暴露
var (
	RowsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cleanstream_rows_processed_total",
		Help: "Number of rows that completed the cleaning pipeline, by storage status.",
	}, []string{"status"})

	StageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cleanstream_pipeline_stage_failures_total",
		Help: "Number of pipeline stage failures, fatal or degraded, by stage.",
	}, []string{"stage"})

	PipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cleanstream_pipeline_duration_seconds",
		Help:    "End-to-end duration of a single row's pipeline run.",
		Buckets: prometheus.DefBuckets,
	})
)
