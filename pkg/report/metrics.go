package report

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the report pipeline.
var (
	handlersSeenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "report_handlers_seen_total",
		Help: "Total call handler records fetched, before filtering and dedup",
	})

	handlersDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "report_handlers_dropped_total",
		Help: "Handler records dropped by reason",
	}, []string{"reason"}) // "duplicate", "filtered"

	resolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "report_schedule_resolutions_total",
		Help: "Schedule resolutions by outcome",
	}, []string{"outcome"}) // "resolved", "unresolved", "error"

	resolutionCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "report_schedule_cache_hits_total",
		Help: "Schedule resolutions served from the in-process cache",
	})

	rowsWrittenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "report_rows_written_total",
		Help: "Report rows written to the output sink",
	})
)
