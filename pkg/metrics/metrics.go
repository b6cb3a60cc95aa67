// Package metrics provides the centralized Prometheus metrics registry
// for the report tool. All metrics are defined in their respective
// packages (cupi, cache, ratelimit, report) to maintain modularity and
// avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the tool.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/cupi):
//   - cupi_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - cupi_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - cupi_errors_total{class} (Counter): Errors by class (auth, client, server, network)
//
// Retry Metrics (pkg/cupi):
//   - cupi_retries_total{error_class} (Counter): Retry attempts by error class
//   - cupi_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - cupi_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Pacing Metrics (pkg/ratelimit):
//   - cupi_request_throttles_total (Counter): Requests delayed by the pacer
//   - cupi_throttle_wait_seconds (Histogram): Time spent waiting on the pacer
//
// Cache Metrics (pkg/cache):
//   - cupi_cache_hits_total{layer="redis"} (Counter): Response cache hits by layer
//   - cupi_cache_misses_total (Counter): Response cache misses
//   - cupi_304_responses_total (Counter): 304 Not Modified responses
//   - cupi_conditional_requests_total (Counter): Conditional requests sent with validators
//   - cupi_cache_errors_total{operation} (Counter): Cache operation errors
//
// Pipeline Metrics (pkg/report):
//   - report_handlers_seen_total (Counter): Handler records fetched before filtering and dedup
//   - report_handlers_dropped_total{reason} (Counter): Records dropped ("duplicate", "filtered")
//   - report_schedule_resolutions_total{outcome} (Counter): Resolutions ("resolved", "unresolved", "error")
//   - report_schedule_cache_hits_total (Counter): Resolutions served from the in-process cache
//   - report_rows_written_total (Counter): Rows written to the output sink
//
// Example Prometheus Queries:
//
//   # Response cache hit rate
//   sum(rate(cupi_cache_hits_total[5m])) /
//   (sum(rate(cupi_cache_hits_total[5m])) + sum(rate(cupi_cache_misses_total[5m])))
//
//   # Request error rate
//   rate(cupi_errors_total[5m])
//
//   # P95 request latency
//   histogram_quantile(0.95, rate(cupi_request_duration_seconds_bucket[5m]))
//
//   # Dedup drop ratio
//   rate(report_handlers_dropped_total{reason="duplicate"}[5m]) / rate(report_handlers_seen_total[5m])
