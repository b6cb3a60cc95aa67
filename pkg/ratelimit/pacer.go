// Package ratelimit paces requests against the Unity Connection admin API.
//
// The vmrest interface serves the same node that processes calls, so an
// audit run must not flood it. The pacer enforces a minimum interval
// between requests; it gates every request before the client sends it.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for request pacing.
var (
	cupiRequestThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cupi_request_throttles_total",
		Help: "Total number of requests delayed by the pacer",
	})

	cupiThrottleWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cupi_throttle_wait_seconds",
		Help:    "Time spent waiting on the pacer before sending a request",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2},
	})
)

// Pacer enforces a minimum interval between consecutive requests.
// A zero interval disables pacing entirely.
type Pacer struct {
	minInterval time.Duration
	logger      zerolog.Logger

	mu   sync.Mutex
	last time.Time
}

// NewPacer creates a pacer with the given minimum request interval.
func NewPacer(minInterval time.Duration) *Pacer {
	return &Pacer{
		minInterval: minInterval,
		logger:      log.With().Str("component", "pacer").Logger(),
	}
}

// Wait blocks until the minimum interval since the previous request has
// elapsed, or the context is cancelled.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.minInterval <= 0 {
		return nil
	}

	p.mu.Lock()
	now := time.Now()
	wait := p.minInterval - now.Sub(p.last)
	if wait < 0 {
		wait = 0
	}
	// Reserve the slot before sleeping so callers queue up in order.
	p.last = now.Add(wait)
	p.mu.Unlock()

	if wait == 0 {
		return nil
	}

	cupiRequestThrottlesTotal.Inc()
	cupiThrottleWaitSeconds.Observe(wait.Seconds())
	p.logger.Debug().
		Dur("wait", wait).
		Msg("Pacing request")

	select {
	case <-ctx.Done():
		return fmt.Errorf("pacer wait: %w", ctx.Err())
	case <-time.After(wait):
		return nil
	}
}
