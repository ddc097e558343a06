// Package pacing spaces out summarizer calls. It replaces a hardcoded
// inter-article sleep with a configurable minimum interval plus an optional
// per-run request budget.
package pacing

import (
	"context"
	"sync"
	"time"

	"vndigest/internal/logger"
)

// Pacer enforces a minimum interval between calls and an optional cap on how
// many calls one run may make. A zero budget means unlimited.
type Pacer struct {
	mu       sync.Mutex
	interval time.Duration
	budget   int
	used     int
	denied   int
	lastCall time.Time
}

// New builds a Pacer.
func New(minInterval time.Duration, budget int) *Pacer {
	return &Pacer{interval: minInterval, budget: budget}
}

// Allow consumes one unit of budget. It returns false once the cap is reached;
// callers then degrade to placeholder output instead of calling the API.
func (p *Pacer) Allow() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.budget > 0 && p.used >= p.budget {
		p.denied++
		logger.Warn("summary request budget exhausted", "used", p.used, "budget", p.budget)
		return false
	}
	p.used++
	return true
}

// Wait blocks until the minimum interval since the previous call has elapsed.
// The first call never waits. Cancellation of ctx ends the wait early.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	var pause time.Duration
	if !p.lastCall.IsZero() {
		if elapsed := time.Since(p.lastCall); elapsed < p.interval {
			pause = p.interval - elapsed
		}
	}
	p.lastCall = time.Now().Add(pause)
	p.mu.Unlock()

	if pause <= 0 {
		return nil
	}

	timer := time.NewTimer(pause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Stats reports pacing counters for the monitoring endpoint.
func (p *Pacer) Stats() map[string]interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	return map[string]interface{}{
		"requests_used":   p.used,
		"requests_denied": p.denied,
		"request_budget":  p.budget,
		"min_interval_ms": p.interval.Milliseconds(),
	}
}
