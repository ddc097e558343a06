// Package metrics keeps in-memory counters for one digest run, exposed by the
// optional monitoring endpoint.
package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	ItemsSeen           int64
	ItemsProcessed      int64
	RichExtractions     int64
	PartialExtractions  int64
	DegradedExtractions int64
	SummariesOK         int64
	SummariesFailed     int64
	DigestsSent         int64

	// Timings
	LastRunDuration time.Duration

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) IncrementItemsSeen() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsSeen++
}

func (m *Metrics) IncrementItemsProcessed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsProcessed++
}

// RecordExtractionTier counts an extraction result by quality tier.
func (m *Metrics) RecordExtractionTier(tier string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch tier {
	case "rich":
		m.RichExtractions++
	case "partial":
		m.PartialExtractions++
	default:
		m.DegradedExtractions++
	}
}

func (m *Metrics) IncrementSummariesOK() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SummariesOK++
}

func (m *Metrics) IncrementSummariesFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SummariesFailed++
}

func (m *Metrics) IncrementDigestsSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DigestsSent++
}

func (m *Metrics) SetLastRun(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.LastRunDuration = duration
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"items_seen":           m.ItemsSeen,
		"items_processed":      m.ItemsProcessed,
		"rich_extractions":     m.RichExtractions,
		"partial_extractions":  m.PartialExtractions,
		"degraded_extractions": m.DegradedExtractions,
		"summaries_ok":         m.SummariesOK,
		"summaries_failed":     m.SummariesFailed,
		"digests_sent":         m.DigestsSent,
		"last_run_duration_ms": m.LastRunDuration.Milliseconds(),
		"last_run_time":        m.LastRunTime.Format(time.RFC3339),
		"last_error_time":      m.LastErrorTime.Format(time.RFC3339),
		"last_error":           m.LastError,
		"is_healthy":           m.IsHealthy,
	}
}
