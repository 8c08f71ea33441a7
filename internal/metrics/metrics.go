package metrics

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/globaltelecom/voicebridge/internal/types"
)

// Metrics holds all application metrics
type Metrics struct {
	mu sync.RWMutex

	// Event metrics
	eventsByKind map[types.EventKind]int64
	EventErrors  int64
	AuthFailures int64

	// Enrichment metrics
	CacheHits    int64
	CacheMisses  int64
	lookupHits   map[string]int64
	lookupErrors map[string]int64

	// Forwarding metrics
	ForwardAttempts  int64
	ForwardSuccesses int64
	ForwardFailures  int64

	// Timing
	startTime time.Time
}

// Global metrics instance
var instance *Metrics
var once sync.Once

// Get returns the singleton metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			eventsByKind: make(map[types.EventKind]int64),
			lookupHits:   make(map[string]int64),
			lookupErrors: make(map[string]int64),
			startTime:    time.Now(),
		}
	})
	return instance
}

// RecordEvent counts one dispatched event by kind
func (m *Metrics) RecordEvent(kind types.EventKind) {
	m.mu.Lock()
	m.eventsByKind[kind]++
	m.mu.Unlock()
}

// RecordEventError counts a malformed or rejected event
func (m *Metrics) RecordEventError() {
	m.mu.Lock()
	m.EventErrors++
	m.mu.Unlock()
}

// RecordAuthFailure counts a shared-secret mismatch
func (m *Metrics) RecordAuthFailure() {
	m.mu.Lock()
	m.AuthFailures++
	m.mu.Unlock()
}

// RecordCacheHit counts an identity cache hit
func (m *Metrics) RecordCacheHit() {
	m.mu.Lock()
	m.CacheHits++
	m.mu.Unlock()
}

// RecordCacheMiss counts an identity cache miss
func (m *Metrics) RecordCacheMiss() {
	m.mu.Lock()
	m.CacheMisses++
	m.mu.Unlock()
}

// RecordLookupHit counts a successful lookup against a source
func (m *Metrics) RecordLookupHit(source string) {
	m.mu.Lock()
	m.lookupHits[source]++
	m.mu.Unlock()
}

// RecordLookupError counts a failed lookup against a source
func (m *Metrics) RecordLookupError(source string) {
	m.mu.Lock()
	m.lookupErrors[source]++
	m.mu.Unlock()
}

// RecordForwardAttempt counts one keypress send attempt
func (m *Metrics) RecordForwardAttempt() {
	m.mu.Lock()
	m.ForwardAttempts++
	m.mu.Unlock()
}

// RecordForwardOutcome counts the terminal state of a forward
func (m *Metrics) RecordForwardOutcome(success bool) {
	m.mu.Lock()
	if success {
		m.ForwardSuccesses++
	} else {
		m.ForwardFailures++
	}
	m.mu.Unlock()
}

// Snapshot returns a copy of all counters for the stats endpoint
func (m *Metrics) Snapshot() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make(map[string]int64, len(m.eventsByKind))
	for k, v := range m.eventsByKind {
		events[string(k)] = v
	}
	lookupHits := make(map[string]int64, len(m.lookupHits))
	for k, v := range m.lookupHits {
		lookupHits[k] = v
	}
	lookupErrors := make(map[string]int64, len(m.lookupErrors))
	for k, v := range m.lookupErrors {
		lookupErrors[k] = v
	}

	return map[string]any{
		"uptime_seconds":    time.Since(m.startTime).Seconds(),
		"events_by_kind":    events,
		"event_errors":      m.EventErrors,
		"auth_failures":     m.AuthFailures,
		"cache_hits":        m.CacheHits,
		"cache_misses":      m.CacheMisses,
		"lookup_hits":       lookupHits,
		"lookup_errors":     lookupErrors,
		"forward_attempts":  m.ForwardAttempts,
		"forward_successes": m.ForwardSuccesses,
		"forward_failures":  m.ForwardFailures,
	}
}

// Handler serves the current counters as JSON
func Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Get().Snapshot())
}
