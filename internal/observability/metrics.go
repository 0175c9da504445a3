package observability

import (
	"strconv"
	"sync"
	"time"
)

type routeStats struct {
	requests      int64
	errors        int64
	totalDuration time.Duration
}

// Metrics keeps per-route request and error counters in memory. Good enough
// for a single process; nothing scrapes it externally.
type Metrics struct {
	mu    sync.Mutex
	byKey map[string]*routeStats
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{byKey: make(map[string]*routeStats)}
}

// RecordRequest counts a completed request against its route and status.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := m.route(method + " " + path + " " + strconv.Itoa(status))
	stats.requests++
	stats.totalDuration += duration
}

// RecordError counts a request that ended in a domain error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.route(method + " " + path + " " + code).errors++
}

func (m *Metrics) route(key string) *routeStats {
	stats, ok := m.byKey[key]
	if !ok {
		stats = &routeStats{}
		m.byKey[key] = stats
	}
	return stats
}
