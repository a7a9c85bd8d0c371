package observability

import (
	"sort"
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu            sync.Mutex
	requestCount  map[string]int64
	errorCount    map[string]int64
	mutationCount map[string]int64
	requestTotal  time.Duration
	started       time.Time
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	UptimeSeconds     int64            `json:"uptime_seconds"`
	Requests          map[string]int64 `json:"requests"`
	Errors            map[string]int64 `json:"errors"`
	Mutations         map[string]int64 `json:"mutations"`
	AvgRequestMillis  float64          `json:"avg_request_ms"`
	ErrorKeysByVolume []string         `json:"error_keys_by_volume"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:  make(map[string]int64),
		errorCount:    make(map[string]int64),
		mutationCount: make(map[string]int64),
		started:       time.Now(),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestTotal += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordMutation counts ticket operations by name and outcome.
func (m *Metrics) RecordMutation(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mutationCount[op+"|"+outcome]++
}

// Snapshot copies the counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MetricsSnapshot{
		UptimeSeconds: int64(time.Since(m.started).Seconds()),
		Requests:      copyCounts(m.requestCount),
		Errors:        copyCounts(m.errorCount),
		Mutations:     copyCounts(m.mutationCount),
	}
	var total int64
	for _, n := range m.requestCount {
		total += n
	}
	if total > 0 {
		snap.AvgRequestMillis = float64(m.requestTotal.Milliseconds()) / float64(total)
	}
	snap.ErrorKeysByVolume = make([]string, 0, len(m.errorCount))
	for key := range m.errorCount {
		snap.ErrorKeysByVolume = append(snap.ErrorKeysByVolume, key)
	}
	sort.Slice(snap.ErrorKeysByVolume, func(i, j int) bool {
		a, b := snap.ErrorKeysByVolume[i], snap.ErrorKeysByVolume[j]
		if m.errorCount[a] == m.errorCount[b] {
			return a < b
		}
		return m.errorCount[a] > m.errorCount[b]
	})
	return snap
}

func copyCounts(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
