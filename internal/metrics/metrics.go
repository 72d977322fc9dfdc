package metrics

import (
	"encoding/json"
	"math"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
)

const maxLatencySamples = 10_000

// Stats collects in-memory relay statistics for the /stats endpoint.
type Stats struct {
	total     int64
	success   int64
	fragments int64

	mu        sync.Mutex
	latencies []int64 // end-to-end ms, completed streams only
}

// Snapshot is the computed performance snapshot returned by the /stats endpoint.
type Snapshot struct {
	TotalRequests  int64   `json:"total_requests"`
	SuccessRate    float64 `json:"success_rate"` // percentage 0–100
	TotalFragments int64   `json:"total_fragments"`
	AvgLatencyMs   float64 `json:"avg_latency_ms"`
	P95LatencyMs   int64   `json:"p95_latency_ms"`
}

func NewStats() *Stats {
	return &Stats{latencies: make([]int64, 0, 1024)}
}

// Record captures a single finished /chat request.
//
// latencyMs – end-to-end handler duration.
// success   – the stream reached the upstream sentinel or a clean EOF.
// fragments – number of text fragments written to the caller.
//
// Only successful requests contribute latency samples; failures return
// early and would drag the numbers down.
func (s *Stats) Record(latencyMs int64, success bool, fragments int) {
	atomic.AddInt64(&s.total, 1)
	atomic.AddInt64(&s.fragments, int64(fragments))
	if !success {
		return
	}
	atomic.AddInt64(&s.success, 1)

	s.mu.Lock()
	if len(s.latencies) < maxLatencySamples {
		s.latencies = append(s.latencies, latencyMs)
	} else {
		// Rolling window: drop oldest sample.
		copy(s.latencies, s.latencies[1:])
		s.latencies[maxLatencySamples-1] = latencyMs
	}
	s.mu.Unlock()
}

// Snapshot computes and returns the current performance snapshot.
func (s *Stats) Snapshot() Snapshot {
	total := atomic.LoadInt64(&s.total)
	success := atomic.LoadInt64(&s.success)

	var successRate float64
	if total > 0 {
		successRate = float64(success) / float64(total) * 100
	}

	s.mu.Lock()
	lats := make([]int64, len(s.latencies))
	copy(lats, s.latencies)
	s.mu.Unlock()

	var avgMs float64
	var p95Ms int64
	if len(lats) > 0 {
		sort.Slice(lats, func(i, j int) bool { return lats[i] < lats[j] })
		var sum int64
		for _, v := range lats {
			sum += v
		}
		avgMs = float64(sum) / float64(len(lats))
		idx := int(math.Ceil(float64(len(lats))*0.95)) - 1
		if idx < 0 {
			idx = 0
		}
		p95Ms = lats[idx]
	}

	return Snapshot{
		TotalRequests:  total,
		SuccessRate:    math.Round(successRate*10) / 10,
		TotalFragments: atomic.LoadInt64(&s.fragments),
		AvgLatencyMs:   math.Round(avgMs),
		P95LatencyMs:   p95Ms,
	}
}

// Handler returns an http.HandlerFunc that serves the performance snapshot as JSON.
func (s *Stats) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := s.Snapshot()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(snap)
	}
}
