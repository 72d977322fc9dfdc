package metrics

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStatsSnapshot(t *testing.T) {
	s := NewStats()
	for i := int64(1); i <= 20; i++ {
		s.Record(i*10, true, 3)
	}
	s.Record(5000, false, 1)

	snap := s.Snapshot()
	if snap.TotalRequests != 21 {
		t.Errorf("TotalRequests = %d, want 21", snap.TotalRequests)
	}
	if snap.TotalFragments != 61 {
		t.Errorf("TotalFragments = %d, want 61", snap.TotalFragments)
	}
	if snap.SuccessRate != 95.2 {
		t.Errorf("SuccessRate = %v, want 95.2", snap.SuccessRate)
	}
	if snap.AvgLatencyMs != 105 {
		t.Errorf("AvgLatencyMs = %v, want 105", snap.AvgLatencyMs)
	}
	if snap.P95LatencyMs != 190 {
		t.Errorf("P95LatencyMs = %d, want 190", snap.P95LatencyMs)
	}
}

func TestStatsEmpty(t *testing.T) {
	snap := NewStats().Snapshot()
	if snap != (Snapshot{}) {
		t.Errorf("Snapshot() = %+v, want zero value", snap)
	}
}

func TestStatsHandler(t *testing.T) {
	s := NewStats()
	s.Record(42, true, 2)

	rec := httptest.NewRecorder()
	s.Handler()(rec, httptest.NewRequest("GET", "/stats", nil))

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var snap Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.TotalRequests != 1 || snap.P95LatencyMs != 42 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestCollectorObserve(t *testing.T) {
	c := NewCollector()

	c.ObserveRequest("completed", 200, 1500*time.Millisecond)
	c.ObserveRequest("completed", 200, 2*time.Second)
	c.ObserveRequest("failed", 429, 10*time.Millisecond)
	c.ObserveUpstream(200)
	c.ObserveUpstream(429)

	if got := testutil.ToFloat64(c.RequestsTotal.WithLabelValues("completed", "200")); got != 2 {
		t.Errorf("completed/200 = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.RequestsTotal.WithLabelValues("failed", "429")); got != 1 {
		t.Errorf("failed/429 = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.UpstreamStatus.WithLabelValues("429")); got != 1 {
		t.Errorf("upstream 429 = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(c.RequestDuration); got != 2 {
		t.Errorf("duration series = %d, want 2", got)
	}
}

func TestCollectorHandler(t *testing.T) {
	c := NewCollector()
	c.FragmentsTotal.Add(3)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "chat_relay_fragments_total 3") {
		t.Errorf("exposition missing fragments counter:\n%s", body)
	}
	if !strings.Contains(body, "chat_relay_streams_active 0") {
		t.Errorf("exposition missing active streams gauge")
	}
}
