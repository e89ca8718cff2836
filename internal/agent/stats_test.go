package agent

import (
	"testing"
	"time"
)

func TestStatsSnapshotPercentiles(t *testing.T) {
	stats := NewStats(time.Hour)
	stats.Record("search", 100, false)
	stats.Record("search", 200, false)
	stats.Record("search", 300, true)
	stats.Record("search", 400, false)
	stats.Record("search", 500, false)

	snap, ok := stats.Snapshot()["search"]
	if !ok {
		t.Fatal("expected search stats")
	}
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.Failures != 1 {
		t.Fatalf("expected failures=1, got %d", snap.Failures)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
}

func TestStatsKeepsAgentsSeparate(t *testing.T) {
	stats := NewStats(time.Hour)
	stats.Record("search", 10, false)
	stats.Record("analysis", 900, false)

	snap := stats.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(snap))
	}
	if snap["search"].MaxMs != 10 || snap["analysis"].MinMs != 900 {
		t.Fatalf("samples mixed between agents: %+v", snap)
	}
}

func TestStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewStats(10 * time.Millisecond)
	stats.Record("search", 100, false)
	time.Sleep(25 * time.Millisecond)

	if snap := stats.Snapshot(); len(snap) != 0 {
		t.Fatalf("expected no agents after prune, got %+v", snap)
	}

	stats.Record("search", 200, false)
	snap := stats.Snapshot()["search"]
	if snap.Count != 1 {
		t.Fatalf("expected count=1 for fresh sample, got %d", snap.Count)
	}
}

func TestStatsRecordClampsNegativeDuration(t *testing.T) {
	stats := NewStats(time.Hour)
	stats.Record("search", -10, false)
	snap := stats.Snapshot()["search"]
	if snap.MinMs != 0 || snap.MaxMs != 0 {
		t.Fatalf("expected clamped duration=0, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}
