package inject

import (
	"testing"
	"time"
)

func TestScanStatsSnapshotPercentiles(t *testing.T) {
	stats := NewScanStats(time.Hour)
	for i, ms := range []int{100, 200, 300, 400, 500} {
		stats.Record(Stats{Cells: i % 2, Duration: time.Duration(ms) * time.Millisecond})
	}

	snap := stats.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.Cells != 2 || snap.Mutating != 2 {
		t.Fatalf("expected cells=2 mutating=2, got cells=%d mutating=%d", snap.Cells, snap.Mutating)
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
}

func TestScanStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewScanStats(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	stats.now = func() time.Time { return now }

	stats.Record(Stats{Duration: 100 * time.Millisecond})
	now = now.Add(2 * time.Minute)
	if snap := stats.Snapshot(); snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}

	stats.Record(Stats{Duration: -time.Second})
	snap := stats.Snapshot()
	if snap.Count != 1 || snap.MinMs != 0 {
		t.Fatalf("expected one clamped sample, got %+v", snap)
	}
}
