package inject

import (
	"slices"
	"sync"
	"time"
)

// Stats describes one pass of ScanAndInject.
type Stats struct {
	Tables   int           `json:"tables"`
	Headers  int           `json:"headers"`
	Cells    int           `json:"cells"`
	Controls int           `json:"controls"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration_ns"`
}

// Changed reports whether the pass mutated the tree.
func (s Stats) Changed() bool {
	return s.Headers+s.Cells+s.Controls > 0
}

type sample struct {
	at      time.Time
	elapsed time.Duration
	cells   int
	changed bool
}

// StatsSnapshot aggregates the scans still inside the window.
type StatsSnapshot struct {
	Count    int     `json:"count"`
	Mutating int     `json:"mutating"`
	Cells    int     `json:"cells"`
	MinMs    int64   `json:"min_ms"`
	MaxMs    int64   `json:"max_ms"`
	AvgMs    float64 `json:"avg_ms"`
	P50Ms    float64 `json:"p50_ms"`
	P95Ms    float64 `json:"p95_ms"`
}

// ScanStats keeps a rolling window of scan results.
type ScanStats struct {
	mu      sync.Mutex
	samples []sample
	window  time.Duration
	now     func() time.Time
}

func NewScanStats(window time.Duration) *ScanStats {
	if window <= 0 {
		window = time.Hour
	}
	return &ScanStats{window: window, now: time.Now}
}

func (s *ScanStats) Record(st Stats) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked(now)
	s.samples = append(s.samples, sample{
		at:      now,
		elapsed: max(st.Duration, 0),
		cells:   st.Cells,
		changed: st.Changed(),
	})
}

func (s *ScanStats) Snapshot() StatsSnapshot {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked(now)

	var snap StatsSnapshot
	if len(s.samples) == 0 {
		return snap
	}
	ms := make([]int64, len(s.samples))
	var total int64
	for i, sm := range s.samples {
		ms[i] = sm.elapsed.Milliseconds()
		total += ms[i]
		snap.Cells += sm.cells
		if sm.changed {
			snap.Mutating++
		}
	}
	slices.Sort(ms)

	snap.Count = len(ms)
	snap.MinMs = ms[0]
	snap.MaxMs = ms[len(ms)-1]
	snap.AvgMs = float64(total) / float64(len(ms))
	snap.P50Ms = quantile(ms, 0.50)
	snap.P95Ms = quantile(ms, 0.95)
	return snap
}

func (s *ScanStats) expireLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	s.samples = slices.DeleteFunc(s.samples, func(sm sample) bool { return sm.at.Before(cutoff) })
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []int64, q float64) float64 {
	pos := float64(len(sorted)-1) * q
	i := int(pos)
	if i+1 >= len(sorted) {
		return float64(sorted[i])
	}
	lo, hi := float64(sorted[i]), float64(sorted[i+1])
	return lo + (hi-lo)*(pos-float64(i))
}
