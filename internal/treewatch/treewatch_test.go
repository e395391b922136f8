package treewatch

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgallion1/tablelens/internal/dom"
	"go.uber.org/goleak"
	"golang.org/x/net/html"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const window = 20 * time.Millisecond

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestSlot_BurstFiresOnce(t *testing.T) {
	s := NewSlot(window)
	defer s.Stop()

	var calls atomic.Int32
	for range 10 {
		s.Schedule(func() { calls.Add(1) })
		time.Sleep(2 * time.Millisecond)
	}
	waitFor(t, func() bool { return calls.Load() == 1 })

	time.Sleep(3 * window)
	if got := calls.Load(); got != 1 {
		t.Errorf("expected exactly 1 run, got %d", got)
	}
	if s.Pending() {
		t.Error("expected nothing pending after the run")
	}
}

func TestSlot_Cancel(t *testing.T) {
	s := NewSlot(window)
	defer s.Stop()

	var calls atomic.Int32
	s.Schedule(func() { calls.Add(1) })
	if !s.Pending() {
		t.Fatal("expected a pending task")
	}
	s.Cancel()
	time.Sleep(3 * window)
	if calls.Load() != 0 {
		t.Errorf("expected cancelled task not to run, got %d runs", calls.Load())
	}
}

func TestSlot_StopRefusesSchedules(t *testing.T) {
	s := NewSlot(window)
	var calls atomic.Int32
	s.Schedule(func() { calls.Add(1) })
	s.Stop()

	if s.Schedule(func() { calls.Add(1) }) {
		t.Error("expected Schedule to report false after Stop")
	}
	time.Sleep(3 * window)
	if calls.Load() != 0 {
		t.Errorf("expected no runs after Stop, got %d", calls.Load())
	}
}

func TestSlot_RunsNeverOverlap(t *testing.T) {
	s := NewSlot(time.Millisecond)
	defer s.Stop()

	var active, maxActive, runs atomic.Int32
	task := func() {
		n := active.Add(1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(15 * time.Millisecond)
		active.Add(-1)
		runs.Add(1)
	}

	s.Schedule(task)
	time.Sleep(5 * time.Millisecond)
	s.Schedule(task)
	waitFor(t, func() bool { return runs.Load() == 2 })

	if maxActive.Load() != 1 {
		t.Errorf("expected runs to be serialized, saw %d concurrent", maxActive.Load())
	}
}

func TestWatcher_DebouncesTreeMutations(t *testing.T) {
	tree := dom.NewTree(nil)
	var scans atomic.Int32
	w := New(tree, window, func() { scans.Add(1) }, nil)
	w.Start()
	w.Start()

	for range 5 {
		tree.Update(func(*html.Node) bool { return true })
	}
	waitFor(t, func() bool { return scans.Load() == 1 })

	// An update that reports no change does not wake the watcher.
	tree.Update(func(*html.Node) bool { return false })
	time.Sleep(3 * window)
	if got := scans.Load(); got != 1 {
		t.Errorf("expected 1 scan, got %d", got)
	}

	w.Stop()
	tree.Update(func(*html.Node) bool { return true })
	time.Sleep(3 * window)
	if got := scans.Load(); got != 1 {
		t.Errorf("expected no scans after Stop, got %d", got)
	}
}

func TestWatcher_StopCancelsPending(t *testing.T) {
	tree := dom.NewTree(nil)
	var scans atomic.Int32
	w := New(tree, 50*time.Millisecond, func() { scans.Add(1) }, nil)
	w.Start()

	tree.Update(func(*html.Node) bool { return true })
	if !w.Pending() {
		t.Fatal("expected a pending scan")
	}
	w.Stop()
	time.Sleep(100 * time.Millisecond)
	if scans.Load() != 0 {
		t.Errorf("expected pending scan to be cancelled, got %d", scans.Load())
	}
}
