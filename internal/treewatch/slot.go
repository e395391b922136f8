// Package treewatch re-runs a scan whenever the live tree settles after a
// burst of mutations.
package treewatch

import (
	"sync"
	"time"
)

// DefaultWindow is the quiet period before a scheduled task runs.
const DefaultWindow = 250 * time.Millisecond

// Slot is a single-slot delayed task. Scheduling replaces whatever was
// pending, so at most one timer is live and at most one task runs at a time.
type Slot struct {
	window time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool
	running sync.WaitGroup

	runMu sync.Mutex
}

// NewSlot creates a slot with the given quiet window.
func NewSlot(window time.Duration) *Slot {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Slot{window: window}
}

// Schedule cancels any pending task and arms fn to run after the window.
// It returns false once the slot is stopped.
func (s *Slot) Schedule(fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timer = time.AfterFunc(s.window, func() { s.fire(gen, fn) })
	return true
}

func (s *Slot) fire(gen uint64, fn func()) {
	s.mu.Lock()
	// A timer that fired after being replaced or cancelled is stale.
	if s.stopped || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.running.Add(1)
	s.mu.Unlock()
	defer s.running.Done()

	s.runMu.Lock()
	defer s.runMu.Unlock()
	fn()
}

// Pending reports whether a task is armed and has not fired yet.
func (s *Slot) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Cancel drops the pending task, if any. A task already running finishes.
func (s *Slot) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

func (s *Slot) cancelLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

// Stop cancels the pending task, refuses further schedules, and waits for
// a running task to return. It must not be called from inside a task.
func (s *Slot) Stop() {
	s.mu.Lock()
	s.cancelLocked()
	s.stopped = true
	s.mu.Unlock()

	s.running.Wait()
}
