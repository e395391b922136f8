package treewatch

import (
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/tablelens/internal/dom"
)

// Watcher subscribes to a tree and runs scan once the tree has been quiet
// for the slot window. The host rebuilds tables wholesale, so the scan is
// always a full pass rather than a patch of what changed.
type Watcher struct {
	tree *dom.Tree
	slot *Slot
	scan func()
	log  *slog.Logger

	mu  sync.Mutex
	sub *dom.Subscription
}

// New creates a watcher. scan runs on a timer goroutine.
func New(tree *dom.Tree, window time.Duration, scan func(), log *slog.Logger) *Watcher {
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		tree: tree,
		slot: NewSlot(window),
		scan: scan,
		log:  log,
	}
}

// Start subscribes to the tree. Calling it again is a no-op.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sub != nil {
		return
	}
	w.sub = w.tree.Observe(w.Trigger)
	w.log.Info("tree watch started", "window_ms", w.slot.window.Milliseconds())
}

// Trigger (re)starts the debounce window.
func (w *Watcher) Trigger() {
	w.slot.Schedule(w.scan)
}

// Pending reports whether a scan is waiting for the window to close.
func (w *Watcher) Pending() bool {
	return w.slot.Pending()
}

// Stop unsubscribes and cancels any pending scan.
func (w *Watcher) Stop() {
	w.mu.Lock()
	sub := w.sub
	w.sub = nil
	w.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
	w.slot.Stop()
	w.log.Info("tree watch stopped")
}
