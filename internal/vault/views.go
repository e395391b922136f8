package vault

import (
	"log/slog"
	"sync"
	"time"
)

// View is a document opened in its own tab.
type View struct {
	Path     string    `json:"path"`
	OpenedAt time.Time `json:"opened_at"`
}

// Views tracks opened documents and which one is active. The most recently
// opened document becomes active.
type Views struct {
	mu     sync.Mutex
	views  []View
	active string
	log    *slog.Logger
}

// NewViews creates an empty view manager.
func NewViews(log *slog.Logger) *Views {
	if log == nil {
		log = slog.Default()
	}
	return &Views{log: log}
}

// Open records ref as a new view and makes it active.
func (v *Views) Open(ref Ref) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.views = append(v.views, View{Path: ref.Path, OpenedAt: time.Now()})
	v.active = ref.Path
	v.log.Info("document opened", "path", ref.Path)
}

// SetActive marks path as the active document without opening a new view.
func (v *Views) SetActive(path string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.active = path
}

// Active returns the active document path, if any.
func (v *Views) Active() (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.active, v.active != ""
}

// List returns a copy of the opened views, oldest first.
func (v *Views) List() []View {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]View, len(v.views))
	copy(out, v.views)
	return out
}
