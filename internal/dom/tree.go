// Package dom holds the live rendered tree and the small set of node
// queries the engine is allowed to make against it.
//
// The tree is owned by the host, which may replace any part of it at any
// time. Callers must not keep *html.Node values across calls to Update or
// Read unless they re-check them with Attached.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// Tree is a mutable HTML document shared between the host renderer and the
// augmentation engine. It is safe for concurrent use.
type Tree struct {
	mu  sync.RWMutex
	doc *html.Node

	obsMu     sync.Mutex
	observers map[uint64]func()
	nextID    uint64
}

// NewTree wraps an already parsed document.
func NewTree(doc *html.Node) *Tree {
	if doc == nil {
		doc = &html.Node{Type: html.DocumentNode}
	}
	return &Tree{
		doc:       doc,
		observers: make(map[uint64]func()),
	}
}

// ParseTree parses src into a new Tree.
func ParseTree(src string) (*Tree, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return NewTree(doc), nil
}

// Read runs fn with the document under a shared lock. fn must not mutate.
func (t *Tree) Read(fn func(doc *html.Node)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	fn(t.doc)
}

// Update runs fn with the document under an exclusive lock. When fn reports
// a change, observers are notified after the lock is released.
func (t *Tree) Update(fn func(doc *html.Node) bool) bool {
	t.mu.Lock()
	changed := fn(t.doc)
	t.mu.Unlock()

	if changed {
		t.notify()
	}
	return changed
}

// Render writes the current document as HTML.
func (t *Tree) Render(w io.Writer) error {
	var buf bytes.Buffer
	t.Read(func(doc *html.Node) {
		// Render into a buffer so a slow writer never holds the lock.
		_ = html.Render(&buf, doc)
	})
	_, err := buf.WriteTo(w)
	return err
}

// String renders the document, mainly for tests and debugging.
func (t *Tree) String() string {
	var sb strings.Builder
	_ = t.Render(&sb)
	return sb.String()
}

// Observe registers fn to be called after every mutation of the subtree.
// Notifications carry no detail: any call means "something changed".
func (t *Tree) Observe(fn func()) *Subscription {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	id := t.nextID
	t.nextID++
	t.observers[id] = fn
	return &Subscription{tree: t, id: id}
}

func (t *Tree) notify() {
	t.obsMu.Lock()
	fns := make([]func(), 0, len(t.observers))
	for _, fn := range t.observers {
		fns = append(fns, fn)
	}
	t.obsMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Subscription is a handle returned by Observe.
type Subscription struct {
	tree *Tree
	id   uint64
	once sync.Once
}

// Cancel stops further notifications. It is safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.tree.obsMu.Lock()
		delete(s.tree.observers, s.id)
		s.tree.obsMu.Unlock()
	})
}
