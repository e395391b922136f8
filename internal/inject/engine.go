// Package inject augments target tables in the live tree with a preview
// column and an add control. Every node it creates carries the injection
// marker, which is the only state it consults on re-entry.
package inject

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgallion1/tablelens/internal/classify"
	"github.com/dgallion1/tablelens/internal/dom"
	"github.com/dgallion1/tablelens/internal/preview"
	"github.com/dgallion1/tablelens/internal/rowlink"
	"github.com/dgallion1/tablelens/internal/settings"
	"github.com/dgallion1/tablelens/internal/synth"
	"github.com/dgallion1/tablelens/internal/vault"
	"github.com/google/uuid"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/sync/errgroup"
)

const (
	// HeaderLabel is the text of the injected column header.
	HeaderLabel = "Preview"
	// ControlLabel is the text of the add control.
	ControlLabel = "+ New"
	// ControlIDAttr identifies an add control for Click.
	ControlIDAttr = "data-tablelens-id"

	DefaultMaxConcurrentReads = 8
)

var (
	ErrControlNotFound = errors.New("control not found")
	ErrClosed          = errors.New("engine closed")
)

// ActiveDoc reports the document whose folder anchors relative links.
type ActiveDoc interface {
	Active() (string, bool)
}

// Creator runs the document synthesis flow.
type Creator interface {
	Create(ctx context.Context, doc synth.Document) (vault.Ref, error)
}

// Options tunes an Engine.
type Options struct {
	MaxConcurrentReads int
	StatsWindow        time.Duration
	// LinkFolder anchors relative row links. Empty falls back to the
	// folder of the active document.
	LinkFolder string
}

// Engine owns the injection logic for one tree.
type Engine struct {
	tree     *dom.Tree
	resolver rowlink.Resolver
	source   preview.TextSource
	active   ActiveDoc
	creator  Creator
	stats    *ScanStats
	log      *slog.Logger
	maxReads int
	folder   string
	closed   atomic.Bool

	// runMu serializes scans and refreshes.
	runMu sync.Mutex
}

// New creates an engine over tree.
func New(tree *dom.Tree, resolver rowlink.Resolver, source preview.TextSource, active ActiveDoc, creator Creator, opts Options, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if opts.MaxConcurrentReads <= 0 {
		opts.MaxConcurrentReads = DefaultMaxConcurrentReads
	}
	return &Engine{
		tree:     tree,
		resolver: resolver,
		source:   source,
		active:   active,
		creator:  creator,
		stats:    NewScanStats(opts.StatsWindow),
		log:      log,
		maxReads: opts.MaxConcurrentReads,
		folder:   strings.Trim(opts.LinkFolder, "/"),
	}
}

// Stats returns the rolling scan statistics.
func (e *Engine) Stats() *ScanStats {
	return e.stats
}

// Close stops the engine. Reads still in flight are discarded.
func (e *Engine) Close() {
	e.closed.Store(true)
}

type job struct {
	row  *html.Node
	href string
}

type result struct {
	ok   bool
	text string
}

// ScanAndInject brings every target table up to date. Running it twice with
// no intervening change mutates nothing the second time.
func (e *Engine) ScanAndInject(ctx context.Context, cfg settings.Settings) Stats {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	return e.scan(ctx, cfg)
}

func (e *Engine) scan(ctx context.Context, cfg settings.Settings) Stats {
	start := time.Now()
	var st Stats
	if e.closed.Load() {
		return st
	}

	// Structural pass: header and control, plus the rows still to fill.
	var jobs []job
	e.tree.Update(func(doc *html.Node) bool {
		mutated := false
		for _, table := range classify.TargetTables(doc) {
			st.Tables++
			if ensureHeader(table) {
				st.Headers++
				mutated = true
			}
			if cfg.ShowAddControl && ensureControl(table) {
				st.Controls++
				mutated = true
			}
			for _, row := range dom.BodyRows(table) {
				if dom.HasMarkedChild(row, dom.MarkerCell) {
					continue
				}
				href, ok := rowlink.Link(row)
				if !ok {
					st.Skipped++
					continue
				}
				jobs = append(jobs, job{row: row, href: href})
			}
		}
		return mutated
	})

	if len(jobs) > 0 {
		results := e.read(ctx, jobs, cfg.Preview)
		st.Skipped += e.write(ctx, jobs, results, &st)
	}

	st.Duration = time.Since(start)
	e.stats.Record(st)
	if st.Changed() {
		e.log.Debug("tables augmented",
			"tables", st.Tables,
			"headers", st.Headers,
			"cells", st.Cells,
			"controls", st.Controls,
			"skipped", st.Skipped,
			"duration_ms", st.Duration.Milliseconds(),
		)
	} else {
		e.log.Debug("scan found nothing to do", "tables", st.Tables, "skipped", st.Skipped)
	}
	return st
}

// read resolves and loads every job outside the tree lock.
func (e *Engine) read(ctx context.Context, jobs []job, cfg preview.Config) []result {
	contextPath := e.contextPath()
	results := make([]result, len(jobs))

	var g errgroup.Group
	g.SetLimit(e.maxReads)
	for i, j := range jobs {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			ref, ok := e.resolver.ResolveLink(j.href, contextPath)
			if !ok {
				return nil
			}
			text, err := preview.Load(ctx, e.source, ref.Path, cfg)
			if err != nil {
				e.log.Debug("preview read failed", "path", ref.Path, "error", err)
			}
			results[i] = result{ok: true, text: text}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// contextPath returns the path whose folder relative links resolve against.
// A trailing slash makes the folder itself the context.
func (e *Engine) contextPath() string {
	if e.folder != "" {
		return e.folder + "/"
	}
	p, _ := e.active.Active()
	return p
}

// write appends the preview cells and returns the number of rows skipped
// for lack of a resolvable document.
func (e *Engine) write(ctx context.Context, jobs []job, results []result, st *Stats) int {
	skipped := 0
	for _, r := range results {
		if !r.ok {
			skipped++
		}
	}
	if skipped == len(results) || ctx.Err() != nil {
		return skipped
	}

	e.tree.Update(func(doc *html.Node) bool {
		if e.closed.Load() {
			return false
		}
		for i, r := range results {
			row := jobs[i].row
			if !r.ok || !dom.Attached(doc, row) || dom.HasMarkedChild(row, dom.MarkerCell) {
				continue
			}
			row.AppendChild(newCell(r.text))
			st.Cells++
		}
		return st.Cells > 0
	})
	return skipped
}

// RemoveInjected detaches every node the engine created.
func (e *Engine) RemoveInjected(ctx context.Context) int {
	var n int
	e.tree.Update(func(doc *html.Node) bool {
		n = dom.RemoveMarked(doc)
		return n > 0
	})
	e.log.DebugContext(ctx, "injected nodes removed", "count", n)
	return n
}

// Refresh re-renders all injected content after a settings change.
func (e *Engine) Refresh(ctx context.Context, cfg settings.Settings) Stats {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	e.RemoveInjected(ctx)
	return e.scan(ctx, cfg)
}

// Click runs the synthesis flow for the add control with the given id. The
// table is read at click time, so edits since the last scan are honoured.
func (e *Engine) Click(ctx context.Context, controlID string) (vault.Ref, error) {
	if e.closed.Load() {
		return vault.Ref{}, ErrClosed
	}

	var doc synth.Document
	found := false
	e.tree.Read(func(root *html.Node) {
		ctrl := dom.FindFirst(root, func(n *html.Node) bool {
			id, ok := dom.Attr(n, ControlIDAttr)
			return ok && id == controlID && dom.HasMarker(n, dom.MarkerControl)
		})
		if ctrl == nil {
			return
		}
		table := dom.FindFirst(ctrl.Parent, classify.IsTargetTable)
		if table == nil {
			return
		}
		doc = synth.Build(table)
		found = true
	})
	if !found {
		return vault.Ref{}, ErrControlNotFound
	}
	return e.creator.Create(ctx, doc)
}

func newCell(text string) *html.Node {
	td := dom.Element(atom.Td)
	dom.Mark(td, dom.MarkerCell)
	if text != "" {
		dom.SetAttr(td, "title", text)
	}
	dom.SetText(td, text)
	return td
}

// ensureHeader adds the preview header to table, creating a header row
// when the table has none. It reports whether anything was added.
func ensureHeader(table *html.Node) bool {
	hr := dom.HeaderRow(table)
	if hr == nil {
		thead := dom.Element(atom.Thead)
		hr = dom.Element(atom.Tr)
		thead.AppendChild(hr)
		table.InsertBefore(thead, firstSection(table))
	}
	if dom.HasMarkedChild(hr, dom.MarkerHeader) {
		return false
	}
	th := dom.Element(atom.Th)
	dom.Mark(th, dom.MarkerHeader)
	dom.SetText(th, HeaderLabel)
	hr.AppendChild(th)
	return true
}

// firstSection returns the first row group or row of table, or nil. A nil
// reference point makes InsertBefore append.
func firstSection(table *html.Node) *html.Node {
	for c := table.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Thead, atom.Tbody, atom.Tfoot, atom.Tr:
			return c
		}
	}
	return nil
}

// ensureControl appends an add control to the table's container unless one
// is already there.
func ensureControl(table *html.Node) bool {
	container := classify.ViewContainer(table)
	if container == nil {
		container = table.Parent
	}
	if container == nil || dom.HasMarkedChild(container, dom.MarkerControl) {
		return false
	}
	btn := dom.Element(atom.Button, "type", "button", ControlIDAttr, uuid.NewString())
	dom.Mark(btn, dom.MarkerControl)
	dom.SetText(btn, ControlLabel)
	container.AppendChild(btn)
	return true
}
