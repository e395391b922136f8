// Package plugin wires the host stand-ins and the augmentation engine into
// one lifecycle.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/tablelens/internal/config"
	"github.com/dgallion1/tablelens/internal/dom"
	"github.com/dgallion1/tablelens/internal/inject"
	"github.com/dgallion1/tablelens/internal/notify"
	"github.com/dgallion1/tablelens/internal/parser"
	"github.com/dgallion1/tablelens/internal/render"
	"github.com/dgallion1/tablelens/internal/settings"
	"github.com/dgallion1/tablelens/internal/synth"
	"github.com/dgallion1/tablelens/internal/treewatch"
	"github.com/dgallion1/tablelens/internal/vault"
)

const notificationSweep = time.Minute

// Plugin owns the live tree and everything that reads or mutates it.
type Plugin struct {
	cfg      config.Config
	tree     *dom.Tree
	vault    *vault.Vault
	views    *vault.Views
	settings *settings.Store
	notes    *notify.Store
	engine   *inject.Engine
	renderer *render.Renderer
	docs     *render.DocView
	watcher  *treewatch.Watcher
	log      *slog.Logger

	// passMu orders watcher scans against settings refreshes, so a scan
	// never applies a snapshot older than the last refresh.
	passMu sync.Mutex

	mu      sync.Mutex
	feed    *vault.Feed
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stopped bool
}

// New builds a plugin over cfg.VaultDir. Nothing runs until Start.
func New(cfg config.Config, log *slog.Logger) (*Plugin, error) {
	if log == nil {
		log = slog.Default()
	}

	v, err := vault.New(cfg.VaultDir, parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext}, log.With("component", "vault"))
	if err != nil {
		return nil, err
	}
	tree, err := dom.ParseTree("")
	if err != nil {
		return nil, err
	}

	store := settings.NewStore(cfg.SettingsFile, log.With("component", "settings"))
	if _, err := store.Load(); err != nil {
		log.Warn("settings not loaded, using defaults", "path", cfg.SettingsFile, "error", err)
	}

	views := vault.NewViews(log.With("component", "views"))
	notes := notify.NewStore(cfg.NotificationTTL, log.With("component", "notify"))
	creator := synth.NewCreator(v, views, notes, log.With("component", "synth"))
	engine := inject.New(tree, v, v, views, creator, inject.Options{
		MaxConcurrentReads: cfg.MaxConcurrentReads,
		LinkFolder:         cfg.ViewFolder,
	}, log.With("component", "inject"))

	p := &Plugin{
		cfg:      cfg,
		tree:     tree,
		vault:    v,
		views:    views,
		settings: store,
		notes:    notes,
		engine:   engine,
		renderer: render.New(v, tree, cfg.ViewFolder, log.With("component", "render")),
		docs:     render.NewDocView(v),
		log:      log,
	}
	p.watcher = treewatch.New(tree, cfg.DebounceWindow, p.scan, log.With("component", "treewatch"))
	return p, nil
}

// Start renders the view and begins watching the tree and the vault.
func (p *Plugin) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return errors.New("plugin already started")
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.settings.OnChange(func(settings.Settings) {
		p.passMu.Lock()
		defer p.passMu.Unlock()
		st := p.engine.Refresh(runCtx, p.settings.Current())
		p.log.Info("settings applied", "cells", st.Cells, "controls", st.Controls)
	})

	p.watcher.Start()
	if err := p.renderer.Render(runCtx); err != nil {
		cancel()
		p.watcher.Stop()
		return fmt.Errorf("initial render: %w", err)
	}

	feed, err := p.vault.Watch(runCtx, p.cfg.DebounceWindow, func() {
		if err := p.renderer.Render(runCtx); err != nil {
			p.log.Error("re-render failed", "error", err)
		}
	})
	if err != nil {
		cancel()
		p.watcher.Stop()
		return err
	}
	p.feed = feed

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.notes.Run(runCtx, notificationSweep)
	}()

	p.log.Info("plugin started", "vault", p.vault.Root(), "folder", p.cfg.ViewFolder)
	return nil
}

// Stop tears down in dependency order: watcher, engine, vault feed, then
// background goroutines.
func (p *Plugin) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.stopped = true

	p.watcher.Stop()
	p.engine.Close()
	if p.feed != nil {
		p.feed.Stop()
	}
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.log.Info("plugin stopped")
}

func (p *Plugin) scan() {
	p.Scan(context.Background())
}

// Scan runs a pass immediately, outside the debounce window.
func (p *Plugin) Scan(ctx context.Context) inject.Stats {
	p.passMu.Lock()
	defer p.passMu.Unlock()
	return p.engine.ScanAndInject(ctx, p.settings.Current())
}

func (p *Plugin) Tree() *dom.Tree { return p.tree }
func (p *Plugin) Engine() *inject.Engine { return p.engine }
func (p *Plugin) Settings() *settings.Store { return p.settings }
func (p *Plugin) Notifications() *notify.Store { return p.notes }
func (p *Plugin) Views() *vault.Views { return p.views }
func (p *Plugin) Vault() *vault.Vault { return p.vault }
func (p *Plugin) DocView() *render.DocView { return p.docs }
