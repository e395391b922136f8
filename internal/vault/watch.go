package vault

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/tablelens/internal/treewatch"
	"github.com/fsnotify/fsnotify"
)

// Feed delivers coalesced change notifications for the vault directory.
type Feed struct {
	vault    *Vault
	watcher  *fsnotify.Watcher
	slot     *treewatch.Slot
	onChange func()

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// Watch starts watching the vault tree. onChange runs once per burst of
// file events, after window of quiet.
func (v *Vault) Watch(ctx context.Context, window time.Duration, onChange func()) (*Feed, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("vault watch: %w", err)
	}
	f := &Feed{
		vault:    v,
		watcher:  w,
		slot:     treewatch.NewSlot(window),
		onChange: onChange,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	if err := f.addTree(v.root); err != nil {
		w.Close()
		return nil, err
	}

	go f.run(ctx)
	v.log.Info("vault watch started", "root", v.root)
	return f, nil
}

// addTree registers dir and every non-hidden directory below it.
func (f *Feed) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != f.vault.root && hidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := f.watcher.Add(p); err != nil {
			return fmt.Errorf("vault watch %s: %w", p, err)
		}
		return nil
	})
}

func (f *Feed) run(ctx context.Context) {
	defer close(f.doneCh)
	log := f.vault.log

	for {
		select {
		case <-ctx.Done():
			return
		case <-f.stopCh:
			return
		case ev, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if f.ignored(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := f.addTree(ev.Name); err != nil {
						log.Warn("vault watch: add directory failed", "path", ev.Name, "error", err)
					}
				}
			}
			log.Debug("vault change", "path", ev.Name, "op", ev.Op.String())
			f.slot.Schedule(f.onChange)
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("vault watch error", "error", err)
		}
	}
}

// ignored filters events under hidden files or folders, such as the
// settings directory.
func (f *Feed) ignored(name string) bool {
	rel, err := filepath.Rel(f.vault.root, name)
	if err != nil {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if hidden(part) && part != "." {
			return true
		}
	}
	return false
}

// Stop ends the feed and drops any pending notification.
func (f *Feed) Stop() {
	f.stopOnce.Do(func() {
		close(f.stopCh)
		<-f.doneCh
		f.slot.Stop()
		if err := f.watcher.Close(); err != nil {
			f.vault.log.Warn("vault watch close failed", "error", err)
		}
		f.vault.log.Info("vault watch stopped")
	})
}
