// Package settings persists the user-facing options of the engine and holds
// the process-wide snapshot the rest of the code reads from.
package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dgallion1/tablelens/internal/preview"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps validation failures from Save.
var ErrInvalid = errors.New("invalid settings")

// Settings is an immutable snapshot of the user-facing options.
type Settings struct {
	Preview        preview.Config `yaml:",inline" json:"preview"`
	ShowAddControl bool           `yaml:"showAddControl" json:"show_add_control"`
}

// Defaults returns the settings used before anything is saved.
func Defaults() Settings {
	return Settings{
		Preview:        preview.DefaultConfig(),
		ShowAddControl: true,
	}
}

// Validate checks every field.
func (s Settings) Validate() error {
	if err := s.Preview.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Store loads and saves Settings as YAML and notifies hooks on change.
type Store struct {
	path string
	log  *slog.Logger

	mu      sync.RWMutex
	current Settings
	hooks   []func(Settings)
}

// NewStore creates a store backed by path, starting from Defaults.
func NewStore(path string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		path:    path,
		log:     log,
		current: Defaults(),
	}
}

// Load reads the settings file. A missing file keeps the defaults. Fields
// absent from the file keep their default values.
func (s *Store) Load() (Settings, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.log.Info("no settings file, using defaults", "path", s.path)
		return s.Current(), nil
	}
	if err != nil {
		return s.Current(), fmt.Errorf("read settings: %w", err)
	}

	loaded := Defaults()
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return s.Current(), fmt.Errorf("parse settings %s: %w", s.path, err)
	}
	if err := loaded.Validate(); err != nil {
		return s.Current(), fmt.Errorf("load settings %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()
	s.log.Info("settings loaded", "path", s.path,
		"preview_length", loaded.Preview.Length,
		"content_source", loaded.Preview.Source,
		"show_add_control", loaded.ShowAddControl,
	)
	return loaded, nil
}

// Save validates, persists, swaps the snapshot, and then runs every hook
// with the new settings.
func (s *Store) Save(next Settings) error {
	if err := next.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := writeAtomic(s.path, data); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	s.mu.Lock()
	s.current = next
	hooks := make([]func(Settings), len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.Unlock()

	s.log.Info("settings saved", "path", s.path)
	for _, fn := range hooks {
		fn(next)
	}
	return nil
}

// Current returns the live snapshot.
func (s *Store) Current() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// OnChange registers fn to run after every successful Save.
func (s *Store) OnChange(fn func(Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
