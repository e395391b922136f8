// Package notify is the user-visible notification sink.
package notify

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level is the severity shown with a notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notification is a single message shown to the user.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Level     Level     `json:"level"`
	CreatedAt time.Time `json:"created_at"`
}

// Sink accepts fire-and-forget notifications.
type Sink interface {
	Notify(level Level, message string)
}

// Store is a thread-safe in-memory notification registry with TTL eviction.
type Store struct {
	mu    sync.Mutex
	items map[string]Notification
	ttl   time.Duration
	log   *slog.Logger
	now   func() time.Time
}

// NewStore creates a store that forgets notifications after ttl.
func NewStore(ttl time.Duration, log *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		items: make(map[string]Notification),
		ttl:   ttl,
		log:   log,
		now:   time.Now,
	}
}

// Notify records and logs a notification.
func (s *Store) Notify(level Level, message string) {
	n := Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Level:     level,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	s.items[n.ID] = n
	s.mu.Unlock()

	if level == LevelError {
		s.log.Warn("notification", "id", n.ID, "message", message)
	} else {
		s.log.Info("notification", "id", n.ID, "message", message)
	}
}

// List returns live notifications, newest first.
func (s *Store) List() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, 0, len(s.items))
	for _, n := range s.items {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Cleanup removes expired notifications.
func (s *Store) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, n := range s.items {
		if now.Sub(n.CreatedAt) > s.ttl {
			delete(s.items, id)
		}
	}
}

// Run evicts expired notifications every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Cleanup()
		}
	}
}
