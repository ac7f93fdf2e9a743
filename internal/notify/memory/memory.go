package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/notify"
)

var _ notify.Store = (*Store)(nil)

// Store keeps notifications in process memory, newest first per user.
type Store struct {
	mu     sync.Mutex
	nextID int64
	items  map[string][]notify.Notification
	hub    *notify.Hub
}

func New() *Store {
	return &Store{items: make(map[string][]notify.Notification), hub: notify.NewHub()}
}

func (s *Store) Append(_ context.Context, userID string, n notify.Notification) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	n.ID = "n" + strconv.FormatInt(s.nextID, 10)
	s.items[userID] = append([]notify.Notification{n}, s.items[userID]...)
	s.hub.Publish(userID, s.snapshot(userID))
	return n.ID, nil
}

func (s *Store) List(_ context.Context, userID string) ([]notify.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(userID), nil
}

func (s *Store) Subscribe(ctx context.Context, userID string) (<-chan []notify.Notification, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hub.Subscribe(ctx, userID, s.snapshot(userID))
}

func (s *Store) MarkRead(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items[userID] {
		if s.items[userID][i].ID == id {
			s.items[userID][i].Read = true
			s.hub.Publish(userID, s.snapshot(userID))
			return nil
		}
	}
	return fmt.Errorf("notification %q: %w", id, core.ErrNotFound)
}

// MarkAllRead marks the listed notifications read. Unknown ids are ignored.
func (s *Store) MarkAllRead(_ context.Context, userID string, ids []string) error {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items[userID] {
		if _, ok := want[s.items[userID][i].ID]; ok {
			s.items[userID][i].Read = true
		}
	}
	s.hub.Publish(userID, s.snapshot(userID))
	return nil
}

// snapshot must be called with s.mu held.
func (s *Store) snapshot(userID string) []notify.Notification {
	return append([]notify.Notification{}, s.items[userID]...)
}
