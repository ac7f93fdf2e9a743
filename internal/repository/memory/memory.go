package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/repository"
)

var _ repository.Repository = (*Store)(nil)

type bucket struct {
	userID string
	kind   core.Kind
}

// Store keeps transactions in process memory. It is the default backend for
// local development and the fixture backend for service tests.
type Store struct {
	mu     sync.Mutex
	nextID int64
	items  map[bucket][]core.Transaction
	now    func() time.Time
}

func New() *Store {
	return &Store{items: make(map[bucket][]core.Transaction), now: time.Now}
}

// WithClock replaces the clock used for CreatedAt/UpdatedAt stamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Seed stores records as-is (ids included) for the given user, bypassing validation.
func (s *Store) Seed(userID string, records ...core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range records {
		b := bucket{userID: userID, kind: t.Kind}
		s.items[b] = append(s.items[b], t)
		if id, err := strconv.ParseInt(t.ID, 10, 64); err == nil && id > s.nextID {
			s.nextID = id
		}
	}
}

func (s *Store) List(_ context.Context, userID string, kind core.Kind) ([]core.Transaction, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	out := append([]core.Transaction(nil), s.items[bucket{userID, kind}]...)
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	return out, nil
}

func (s *Store) Get(_ context.Context, userID string, kind core.Kind, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.indexOf(bucket{userID, kind}, id)
	if err != nil {
		return core.Transaction{}, err
	}
	return s.items[bucket{userID, kind}][i], nil
}

// Create stores the transaction and returns a sequential id.
func (s *Store) Create(_ context.Context, userID string, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	now := s.now()
	t.ID = strconv.FormatInt(s.nextID, 10)
	t.CreatedAt, t.UpdatedAt = now, now
	b := bucket{userID, t.Kind}
	s.items[b] = append(s.items[b], t)
	return t.ID, nil
}

func (s *Store) Update(_ context.Context, userID string, kind core.Kind, id string, p core.Patch) error {
	if err := p.Validate(kind); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b := bucket{userID, kind}
	i, err := s.indexOf(b, id)
	if err != nil {
		return err
	}
	updated := s.items[b][i].Apply(p)
	updated.UpdatedAt = s.now()
	s.items[b][i] = updated
	return nil
}

func (s *Store) Delete(_ context.Context, userID string, kind core.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := bucket{userID, kind}
	i, err := s.indexOf(b, id)
	if err != nil {
		return err
	}
	s.items[b] = append(s.items[b][:i], s.items[b][i+1:]...)
	return nil
}

// indexOf must be called with s.mu held.
func (s *Store) indexOf(b bucket, id string) (int, error) {
	for i, t := range s.items[b] {
		if t.ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%s %q: %w", b.kind, id, core.ErrNotFound)
}
