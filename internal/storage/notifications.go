package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/notify"
)

var _ notify.Store = (*NotificationStore)(nil)

// NotificationStore keeps notifications in SQLite. Changes made through this
// store reach subscribers immediately; changes written by another process
// (the notification worker) are picked up by Poll.
type NotificationStore struct {
	db     *sql.DB
	hub    *notify.Hub
	logger *log.Logger

	mu     sync.Mutex
	marks  map[string]fingerprint
	stopCh chan struct{}
	doneCh chan struct{}
}

// fingerprint summarizes a user's notifications cheaply enough to poll.
type fingerprint struct {
	count, maxID, read int64
}

func NewNotificationStore(db *sql.DB, logger *log.Logger) *NotificationStore {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &NotificationStore{
		db:     db,
		hub:    notify.NewHub(),
		logger: logger.WithComponent(log.ComponentStorage),
		marks:  make(map[string]fingerprint),
	}
}

func (s *NotificationStore) Append(ctx context.Context, userID string, n notify.Notification) (string, error) {
	created := n.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, type, title, message, icon, read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, string(n.Type), n.Title, n.Message, n.Icon, boolToInt(n.Read), created.UTC().Format(timeLayout))
	if err != nil {
		return "", unavailable("insert notification", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", unavailable("read inserted id", err)
	}
	s.refresh(ctx, userID)
	return strconv.FormatInt(id, 10), nil
}

func (s *NotificationStore) List(ctx context.Context, userID string) ([]notify.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, title, message, icon, read, created_at
		 FROM notifications WHERE user_id = ? ORDER BY id DESC`, userID)
	if err != nil {
		return nil, unavailable("list notifications", err)
	}
	defer rows.Close()

	out := []notify.Notification{}
	for rows.Next() {
		var (
			n       notify.Notification
			id      int64
			typ     string
			read    int64
			created string
		)
		if err := rows.Scan(&id, &typ, &n.Title, &n.Message, &n.Icon, &read, &created); err != nil {
			return nil, unavailable("scan notification", err)
		}
		n.ID = strconv.FormatInt(id, 10)
		n.Type = notify.Type(typ)
		n.Read = read != 0
		if d, err := core.NormalizeDate(created); err == nil {
			n.CreatedAt = d.Time
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list notifications", err)
	}
	return out, nil
}

// Subscribe primes the channel with the current list. If the list cannot be
// read the subscription starts empty and fills on the next change.
func (s *NotificationStore) Subscribe(ctx context.Context, userID string) (<-chan []notify.Notification, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	initial, err := s.List(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to load notifications for subscriber",
			log.FieldUserID, userID, log.FieldError, err)
		initial = nil
	}
	if fp, err := s.fingerprint(ctx, userID); err == nil {
		s.marks[userID] = fp
	}
	return s.hub.Subscribe(ctx, userID, initial)
}

func (s *NotificationStore) MarkRead(ctx context.Context, userID, id string) error {
	rowID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("notification %q: %w", id, core.ErrNotFound)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET read = 1 WHERE user_id = ? AND id = ?`, userID, rowID)
	if err != nil {
		return unavailable("mark notification read", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("notification %q: %w", id, core.ErrNotFound)
	}
	s.refresh(ctx, userID)
	return nil
}

// MarkAllRead marks the listed notifications read. Unknown ids are ignored.
func (s *NotificationStore) MarkAllRead(ctx context.Context, userID string, ids []string) error {
	args := []any{userID}
	for _, id := range ids {
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			args = append(args, n)
		}
	}
	if len(args) > 1 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(args)-1), ",")
		_, err := s.db.ExecContext(ctx,
			`UPDATE notifications SET read = 1 WHERE user_id = ? AND id IN (`+placeholders+`)`, args...)
		if err != nil {
			return unavailable("mark notifications read", err)
		}
	}
	s.refresh(ctx, userID)
	return nil
}

// StartPolling checks subscribed users for changes made by other processes
// every interval until Stop is called or ctx ends.
func (s *NotificationStore) StartPolling(ctx context.Context, interval time.Duration) {
	s.mu.Lock()
	if s.stopCh != nil {
		s.mu.Unlock()
		return
	}
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	go func() {
		defer close(doneCh)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Poll(ctx)
			}
		}
	}()
}

// Stop ends polling and waits for the loop to exit.
func (s *NotificationStore) Stop() {
	s.mu.Lock()
	stopCh, doneCh := s.stopCh, s.doneCh
	s.stopCh, s.doneCh = nil, nil
	s.mu.Unlock()
	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh
}

// Poll publishes a fresh snapshot to every subscribed user whose
// notifications changed since the last look.
func (s *NotificationStore) Poll(ctx context.Context) {
	for _, userID := range s.hub.Users() {
		fp, err := s.fingerprint(ctx, userID)
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to poll notifications", log.FieldUserID, userID, log.FieldError, err)
			continue
		}
		s.mu.Lock()
		changed := s.marks[userID] != fp
		s.mu.Unlock()
		if changed {
			s.refresh(ctx, userID)
		}
	}
}

// refresh publishes the current list to the user's subscribers.
func (s *NotificationStore) refresh(ctx context.Context, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hub.Subscribers(userID) == 0 {
		delete(s.marks, userID)
		return
	}
	snapshot, err := s.List(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to refresh notification subscribers", log.FieldUserID, userID, log.FieldError, err)
		return
	}
	if fp, err := s.fingerprint(ctx, userID); err == nil {
		s.marks[userID] = fp
	}
	s.hub.Publish(userID, snapshot)
}

func (s *NotificationStore) fingerprint(ctx context.Context, userID string) (fingerprint, error) {
	var fp fingerprint
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(MAX(id), 0), COALESCE(SUM(read), 0)
		 FROM notifications WHERE user_id = ?`, userID).Scan(&fp.count, &fp.maxID, &fp.read)
	if err != nil {
		return fp, unavailable("fingerprint notifications", err)
	}
	return fp, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
