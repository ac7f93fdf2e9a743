package worker

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/log"
	"fintrack/internal/notify"
)

// NotificationWorker appends notifications received from the broker to the
// notification store, where subscribers pick them up.
type NotificationWorker struct {
	store  notify.Store
	logger *log.Logger
	maxAge time.Duration
	now    func() time.Time
}

func NewNotificationWorker(store notify.Store, logger *log.Logger) *NotificationWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &NotificationWorker{
		store:  store,
		logger: logger.WithComponent(log.ComponentWorker),
		maxAge: 24 * time.Hour,
		now:    time.Now,
	}
}

// WithMaxAge drops messages older than d instead of storing them. Zero keeps everything.
func (w *NotificationWorker) WithMaxAge(d time.Duration) *NotificationWorker {
	w.maxAge = d
	return w
}

// HandleNotificationMessage stores one notification. A returned error makes
// the consumer requeue the message.
func (w *NotificationWorker) HandleNotificationMessage(ctx context.Context, msg *amqp.NotificationMessage) error {
	if w.maxAge > 0 && !msg.Timestamp.IsZero() && w.now().Sub(msg.Timestamp) > w.maxAge {
		w.logger.WarnContext(ctx, "Dropping stale notification message",
			log.FieldUserID, msg.UserID,
			"age", w.now().Sub(msg.Timestamp).Round(time.Second))
		return nil
	}

	n := msg.Notification
	n.Read = false
	if n.CreatedAt.IsZero() {
		n.CreatedAt = msg.Timestamp
	}

	id, err := w.store.Append(ctx, msg.UserID, n)
	if err != nil {
		return fmt.Errorf("append notification: %w", err)
	}

	w.logger.InfoContext(ctx, "Stored notification",
		log.FieldUserID, msg.UserID,
		log.FieldNotification, string(n.Type),
		"notification_id", id)
	return nil
}
