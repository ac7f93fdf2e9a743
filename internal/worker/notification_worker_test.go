package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/notify/memory"
)

func TestHandleNotificationMessage(t *testing.T) {
	store := memory.New()
	w := NewNotificationWorker(store, log.Discard())
	sent := time.Now().Add(-time.Minute)

	err := w.HandleNotificationMessage(context.Background(), &amqp.NotificationMessage{
		UserID:       "u1",
		Notification: notify.Notification{Type: notify.TypeIncome, Title: "New Income Added", Read: true},
		Timestamp:    sent,
	})
	require.NoError(t, err)

	got, err := store.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].Read)
	assert.True(t, got[0].CreatedAt.Equal(sent))
	assert.NotEmpty(t, got[0].ID)
}

func TestHandleNotificationMessageDropsStale(t *testing.T) {
	store := memory.New()
	w := NewNotificationWorker(store, log.Discard()).WithMaxAge(time.Hour)

	err := w.HandleNotificationMessage(context.Background(), &amqp.NotificationMessage{
		UserID:    "u1",
		Timestamp: time.Now().Add(-2 * time.Hour),
	})
	require.NoError(t, err)

	got, _ := store.List(context.Background(), "u1")
	assert.Empty(t, got)
}

type brokenStore struct{ notify.Store }

func (brokenStore) Append(context.Context, string, notify.Notification) (string, error) {
	return "", errors.New("disk full")
}

func TestHandleNotificationMessagePropagatesStoreError(t *testing.T) {
	w := NewNotificationWorker(brokenStore{}, log.Discard())

	err := w.HandleNotificationMessage(context.Background(), &amqp.NotificationMessage{UserID: "u1", Timestamp: time.Now()})
	assert.ErrorContains(t, err, "disk full")
}
