package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/notify"
)

func newTestNotificationStore(t *testing.T) (*NotificationStore, *SQLiteRepository) {
	t.Helper()
	repo := newTestRepository(t)
	return NewNotificationStore(repo.DB(), log.Discard()), repo
}

func receive(t *testing.T, ch <-chan []notify.Notification) []notify.Notification {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestNotificationStoreAppendListMark(t *testing.T) {
	store, _ := newTestNotificationStore(t)
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	first, err := store.Append(ctx, "u1", notify.Notification{Type: notify.TypeExpense, Title: "a", CreatedAt: created})
	require.NoError(t, err)
	second, err := store.Append(ctx, "u1", notify.Notification{Type: notify.TypeIncome, Title: "b", CreatedAt: created})
	require.NoError(t, err)

	list, err := store.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID)
	assert.True(t, list[1].CreatedAt.Equal(created))
	assert.Equal(t, 2, notify.UnreadCount(list))

	require.NoError(t, store.MarkRead(ctx, "u1", first))
	assert.ErrorIs(t, store.MarkRead(ctx, "u2", first), core.ErrNotFound)

	require.NoError(t, store.MarkAllRead(ctx, "u1", []string{second, "999", "junk"}))
	list, err = store.List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, notify.UnreadCount(list))
}

func TestNotificationStoreSubscribe(t *testing.T) {
	store, _ := newTestNotificationStore(t)
	ctx := context.Background()

	ch, release := store.Subscribe(ctx, "u1")
	assert.Empty(t, receive(t, ch))

	_, err := store.Append(ctx, "u1", notify.Notification{Type: notify.TypeExpense, Title: "a"})
	require.NoError(t, err)
	assert.Len(t, receive(t, ch), 1)

	release()
	release()
	_, open := <-ch
	assert.False(t, open)
}

func TestNotificationStorePollSeesOtherWriters(t *testing.T) {
	store, repo := newTestNotificationStore(t)
	other := NewNotificationStore(repo.DB(), log.Discard())
	ctx := context.Background()

	ch, release := store.Subscribe(ctx, "u1")
	defer release()
	receive(t, ch)

	_, err := other.Append(ctx, "u1", notify.Notification{Type: notify.TypeGoal, Title: "g"})
	require.NoError(t, err)

	store.Poll(ctx)
	snap := receive(t, ch)
	require.Len(t, snap, 1)
	assert.Equal(t, notify.TypeGoal, snap[0].Type)

	store.Poll(ctx)
	select {
	case got := <-ch:
		t.Fatalf("unexpected snapshot without changes: %+v", got)
	default:
	}
}

func TestNotificationStorePollingLifecycle(t *testing.T) {
	store, _ := newTestNotificationStore(t)
	store.StartPolling(context.Background(), 10*time.Millisecond)
	store.StartPolling(context.Background(), 10*time.Millisecond)
	store.Stop()
	store.Stop()
}
