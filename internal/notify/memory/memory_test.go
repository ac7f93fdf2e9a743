package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/notify"
)

func recv(t *testing.T, ch <-chan []notify.Notification) []notify.Notification {
	t.Helper()
	select {
	case snap, ok := <-ch:
		require.True(t, ok, "channel closed")
		return snap
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestStoreAppendListAndMarkRead(t *testing.T) {
	ctx := context.Background()
	s := New()

	id1, err := s.Append(ctx, "u1", notify.Notification{Title: "first"})
	require.NoError(t, err)
	id2, err := s.Append(ctx, "u1", notify.Notification{Title: "second"})
	require.NoError(t, err)
	_, err = s.Append(ctx, "u2", notify.Notification{Title: "other"})
	require.NoError(t, err)

	list, err := s.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Title, "newest first")
	assert.Equal(t, 2, notify.UnreadCount(list))

	require.NoError(t, s.MarkRead(ctx, "u1", id1))
	list, _ = s.List(ctx, "u1")
	assert.Equal(t, 1, notify.UnreadCount(list))

	err = s.MarkRead(ctx, "u2", id2)
	assert.True(t, errors.Is(err, core.ErrNotFound), "users are isolated: %v", err)

	require.NoError(t, s.MarkAllRead(ctx, "u1", []string{id1, id2, "missing"}))
	list, _ = s.List(ctx, "u1")
	assert.Equal(t, 0, notify.UnreadCount(list))
}

func TestStoreSubscribe(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.Append(ctx, "u1", notify.Notification{Title: "existing"})
	require.NoError(t, err)

	ch, release := s.Subscribe(ctx, "u1")
	initial := recv(t, ch)
	require.Len(t, initial, 1)

	_, err = s.Append(ctx, "u1", notify.Notification{Title: "fresh"})
	require.NoError(t, err)
	next := recv(t, ch)
	require.Len(t, next, 2)
	assert.Equal(t, "fresh", next[0].Title)

	release()
	release() // idempotent
	_, ok := <-ch
	assert.False(t, ok, "channel closed after release")
}

func TestStoreSubscribe_SlowReaderSeesLatest(t *testing.T) {
	ctx := context.Background()
	s := New()
	ch, release := s.Subscribe(ctx, "u1")
	defer release()
	_ = recv(t, ch)

	for i := 0; i < 5; i++ {
		_, err := s.Append(ctx, "u1", notify.Notification{Title: "n"})
		require.NoError(t, err)
	}
	assert.Len(t, recv(t, ch), 5)
}

func TestStoreSubscribe_ContextCancelReleases(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New()
	ch, release := s.Subscribe(ctx, "u1")
	defer release()
	_ = recv(t, ch)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not released on cancel")
	}
	assert.Equal(t, 0, s.hub.Subscribers("u1"))
}
