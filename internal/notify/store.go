package notify

import "context"

// Store persists notifications per user.
type Store interface {
	Append(ctx context.Context, userID string, n Notification) (string, error)
	// List returns the user's notifications, newest first.
	List(ctx context.Context, userID string) ([]Notification, error)
	// Subscribe yields the current snapshot and then a fresh snapshot after
	// every change. The channel is closed once release is called or ctx ends.
	// Slow readers only ever see the latest snapshot.
	Subscribe(ctx context.Context, userID string) (snapshots <-chan []Notification, release func())
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string, ids []string) error
}

// Sink delivers a built notification. A Store is a Sink; so is the AMQP publisher.
type Sink interface {
	Deliver(ctx context.Context, userID string, n Notification) error
}

// StoreSink delivers by appending directly to a Store.
type StoreSink struct {
	Store Store
}

func (s StoreSink) Deliver(ctx context.Context, userID string, n Notification) error {
	_, err := s.Store.Append(ctx, userID, n)
	return err
}
