package notify

import (
	"context"
	"sync"
)

// Hub fans snapshots out to in-process subscribers of a user's notifications.
// Store implementations call Publish after every change.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan []Notification
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]chan []Notification)}
}

// Subscribe registers a subscriber primed with initial. The returned release
// func is idempotent; it is also called when ctx ends.
func (h *Hub) Subscribe(ctx context.Context, userID string, initial []Notification) (<-chan []Notification, func()) {
	ch := make(chan []Notification, 1)
	ch <- initial

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[int]chan []Notification)
	}
	h.subs[userID][id] = ch
	h.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[userID], id)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			close(ch)
		})
	}
	stop := context.AfterFunc(ctx, release)
	return ch, func() {
		stop()
		release()
	}
}

// Publish replaces any undelivered snapshot with snapshot for every
// subscriber of userID. It never blocks on slow readers.
func (h *Hub) Publish(userID string, snapshot []Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[userID] {
		select {
		case <-ch:
		default:
		}
		ch <- append([]Notification(nil), snapshot...)
	}
}

// Subscribers returns how many subscriptions are open for userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}

// Users returns the ids of users with at least one open subscription.
func (h *Hub) Users() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.subs))
	for userID := range h.subs {
		out = append(out, userID)
	}
	return out
}
