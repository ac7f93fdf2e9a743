package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"fintrack/internal/notify"
)

// NotificationMessage carries one notification for one user between the API
// process and the notification worker.
type NotificationMessage struct {
	UserID       string              `json:"userId"`
	Notification notify.Notification `json:"notification"`
	Timestamp    time.Time           `json:"timestamp"`
}

func NewNotificationMessage(userID string, n notify.Notification) *NotificationMessage {
	return &NotificationMessage{
		UserID:       userID,
		Notification: n,
		Timestamp:    time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// NotificationMessageFromJSON decodes a message and rejects one without a user.
func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID == "" {
		return nil, errors.New("notification message without user id")
	}
	return &msg, nil
}
