package delivery

import (
	"time"

	"github.com/gatherle/notification-service/internal/notification"
)

// Status is the lifecycle state of a delivery
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSent      Status = "SENT"
	StatusDelivered Status = "DELIVERED"
	StatusFailed    Status = "FAILED"
)

// Statuses lists every status in lifecycle order
var Statuses = []Status{StatusPending, StatusSent, StatusDelivered, StatusFailed}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSent, StatusDelivered, StatusFailed:
		return true
	}
	return false
}

const maxErrorMessageLength = 1000

// Log records the delivery of one notification over one channel
type Log struct {
	ID             int64                `db:"id"`
	NotificationID int64                `db:"notification_id"`
	Channel        notification.Channel `db:"channel"`
	Status         Status               `db:"status"`
	AttemptCount   int                  `db:"attempt_count"`
	ErrorMessage   *string              `db:"error_message"`
	CreatedAt      time.Time            `db:"created_at"`
	LastAttemptAt  *time.Time           `db:"last_attempt_at"`
	DeliveredAt    *time.Time           `db:"delivered_at"`
}

// Request is the message placed on the delivery queue
type Request struct {
	NotificationID int64  `json:"notificationId"`
	RecipientID    string `json:"recipientId"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
}

func newLog(notificationID int64, at time.Time) *Log {
	return &Log{
		NotificationID: notificationID,
		Channel:        notification.ChannelEmail,
		Status:         StatusPending,
		CreatedAt:      at,
	}
}

func (l *Log) recordAttempt(at time.Time) {
	l.AttemptCount++
	l.LastAttemptAt = &at
}

func (l *Log) markDelivered(at time.Time) {
	l.Status = StatusDelivered
	l.DeliveredAt = &at
	l.ErrorMessage = nil
}

func (l *Log) markSent() {
	l.Status = StatusSent
	l.ErrorMessage = nil
}

func (l *Log) markFailed(msg string) {
	if msg == "" {
		msg = "delivery failed"
	}
	if r := []rune(msg); len(r) > maxErrorMessageLength {
		msg = string(r[:maxErrorMessageLength])
	}
	l.Status = StatusFailed
	l.ErrorMessage = &msg
	l.DeliveredAt = nil
}
