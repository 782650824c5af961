package notification

import "time"

// Notification represents a notification in the system
type Notification struct {
	ID             int64      `db:"id"`
	Type           string     `db:"type"`
	ActorID        string     `db:"actor_id"`
	RecipientID    string     `db:"recipient_id"`
	ReferenceID    *string    `db:"reference_id"`   // e.g. an event or organization id
	ReferenceType  *string    `db:"reference_type"` // e.g. "EVENT", "ORGANIZATION", "USER"
	Message        string     `db:"message"`
	IsRead         bool       `db:"is_read"`
	Channel        Channel    `db:"channel"`
	IdempotencyKey string     `db:"idempotency_key"`
	CreatedAt      time.Time  `db:"created_at"`
	ReadAt         *time.Time `db:"read_at"`
}

// Channel is the medium a notification or delivery goes through
type Channel string

const (
	ChannelInApp Channel = "IN_APP"
	ChannelEmail Channel = "EMAIL"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	NotificationTypeFollowReceived    NotificationType = "FOLLOW_RECEIVED"
	NotificationTypeFollowAccepted    NotificationType = "FOLLOW_ACCEPTED"
	NotificationTypeMention           NotificationType = "MENTION"
	NotificationTypeEventRSVP         NotificationType = "EVENT_RSVP"
	NotificationTypeEventCancelled    NotificationType = "EVENT_CANCELLED"
	NotificationTypeEventUpdated      NotificationType = "EVENT_UPDATED"
	NotificationTypeEventReminder24h  NotificationType = "EVENT_REMINDER_24H"
	NotificationTypeEventReminder1h   NotificationType = "EVENT_REMINDER_1H"
	NotificationTypeOrgInvite         NotificationType = "ORG_INVITE"
	NotificationTypeOrgRoleChanged    NotificationType = "ORG_ROLE_CHANGED"
	NotificationTypeOrgEventPublished NotificationType = "ORG_EVENT_PUBLISHED"
)
