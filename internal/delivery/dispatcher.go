package delivery

import (
	"context"
	"log"

	"github.com/gatherle/notification-service/internal/metrics"
	"github.com/gatherle/notification-service/internal/notification"
	"github.com/gatherle/notification-service/internal/queue"
)

// Queue topics of the email channel
const (
	EmailTopic           = "gatherle.email.delivery"
	EmailDeadLetterTopic = EmailTopic + ".dlq"
)

// DefaultSubject is used for types without a dedicated subject line
const DefaultSubject = "Gatherle Notification"

var emailSubjects = map[notification.NotificationType]string{
	notification.NotificationTypeEventReminder24h: "Reminder: Your event is tomorrow!",
	notification.NotificationTypeEventReminder1h:  "Starting soon: Your event begins in 1 hour",
	notification.NotificationTypeEventCancelled:   "Event cancelled",
	notification.NotificationTypeEventUpdated:     "Event details updated",
	notification.NotificationTypeOrgInvite:        "You've been invited to join an organization",
}

// IsEmailEligible reports whether notifications of type t are also sent by email
func IsEmailEligible(t string) bool {
	_, ok := emailSubjects[notification.NotificationType(t)]
	return ok
}

// SubjectFor returns the email subject for a notification type
func SubjectFor(t string) string {
	if subject, ok := emailSubjects[notification.NotificationType(t)]; ok {
		return subject
	}
	return DefaultSubject
}

// NewRequest builds the email delivery request for a notification
func NewRequest(n *notification.Notification) Request {
	return Request{
		NotificationID: n.ID,
		RecipientID:    n.RecipientID,
		Subject:        SubjectFor(n.Type),
		Body:           n.Message,
	}
}

// Dispatcher fans eligible notifications out to the email delivery queue
type Dispatcher struct {
	publisher queue.Publisher
	metrics   metrics.Recorder
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(publisher queue.Publisher, recorder metrics.Recorder) *Dispatcher {
	return &Dispatcher{publisher: publisher, metrics: recorder}
}

// Dispatch publishes an email request when the notification type is eligible.
// It reports whether a request was published. Publish failures are logged and counted, never retried here.
func (d *Dispatcher) Dispatch(ctx context.Context, n *notification.Notification) (bool, error) {
	if !IsEmailEligible(n.Type) {
		return false, nil
	}
	if err := d.Publish(ctx, NewRequest(n)); err != nil {
		return false, err
	}
	return true, nil
}

// Publish puts a delivery request on the email queue
func (d *Dispatcher) Publish(ctx context.Context, req Request) error {
	if err := queue.PublishJSON(ctx, d.publisher, EmailTopic, req); err != nil {
		d.metrics.Inc(metrics.DeliveriesPublishFailed)
		log.Printf("email dispatch failed notification_id=%d err=%v", req.NotificationID, err)
		return err
	}

	d.metrics.Inc(metrics.DeliveriesDispatched)
	log.Printf("email dispatched notification_id=%d recipient_id=%s", req.NotificationID, req.RecipientID)
	return nil
}
