package notification

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidNotification is returned when a creation payload fails validation
var ErrInvalidNotification = errors.New("invalid notification")

var validate = validator.New(validator.WithRequiredStructEnabled())

// CreateNotificationRequest is the payload of an inbound domain event and of direct creation
type CreateNotificationRequest struct {
	Type          string  `json:"type" validate:"required,max=50"`
	ActorID       string  `json:"actorId" validate:"required,max=64"`
	RecipientID   string  `json:"recipientId" validate:"required,max=64"`
	ReferenceID   *string `json:"referenceId,omitempty" validate:"omitempty,max=64"`
	ReferenceType *string `json:"referenceType,omitempty" validate:"omitempty,max=30"`
	Message       string  `json:"message" validate:"required,max=500"`
}

// Validate checks required fields and column limits
func (req *CreateNotificationRequest) Validate() error {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidNotification, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidNotification, err)
	}
	return nil
}

// NotificationResponse represents the response for a notification
type NotificationResponse struct {
	ID            int64   `json:"id"`
	Type          string  `json:"type"`
	ActorID       string  `json:"actorId"`
	RecipientID   string  `json:"recipientId"`
	ReferenceID   *string `json:"referenceId,omitempty"`
	ReferenceType *string `json:"referenceType,omitempty"`
	Message       string  `json:"message"`
	Read          bool    `json:"read"`
	Channel       Channel `json:"channel"`
	CreatedAt     string  `json:"createdAt"`
	ReadAt        *string `json:"readAt,omitempty"`
}

// CreateNotificationResponse is returned by direct creation
type CreateNotificationResponse struct {
	ID int64 `json:"id"`
}

// UnreadCountResponse wraps the unread counter
type UnreadCountResponse struct {
	Count int `json:"count"`
}

// MarkAllAsReadResponse reports how many notifications were marked
type MarkAllAsReadResponse struct {
	Updated int `json:"updated"`
}

// toResponse converts a Notification to a NotificationResponse
func toResponse(n *Notification) *NotificationResponse {
	resp := &NotificationResponse{
		ID:            n.ID,
		Type:          n.Type,
		ActorID:       n.ActorID,
		RecipientID:   n.RecipientID,
		ReferenceID:   n.ReferenceID,
		ReferenceType: n.ReferenceType,
		Message:       n.Message,
		Read:          n.IsRead,
		Channel:       n.Channel,
		CreatedAt:     n.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if n.ReadAt != nil {
		readAt := n.ReadAt.UTC().Format(time.RFC3339Nano)
		resp.ReadAt = &readAt
	}
	return resp
}

func toResponses(notifications []*Notification) []*NotificationResponse {
	out := make([]*NotificationResponse, len(notifications))
	for i, n := range notifications {
		out[i] = toResponse(n)
	}
	return out
}
