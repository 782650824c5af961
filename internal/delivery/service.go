package delivery

import (
	"context"
	"errors"
	"fmt"

	"github.com/gatherle/notification-service/internal/notification"
)

// Common errors
var (
	ErrDeliveryLogNotFound = errors.New("delivery log not found")
	ErrInvalidStatus       = errors.New("unknown delivery status")
	ErrInvalidLimit        = errors.New("limit must be between 1 and 500")
)

// Listing bounds
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Service exposes delivery logs to operators
type Service struct {
	repo          *Repository
	notifications NotificationFinder
	dispatcher    *Dispatcher
}

// NewService creates a new delivery service
func NewService(repo *Repository, notifications NotificationFinder, dispatcher *Dispatcher) *Service {
	return &Service{repo: repo, notifications: notifications, dispatcher: dispatcher}
}

// GetByID retrieves a delivery log by its ID
func (s *Service) GetByID(ctx context.Context, id int64) (*Log, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrDeliveryLogNotFound
	}
	return l, nil
}

// ListByNotification returns the delivery history of a notification
func (s *Service) ListByNotification(ctx context.Context, notificationID int64) ([]*Log, error) {
	n, err := s.notifications.GetByID(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, notification.ErrNotificationNotFound
	}
	return s.repo.ListByNotificationID(ctx, notificationID)
}

// ListByStatus returns the most recent delivery logs in a status
func (s *Service) ListByStatus(ctx context.Context, status Status, limit int) ([]*Log, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if limit < 1 || limit > MaxListLimit {
		return nil, ErrInvalidLimit
	}
	return s.repo.ListByStatus(ctx, status, limit)
}

// Stats returns the number of delivery logs per status
func (s *Service) Stats(ctx context.Context) (map[Status]int, error) {
	return s.repo.CountByStatus(ctx)
}

// Resubmit publishes a fresh delivery request for the notification of an existing log.
// The worker records the new attempt in a new delivery log.
func (s *Service) Resubmit(ctx context.Context, logID int64) (Request, error) {
	l, err := s.GetByID(ctx, logID)
	if err != nil {
		return Request{}, err
	}

	n, err := s.notifications.GetByID(ctx, l.NotificationID)
	if err != nil {
		return Request{}, err
	}
	if n == nil {
		return Request{}, notification.ErrNotificationNotFound
	}

	req := NewRequest(n)
	if err := s.dispatcher.Publish(ctx, req); err != nil {
		return Request{}, fmt.Errorf("failed to resubmit delivery %d: %w", logID, err)
	}
	return req, nil
}
