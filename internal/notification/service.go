package notification

import (
	"context"
	"errors"
	"time"
)

// Common errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidPage          = errors.New("page must be >= 0 and size between 1 and 100")
)

// Paging defaults
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is one slice of a recipient's notifications
type Page struct {
	Items      []*Notification
	Page       int
	Size       int
	Total      int
	TotalPages int
}

// Service handles notification read and state-transition logic
type Service struct {
	repo *Repository
	now  func() time.Time
}

// NewService creates a new notification service
func NewService(repo *Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// GetByID retrieves a notification by its ID
func (s *Service) GetByID(ctx context.Context, id int64) (*Notification, error) {
	notification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if notification == nil {
		return nil, ErrNotificationNotFound
	}
	return notification, nil
}

// ListNotifications returns a page of a recipient's notifications, newest first. Pages are 0-based.
func (s *Service) ListNotifications(ctx context.Context, recipientID string, page, size int) (*Page, error) {
	return s.list(ctx, recipientID, page, size, false)
}

// ListUnread returns a page of a recipient's unread notifications, newest first
func (s *Service) ListUnread(ctx context.Context, recipientID string, page, size int) (*Page, error) {
	return s.list(ctx, recipientID, page, size, true)
}

func (s *Service) list(ctx context.Context, recipientID string, page, size int, unreadOnly bool) (*Page, error) {
	if page < 0 || size < 1 || size > MaxPageSize {
		return nil, ErrInvalidPage
	}

	items, total, err := s.repo.ListByRecipientID(ctx, recipientID, size, page*size, unreadOnly)
	if err != nil {
		return nil, err
	}

	return &Page{
		Items:      items,
		Page:       page,
		Size:       size,
		Total:      total,
		TotalPages: (total + size - 1) / size,
	}, nil
}

// UnreadCount returns the exact number of unread notifications for a recipient
func (s *Service) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	return s.repo.GetUnreadCount(ctx, recipientID)
}

// MarkAsRead marks a notification as read. Marking an already read notification is a no-op.
func (s *Service) MarkAsRead(ctx context.Context, id int64) (*Notification, error) {
	notification, err := s.repo.MarkAsRead(ctx, id, s.clock())
	if err != nil {
		return nil, err
	}
	if notification == nil {
		return nil, ErrNotificationNotFound
	}
	return notification, nil
}

// MarkAllAsRead marks all unread notifications of a recipient as read and returns how many changed
func (s *Service) MarkAllAsRead(ctx context.Context, recipientID string) (int, error) {
	return s.repo.MarkAllAsRead(ctx, recipientID, s.clock())
}

func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}
