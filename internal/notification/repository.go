package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gatherle/notification-service/internal/database"
)

const notificationColumns = `id, type, actor_id, recipient_id, reference_id, reference_type, message, is_read, channel, idempotency_key, created_at, read_at`

// Repository handles notification data persistence
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new notification repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new notification unless one with the same idempotency key already exists.
// The boolean result is false when the existing notification is returned instead.
func (r *Repository) Create(ctx context.Context, n *Notification) (*Notification, bool, error) {
	query := r.db.Rebind(`
		INSERT INTO notifications (type, actor_id, recipient_id, reference_id, reference_type, message, is_read, channel, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, FALSE, ?, ?, ?)
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING id
	`)

	var (
		saved   *Notification
		created bool
	)
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var id int64
		err := tx.QueryRowxContext(ctx, query,
			n.Type, n.ActorID, n.RecipientID, n.ReferenceID, n.ReferenceType, n.Message,
			string(n.Channel), n.IdempotencyKey, n.CreatedAt,
		).Scan(&id)
		if err == nil {
			row := *n
			row.ID = id
			row.IsRead = false
			row.ReadAt = nil
			saved, created = &row, true
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to create notification: %w", err)
		}

		existing := &Notification{}
		err = tx.GetContext(ctx, existing,
			r.db.Rebind(`SELECT `+notificationColumns+` FROM notifications WHERE idempotency_key = ?`),
			n.IdempotencyKey,
		)
		if err != nil {
			return fmt.Errorf("failed to load notification by idempotency key: %w", err)
		}
		saved = existing
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return saved, created, nil
}

// GetByID retrieves a notification by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Notification, error) {
	return getByID(ctx, r.db, r.db.Rebind(`SELECT `+notificationColumns+` FROM notifications WHERE id = ?`), id)
}

func getByID(ctx context.Context, q sqlx.QueryerContext, query string, id int64) (*Notification, error) {
	notification := &Notification{}
	if err := sqlx.GetContext(ctx, q, notification, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return notification, nil
}

// ListByRecipientID retrieves a page of notifications for a recipient, newest first
func (r *Repository) ListByRecipientID(ctx context.Context, recipientID string, limit, offset int, unreadOnly bool) ([]*Notification, int, error) {
	filter := ` WHERE recipient_id = ?`
	if unreadOnly {
		filter += ` AND is_read = FALSE`
	}

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*) FROM notifications`+filter), recipientID); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query := r.db.Rebind(`SELECT ` + notificationColumns + ` FROM notifications` + filter +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`)

	notifications := []*Notification{}
	if err := r.db.SelectContext(ctx, &notifications, query, recipientID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}

	return notifications, total, nil
}

// GetUnreadCount returns the count of unread notifications for a recipient
func (r *Repository) GetUnreadCount(ctx context.Context, recipientID string) (int, error) {
	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM notifications WHERE recipient_id = ? AND is_read = FALSE`)
	if err := r.db.GetContext(ctx, &count, query, recipientID); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkAsRead marks a notification as read at the given time and returns its current state.
// A notification that is already read keeps its original read time. Returns nil if the ID is unknown.
func (r *Repository) MarkAsRead(ctx context.Context, id int64, at time.Time) (*Notification, error) {
	selectQuery := r.db.Rebind(`SELECT ` + notificationColumns + ` FROM notifications WHERE id = ?`)
	updateQuery := r.db.Rebind(`UPDATE notifications SET is_read = TRUE, read_at = ? WHERE id = ? AND is_read = FALSE`)

	var result *Notification
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		current, err := getByID(ctx, tx, selectQuery, id)
		if err != nil || current == nil || current.IsRead {
			result = current
			return err
		}

		readAt := at
		if readAt.Before(current.CreatedAt) {
			readAt = current.CreatedAt
		}
		if _, err := tx.ExecContext(ctx, updateQuery, readAt, id); err != nil {
			return fmt.Errorf("failed to mark notification as read: %w", err)
		}

		result, err = getByID(ctx, tx, selectQuery, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// MarkAllAsRead marks every notification of a recipient that is unread at execution time.
// Rows created after at are left alone so read_at never precedes created_at.
func (r *Repository) MarkAllAsRead(ctx context.Context, recipientID string, at time.Time) (int, error) {
	query := r.db.Rebind(`
		UPDATE notifications SET is_read = TRUE, read_at = ?
		WHERE recipient_id = ? AND is_read = FALSE AND created_at <= ?
	`)

	result, err := r.db.ExecContext(ctx, query, at, recipientID, at)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all notifications as read: %w", err)
	}

	updated, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return int(updated), nil
}
