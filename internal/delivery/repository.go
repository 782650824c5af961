package delivery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gatherle/notification-service/internal/database"
)

const logColumns = `id, notification_id, channel, status, attempt_count, error_message, created_at, last_attempt_at, delivered_at`

// Repository handles delivery log persistence
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new delivery log repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a delivery log and sets its ID
func (r *Repository) Create(ctx context.Context, l *Log) error {
	query := r.db.Rebind(`
		INSERT INTO delivery_logs (notification_id, channel, status, attempt_count, error_message, created_at, last_attempt_at, delivered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)

	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, query,
			l.NotificationID, string(l.Channel), string(l.Status), l.AttemptCount,
			l.ErrorMessage, l.CreatedAt, l.LastAttemptAt, l.DeliveredAt,
		).Scan(&l.ID)
		if err != nil {
			return fmt.Errorf("failed to create delivery log: %w", err)
		}
		return nil
	})
}

// Update persists the mutable fields of a delivery log. Attempt counts never move backwards.
func (r *Repository) Update(ctx context.Context, l *Log) error {
	query := r.db.Rebind(`
		UPDATE delivery_logs
		SET status = ?, attempt_count = ?, error_message = ?, last_attempt_at = ?, delivered_at = ?
		WHERE id = ? AND attempt_count <= ?
	`)

	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			string(l.Status), l.AttemptCount, l.ErrorMessage, l.LastAttemptAt, l.DeliveredAt,
			l.ID, l.AttemptCount,
		)
		if err != nil {
			return fmt.Errorf("failed to update delivery log: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("delivery log %d missing or already past attempt %d", l.ID, l.AttemptCount)
		}
		return nil
	})
}

// GetByID retrieves a delivery log by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Log, error) {
	l := &Log{}
	err := r.db.GetContext(ctx, l, r.db.Rebind(`SELECT `+logColumns+` FROM delivery_logs WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get delivery log: %w", err)
	}
	return l, nil
}

// ListByNotificationID retrieves all delivery logs of a notification, oldest first
func (r *Repository) ListByNotificationID(ctx context.Context, notificationID int64) ([]*Log, error) {
	logs := []*Log{}
	query := r.db.Rebind(`SELECT ` + logColumns + ` FROM delivery_logs WHERE notification_id = ? ORDER BY id`)
	if err := r.db.SelectContext(ctx, &logs, query, notificationID); err != nil {
		return nil, fmt.Errorf("failed to list delivery logs: %w", err)
	}
	return logs, nil
}

// ListByStatus retrieves up to limit delivery logs in the given status, newest first
func (r *Repository) ListByStatus(ctx context.Context, status Status, limit int) ([]*Log, error) {
	logs := []*Log{}
	query := r.db.Rebind(`SELECT ` + logColumns + ` FROM delivery_logs WHERE status = ? ORDER BY id DESC LIMIT ?`)
	if err := r.db.SelectContext(ctx, &logs, query, string(status), limit); err != nil {
		return nil, fmt.Errorf("failed to list delivery logs by status: %w", err)
	}
	return logs, nil
}

// CountByStatus returns the number of delivery logs per status, including zero counts
func (r *Repository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	var rows []struct {
		Status Status `db:"status"`
		Count  int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS count FROM delivery_logs GROUP BY status`); err != nil {
		return nil, fmt.Errorf("failed to count delivery logs: %w", err)
	}

	counts := make(map[Status]int, len(Statuses))
	for _, s := range Statuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
