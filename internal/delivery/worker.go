package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gatherle/notification-service/internal/metrics"
	"github.com/gatherle/notification-service/internal/notification"
	"github.com/gatherle/notification-service/internal/queue"
)

// ConsumerGroup is the consumer group of the delivery workers
const ConsumerGroup = "notification-delivery"

const deadLetterTimeout = 5 * time.Second

// NotificationFinder loads the notification a delivery request refers to
type NotificationFinder interface {
	GetByID(ctx context.Context, id int64) (*notification.Notification, error)
}

// RetryPolicy bounds provider attempts per delivery request
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
	MaxBackoff  time.Duration
}

// delay returns the pause after the given failed attempt: Backoff << (attempt-1), capped at MaxBackoff
func (p RetryPolicy) delay(attempt int) time.Duration {
	if p.Backoff <= 0 {
		return 0
	}
	d := p.Backoff << uint(attempt-1)
	if d <= 0 || (p.MaxBackoff > 0 && d > p.MaxBackoff) {
		d = p.MaxBackoff
	}
	return d
}

// Worker consumes delivery requests and records each one in a delivery log
type Worker struct {
	notifications NotificationFinder
	logs          *Repository
	provider      Provider
	deadLetter    queue.Publisher
	metrics       metrics.Recorder
	policy        RetryPolicy
	now           func() time.Time
}

// NewWorker creates a new delivery worker
func NewWorker(notifications NotificationFinder, logs *Repository, provider Provider, deadLetter queue.Publisher, recorder metrics.Recorder, policy RetryPolicy) *Worker {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Worker{
		notifications: notifications,
		logs:          logs,
		provider:      provider,
		deadLetter:    deadLetter,
		metrics:       recorder,
		policy:        policy,
		now:           time.Now,
	}
}

// Run consumes the email queue with concurrency workers until ctx is cancelled
func (w *Worker) Run(ctx context.Context, source queue.Consumer, concurrency int) error {
	log.Printf("delivery worker started topic=%s concurrency=%d", EmailTopic, concurrency)
	err := source.Consume(ctx, EmailTopic, ConsumerGroup, concurrency, w.Handle)
	log.Printf("delivery worker stopped topic=%s", EmailTopic)
	return err
}

// Handle is the queue handler for delivery requests
func (w *Worker) Handle(ctx context.Context, msg queue.Message) error {
	var req Request
	if err := json.Unmarshal(msg.Payload, &req); err != nil || req.NotificationID == 0 {
		w.metrics.Inc(metrics.DeliveriesDiscarded)
		log.Printf("delivery request malformed message_id=%s err=%v", msg.ID, err)
		return queue.Drop(fmt.Errorf("malformed delivery request: %v", err))
	}

	_, err := w.Deliver(ctx, req)
	return err
}

// Deliver sends one request through the provider with bounded retries.
// It returns nil without a log when the notification no longer exists.
// Errors are storage failures; provider failures end in a FAILED log instead.
func (w *Worker) Deliver(ctx context.Context, req Request) (*Log, error) {
	n, err := w.notifications.GetByID(ctx, req.NotificationID)
	if err != nil {
		return nil, err
	}
	if n == nil {
		w.metrics.Inc(metrics.DeliveriesDiscarded)
		log.Printf("delivery discarded, notification missing notification_id=%d", req.NotificationID)
		return nil, nil
	}

	entry := newLog(n.ID, w.clock())
	if err := w.logs.Create(ctx, entry); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= w.policy.MaxAttempts; attempt++ {
		entry.recordAttempt(w.clock())

		receipt, err := w.provider.Send(ctx, req)
		if err == nil {
			return entry, w.succeed(ctx, entry, receipt)
		}
		lastErr = err
		log.Printf("delivery attempt failed delivery_id=%d notification_id=%d attempt=%d/%d err=%v",
			entry.ID, entry.NotificationID, attempt, w.policy.MaxAttempts, err)

		if attempt == w.policy.MaxAttempts {
			break
		}
		if err := w.logs.Update(ctx, entry); err != nil {
			return entry, err
		}
		if err := sleep(ctx, w.policy.delay(attempt)); err != nil {
			lastErr = errors.Join(lastErr, err)
			break
		}
	}

	return entry, w.fail(ctx, entry, req, lastErr)
}

func (w *Worker) succeed(ctx context.Context, entry *Log, receipt Receipt) error {
	if receipt.Confirmed {
		entry.markDelivered(w.clock())
	} else {
		entry.markSent()
	}
	if err := w.logs.Update(ctx, entry); err != nil {
		return err
	}

	if entry.Status == StatusDelivered {
		w.metrics.Inc(metrics.DeliveriesDelivered)
	} else {
		w.metrics.Inc(metrics.DeliveriesSent)
	}
	log.Printf("delivery succeeded delivery_id=%d notification_id=%d status=%s attempts=%d message_id=%s",
		entry.ID, entry.NotificationID, entry.Status, entry.AttemptCount, receipt.MessageID)
	return nil
}

func (w *Worker) fail(ctx context.Context, entry *Log, req Request, cause error) error {
	entry.markFailed(cause.Error())
	// The context may already be cancelled; the terminal state must still be written.
	writeCtx := context.WithoutCancel(ctx)
	if err := w.logs.Update(writeCtx, entry); err != nil {
		return err
	}
	w.metrics.Inc(metrics.DeliveriesFailed)

	if w.deadLetter != nil {
		dlqCtx, cancel := context.WithTimeout(writeCtx, deadLetterTimeout)
		err := queue.PublishJSON(dlqCtx, w.deadLetter, EmailDeadLetterTopic, req)
		cancel()
		if err != nil {
			log.Printf("dead-letter publish failed delivery_id=%d err=%v", entry.ID, err)
		} else {
			w.metrics.Inc(metrics.DeliveriesDeadLettered)
		}
	}

	log.Printf("delivery failed delivery_id=%d notification_id=%d attempts=%d err=%s",
		entry.ID, entry.NotificationID, entry.AttemptCount, *entry.ErrorMessage)
	return nil
}

// DrainDeadLetters logs and acknowledges dead-lettered requests until ctx is cancelled.
// Used with transports that do not retain messages for later inspection.
func DrainDeadLetters(ctx context.Context, source queue.Consumer) error {
	return source.Consume(ctx, EmailDeadLetterTopic, ConsumerGroup+"-dlq", 1, func(_ context.Context, msg queue.Message) error {
		log.Printf("dead letter message_id=%s payload=%s", msg.ID, msg.Payload)
		return nil
	})
}

func (w *Worker) clock() time.Time {
	return w.now().UTC().Truncate(time.Microsecond)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
