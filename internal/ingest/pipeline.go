package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/gatherle/notification-service/internal/metrics"
	"github.com/gatherle/notification-service/internal/notification"
)

// Store persists notifications idempotently
type Store interface {
	Create(ctx context.Context, n *notification.Notification) (*notification.Notification, bool, error)
}

// Fanout forwards a stored notification to secondary channels
type Fanout interface {
	Dispatch(ctx context.Context, n *notification.Notification) (bool, error)
}

// Result is the outcome of processing one event
type Result struct {
	Notification *notification.Notification
	Duplicate    bool
	Dispatched   bool
}

// Pipeline turns validated events into stored notifications and fans them out
type Pipeline struct {
	store   Store
	fanout  Fanout
	metrics metrics.Recorder
	now     func() time.Time
}

// NewPipeline creates a new ingestion pipeline
func NewPipeline(store Store, fanout Fanout, recorder metrics.Recorder) *Pipeline {
	return &Pipeline{store: store, fanout: fanout, metrics: recorder, now: time.Now}
}

// Process stores the notification for req under idempotencyKey and dispatches it when eligible.
// A key seen before returns the stored notification without dispatching again.
// Fan-out failures are logged and never undo the stored notification.
func (p *Pipeline) Process(ctx context.Context, req *notification.CreateNotificationRequest, idempotencyKey string) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}

	n := &notification.Notification{
		Type:           req.Type,
		ActorID:        req.ActorID,
		RecipientID:    req.RecipientID,
		ReferenceID:    req.ReferenceID,
		ReferenceType:  req.ReferenceType,
		Message:        req.Message,
		Channel:        notification.ChannelInApp,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      p.now().UTC().Truncate(time.Microsecond),
	}

	saved, created, err := p.store.Create(ctx, n)
	if err != nil {
		return nil, err
	}
	if !created {
		p.metrics.Inc(metrics.NotificationsDuplicate)
		log.Printf("notification duplicate id=%d type=%s recipient_id=%s", saved.ID, saved.Type, saved.RecipientID)
		return &Result{Notification: saved, Duplicate: true}, nil
	}

	p.metrics.Inc(metrics.NotificationsCreated)
	log.Printf("notification created id=%d type=%s recipient_id=%s", saved.ID, saved.Type, saved.RecipientID)

	dispatched, err := p.fanout.Dispatch(ctx, saved)
	if err != nil {
		log.Printf("notification fan-out failed id=%d err=%v", saved.ID, err)
	}

	return &Result{Notification: saved, Dispatched: dispatched}, nil
}

// CreateNotification is the direct creation path. An empty key gets a random one.
func (p *Pipeline) CreateNotification(ctx context.Context, req *notification.CreateNotificationRequest, idempotencyKey string) (*notification.Notification, error) {
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	result, err := p.Process(ctx, req, idempotencyKey)
	if err != nil {
		return nil, err
	}
	return result.Notification, nil
}
