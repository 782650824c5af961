package ingest

import (
	"context"
	"errors"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/gatherle/notification-service/internal/metrics"
	"github.com/gatherle/notification-service/internal/queue"
)

// ConsumerGroup is the consumer group of the ingestion workers
const ConsumerGroup = "notification-service"

// Consumer feeds the inbound topics into the pipeline
type Consumer struct {
	pipeline    *Pipeline
	source      queue.Consumer
	concurrency int
	metrics     metrics.Recorder
}

// NewConsumer creates a consumer running concurrency workers per topic
func NewConsumer(pipeline *Pipeline, source queue.Consumer, concurrency int, recorder metrics.Recorder) *Consumer {
	return &Consumer{pipeline: pipeline, source: source, concurrency: concurrency, metrics: recorder}
}

// Run consumes every inbound topic until ctx is cancelled
func (c *Consumer) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, topic := range Topics {
		g.Go(func() error {
			log.Printf("ingest consumer started topic=%s concurrency=%d", topic, c.concurrency)
			defer log.Printf("ingest consumer stopped topic=%s", topic)
			return c.source.Consume(ctx, string(topic), ConsumerGroup, c.concurrency, c.Handle)
		})
	}
	return g.Wait()
}

// Handle processes one inbound message. Malformed events are dropped; store failures are
// returned so the transport redelivers the message.
func (c *Consumer) Handle(ctx context.Context, msg queue.Message) error {
	req, err := ParseEvent(msg.Payload)
	if err != nil {
		c.metrics.Inc(metrics.EventsFailed)
		log.Printf("event rejected topic=%s message_id=%s err=%v", msg.Topic, msg.ID, err)
		return queue.Drop(err)
	}

	result, err := c.pipeline.Process(ctx, req, IdempotencyKey(req, msg.ID))
	if err != nil {
		c.metrics.Inc(metrics.EventsFailed)
		if errors.Is(err, ErrMalformedEvent) {
			return queue.Drop(err)
		}
		log.Printf("event processing failed topic=%s message_id=%s attempt=%d err=%v", msg.Topic, msg.ID, msg.Attempt, err)
		return err
	}

	c.metrics.Inc(metrics.EventsConsumed)
	log.Printf("event consumed topic=%s message_id=%s notification_id=%d duplicate=%v",
		msg.Topic, msg.ID, result.Notification.ID, result.Duplicate)
	return nil
}
