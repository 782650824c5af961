// Package queue is the at-least-once message transport between the pipeline stages.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Message is a single delivery of a published payload
type Message struct {
	ID      string
	Topic   string
	Payload []byte
	// Attempt is 1 on first delivery and grows on every redelivery.
	Attempt int
}

// Handler processes one message. Returning nil acknowledges it; any other error leaves it
// for redelivery unless it was wrapped with Drop.
type Handler func(ctx context.Context, msg Message) error

// Publisher appends payloads to a topic
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Consumer delivers the messages of a topic to a handler.
// Consume blocks until ctx is cancelled.
type Consumer interface {
	Consume(ctx context.Context, topic, group string, concurrency int, h Handler) error
}

// Broker is a transport that can both publish and consume
type Broker interface {
	Publisher
	Consumer
	Close() error
}

// PublishJSON encodes v and publishes it to topic
func PublishJSON(ctx context.Context, p Publisher, topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode message for %s: %w", topic, err)
	}
	return p.Publish(ctx, topic, payload)
}

type dropError struct {
	err error
}

func (e *dropError) Error() string { return e.err.Error() }
func (e *dropError) Unwrap() error { return e.err }

// Drop marks err as permanent: the message is acknowledged and never redelivered
func Drop(err error) error {
	if err == nil {
		return nil
	}
	return &dropError{err: err}
}

// IsDrop reports whether err was marked with Drop
func IsDrop(err error) bool {
	var d *dropError
	return errors.As(err, &d)
}
