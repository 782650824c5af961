package queue

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"
)

// ErrBrokerClosed is returned by Publish after Close
var ErrBrokerClosed = errors.New("broker closed")

// DefaultMaxDeliveries bounds how often MemoryBroker redelivers a nacked message
const DefaultMaxDeliveries = 5

// MemoryBroker is an in-process Broker backed by one buffered channel per topic.
// Consumers of the same topic compete for messages regardless of group.
type MemoryBroker struct {
	mu            sync.Mutex
	topics        map[string]chan Message
	buffer        int
	maxDeliveries int
	closed        bool
}

// NewMemoryBroker creates a broker whose topics buffer up to buffer messages
func NewMemoryBroker(buffer int) *MemoryBroker {
	if buffer < 1 {
		buffer = 1
	}
	return &MemoryBroker{
		topics:        make(map[string]chan Message),
		buffer:        buffer,
		maxDeliveries: DefaultMaxDeliveries,
	}
}

// WithMaxDeliveries sets how many times a message is handed out before it is dropped
func (b *MemoryBroker) WithMaxDeliveries(n int) *MemoryBroker {
	if n > 0 {
		b.maxDeliveries = n
	}
	return b
}

func (b *MemoryBroker) topic(name string) (chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBrokerClosed
	}
	ch, ok := b.topics[name]
	if !ok {
		ch = make(chan Message, b.buffer)
		b.topics[name] = ch
	}
	return ch, nil
}

// Publish enqueues payload, blocking while the topic buffer is full
func (b *MemoryBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	ch, err := b.topic(topic)
	if err != nil {
		return err
	}

	msg := Message{
		ID:      uuid.NewString(),
		Topic:   topic,
		Payload: append([]byte(nil), payload...),
		Attempt: 1,
	}

	select {
	case ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume runs concurrency workers on topic until ctx is cancelled
func (b *MemoryBroker) Consume(ctx context.Context, topic, group string, concurrency int, h Handler) error {
	ch, err := b.topic(topic)
	if err != nil {
		return err
	}
	if concurrency < 1 {
		concurrency = 1
	}

	var wg sync.WaitGroup
	for n := 0; n < concurrency; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case msg := <-ch:
					b.handle(ctx, ch, msg, h)
				}
			}
		}()
	}
	wg.Wait()

	return nil
}

func (b *MemoryBroker) handle(ctx context.Context, ch chan Message, msg Message, h Handler) {
	err := h(ctx, msg)
	if err == nil {
		return
	}
	if IsDrop(err) {
		log.Printf("queue message dropped topic=%s id=%s err=%v", msg.Topic, msg.ID, err)
		return
	}
	if msg.Attempt >= b.maxDeliveries {
		log.Printf("queue message exhausted topic=%s id=%s attempts=%d err=%v", msg.Topic, msg.ID, msg.Attempt, err)
		return
	}

	msg.Attempt++
	// Requeue off the worker goroutine so a full buffer cannot stall the pool.
	go func() {
		select {
		case ch <- msg:
		case <-ctx.Done():
		}
	}()
}

// Close rejects further publishing. Messages already buffered are abandoned.
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
