package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const payloadField = "payload"

// NewRedisClient connects to redisURL with hardened timeouts and fails fast when unreachable
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second
	opts.MaxRetries = 3
	opts.MinRetryBackoff = 100 * time.Millisecond
	opts.MaxRetryBackoff = 1 * time.Second

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// RedisOptions tunes the Redis Streams transport
type RedisOptions struct {
	// Consumer prefixes the consumer names registered in each group.
	Consumer string
	// Block is how long XREADGROUP waits for new entries. Zero means two seconds; negative disables blocking.
	Block time.Duration
	// PollInterval is the pause after an empty read when Block is negative.
	PollInterval time.Duration
	// ClaimIdle is how long a pending entry must sit unacknowledged before another consumer reclaims it.
	ClaimIdle time.Duration
	// MaxDeliveries bounds reclaims of a single entry before it is acknowledged and dropped.
	MaxDeliveries int64
	// MaxLen approximately caps each stream.
	MaxLen int64
}

// DefaultRedisOptions returns the options used by the service
func DefaultRedisOptions() RedisOptions {
	host, _ := os.Hostname()
	if host == "" {
		host = "notification-service"
	}
	return RedisOptions{
		Consumer:      host,
		Block:         2 * time.Second,
		PollInterval:  100 * time.Millisecond,
		ClaimIdle:     30 * time.Second,
		MaxDeliveries: DefaultMaxDeliveries,
		MaxLen:        100_000,
	}
}

// RedisBroker is a Broker on Redis Streams consumer groups
type RedisBroker struct {
	client *redis.Client
	opts   RedisOptions
}

// NewRedisBroker wraps an already connected client
func NewRedisBroker(client *redis.Client, opts RedisOptions) *RedisBroker {
	if opts.Consumer == "" {
		opts.Consumer = "notification-service"
	}
	if opts.Block == 0 {
		opts.Block = 2 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 100 * time.Millisecond
	}
	if opts.MaxDeliveries <= 0 {
		opts.MaxDeliveries = DefaultMaxDeliveries
	}
	return &RedisBroker{client: client, opts: opts}
}

// Publish appends payload to the topic stream
func (b *RedisBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	args := &redis.XAddArgs{
		Stream: topic,
		Values: map[string]any{payloadField: payload},
	}
	if b.opts.MaxLen > 0 {
		args.MaxLen = b.opts.MaxLen
		args.Approx = true
	}
	if err := b.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", topic, err)
	}
	return nil
}

// Consume reads topic as a member of group with concurrency consumers until ctx is cancelled
func (b *RedisBroker) Consume(ctx context.Context, topic, group string, concurrency int, h Handler) error {
	if err := b.ensureGroup(ctx, topic, group); err != nil {
		return err
	}
	if concurrency < 1 {
		concurrency = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		consumer := fmt.Sprintf("%s-%d", b.opts.Consumer, i)
		go func() {
			defer wg.Done()
			b.consumeLoop(ctx, topic, group, consumer, h)
		}()
	}
	wg.Wait()

	return nil
}

func (b *RedisBroker) ensureGroup(ctx context.Context, topic, group string) error {
	err := b.client.XGroupCreateMkStream(ctx, topic, group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create group %s on %s: %w", group, topic, err)
	}
	return nil
}

func (b *RedisBroker) consumeLoop(ctx context.Context, topic, group, consumer string, h Handler) {
	lastClaim := time.Now()

	for ctx.Err() == nil {
		if b.opts.ClaimIdle > 0 && time.Since(lastClaim) >= b.opts.ClaimIdle {
			b.reclaim(ctx, topic, group, consumer, h)
			lastClaim = time.Now()
		}

		streams, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: consumer,
			Streams:  []string{topic, ">"},
			Count:    1,
			Block:    b.opts.Block,
		}).Result()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !errors.Is(err, redis.Nil) {
				log.Printf("queue read failed topic=%s consumer=%s err=%v", topic, consumer, err)
			}
			b.pause(ctx)
			continue
		}

		for _, stream := range streams {
			for _, entry := range stream.Messages {
				b.process(ctx, topic, group, entry, 1, h)
			}
		}
	}
}

// reclaim takes over entries another consumer left pending for longer than ClaimIdle
func (b *RedisBroker) reclaim(ctx context.Context, topic, group, consumer string, h Handler) {
	entries, _, err := b.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   topic,
		Group:    group,
		Consumer: consumer,
		MinIdle:  b.opts.ClaimIdle,
		Start:    "0-0",
		Count:    10,
	}).Result()
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("queue reclaim failed topic=%s err=%v", topic, err)
		}
		return
	}

	for _, entry := range entries {
		attempt := b.deliveryCount(ctx, topic, group, entry.ID)
		if attempt > b.opts.MaxDeliveries {
			log.Printf("queue message exhausted topic=%s id=%s attempts=%d", topic, entry.ID, attempt)
			b.ack(ctx, topic, group, entry.ID)
			continue
		}
		b.process(ctx, topic, group, entry, int(attempt), h)
	}
}

func (b *RedisBroker) deliveryCount(ctx context.Context, topic, group, id string) int64 {
	pending, err := b.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: topic,
		Group:  group,
		Start:  id,
		End:    id,
		Count:  1,
	}).Result()
	if err != nil || len(pending) == 0 {
		return 2
	}
	return pending[0].RetryCount
}

func (b *RedisBroker) process(ctx context.Context, topic, group string, entry redis.XMessage, attempt int, h Handler) {
	msg := Message{
		ID:      entry.ID,
		Topic:   topic,
		Payload: payloadOf(entry),
		Attempt: attempt,
	}

	err := h(ctx, msg)
	switch {
	case err == nil:
		b.ack(ctx, topic, group, entry.ID)
	case IsDrop(err):
		log.Printf("queue message dropped topic=%s id=%s err=%v", topic, entry.ID, err)
		b.ack(ctx, topic, group, entry.ID)
	default:
		// Left pending; reclaimed after ClaimIdle.
		log.Printf("queue message nacked topic=%s id=%s attempt=%d err=%v", topic, entry.ID, attempt, err)
	}
}

func (b *RedisBroker) ack(ctx context.Context, topic, group, id string) {
	if err := b.client.XAck(ctx, topic, group, id).Err(); err != nil {
		log.Printf("queue ack failed topic=%s id=%s err=%v", topic, id, err)
	}
}

func (b *RedisBroker) pause(ctx context.Context) {
	t := time.NewTimer(b.opts.PollInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func payloadOf(entry redis.XMessage) []byte {
	switch v := entry.Values[payloadField].(type) {
	case string:
		return []byte(v)
	case []byte:
		return v
	default:
		return nil
	}
}

// Close closes the underlying client
func (b *RedisBroker) Close() error {
	return b.client.Close()
}
