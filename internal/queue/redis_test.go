package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisBroker(t *testing.T) (*RedisBroker, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := NewRedisClient(t.Context(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	broker := NewRedisBroker(client, RedisOptions{
		Consumer:     "test",
		Block:        -1,
		PollInterval: 10 * time.Millisecond,
	})
	return broker, client
}

func TestRedisBrokerPublishAndAck(t *testing.T) {
	t.Parallel()

	broker, client := newTestRedisBroker(t)
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	for _, p := range []string{"one", "two", "three"} {
		if err := broker.Publish(ctx, "stream", []byte(p)); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := broker.Consume(ctx, "stream", "group", 2, func(_ context.Context, msg Message) error {
			mu.Lock()
			got = append(got, string(msg.Payload))
			mu.Unlock()
			return nil
		}); err != nil {
			t.Errorf("consume: %v", err)
		}
	}()

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	})

	waitFor(t, func() bool {
		pending, err := client.XPending(ctx, "stream", "group").Result()
		return err == nil && pending.Count == 0
	})

	cancel()
	<-done
}

func TestRedisBrokerLeavesNackedMessagesPending(t *testing.T) {
	t.Parallel()

	broker, client := newTestRedisBroker(t)
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	if err := broker.Publish(ctx, "stream", []byte("fail")); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := broker.Publish(ctx, "stream", []byte("drop")); err != nil {
		t.Fatalf("publish: %v", err)
	}

	var mu sync.Mutex
	handled := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		broker.Consume(ctx, "stream", "group", 1, func(_ context.Context, msg Message) error {
			mu.Lock()
			handled++
			mu.Unlock()
			if string(msg.Payload) == "drop" {
				return Drop(errors.New("malformed"))
			}
			return errors.New("transient")
		})
	}()

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return handled == 2
	})

	waitFor(t, func() bool {
		pending, err := client.XPending(ctx, "stream", "group").Result()
		return err == nil && pending.Count == 1
	})

	cancel()
	<-done
}
