package metrics

import (
	"sync"
	"sync/atomic"
)

// Counter names emitted by the pipeline
const (
	EventsConsumed          = "events.consumed"
	EventsFailed            = "events.failed"
	NotificationsCreated    = "notifications.created"
	NotificationsDuplicate  = "notifications.duplicate"
	DeliveriesDispatched    = "deliveries.dispatched"
	DeliveriesPublishFailed = "deliveries.publish_failed"
	DeliveriesDelivered     = "deliveries.delivered"
	DeliveriesSent          = "deliveries.sent"
	DeliveriesFailed        = "deliveries.failed"
	DeliveriesDiscarded     = "deliveries.discarded"
	DeliveriesDeadLettered  = "deliveries.dead_lettered"
)

// Recorder counts named events
type Recorder interface {
	Inc(name string)
}

// Counters is an in-process Recorder safe for concurrent use
type Counters struct {
	values sync.Map // name -> *atomic.Int64
}

// NewCounters creates an empty counter set
func NewCounters() *Counters {
	return &Counters{}
}

// Inc increments the named counter
func (c *Counters) Inc(name string) {
	v, _ := c.values.LoadOrStore(name, new(atomic.Int64))
	v.(*atomic.Int64).Add(1)
}

// Get returns the current value of the named counter
func (c *Counters) Get(name string) int64 {
	v, ok := c.values.Load(name)
	if !ok {
		return 0
	}
	return v.(*atomic.Int64).Load()
}

// Snapshot returns a copy of all counters
func (c *Counters) Snapshot() map[string]int64 {
	out := make(map[string]int64)
	c.values.Range(func(key, value any) bool {
		out[key.(string)] = value.(*atomic.Int64).Load()
		return true
	})
	return out
}

// Nop discards everything
type Nop struct{}

func (Nop) Inc(string) {}
