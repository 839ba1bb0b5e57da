package events

import (
	"golang.org/x/time/rate"
)

// Channels groups one bounded channel per event class plus a shared
// priority queue, matching §4.6's two ingress modes (per-class bounded
// channels, or a global priority queue). The engine picks one mode at
// startup.
type Channels struct {
	orderCh  chan Event
	tradeCh  chan Event
	systemCh chan Event

	priority *PriorityQueue

	// limiter throttles the per-class send path so a single noisy
	// producer cannot starve a bounded channel's capacity out from under
	// other producers; it sits ahead of the non-blocking channel send
	// described in §4.6's backpressure paragraph.
	limiter *rate.Limiter
}

// NewChannels constructs bounded per-class channels of the given capacity
// and a burst-capacity token bucket throttling ingress at up to
// ratePerSecond sends/sec (0 disables throttling).
func NewChannels(capacity int, ratePerSecond float64) *Channels {
	c := &Channels{
		orderCh:  make(chan Event, capacity),
		tradeCh:  make(chan Event, capacity),
		systemCh: make(chan Event, capacity),
		priority: NewPriorityQueue(),
	}
	if ratePerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(ratePerSecond), capacity)
	}
	return c
}

// ErrChannelFull is returned by SendClass when the target class channel
// has no free capacity; per §4.6 the send fails immediately, it never
// blocks.
var ErrChannelFull = &channelFullError{}

type channelFullError struct{}

func (*channelFullError) Error() string { return "events: class channel is full" }

func (c *Channels) classChannel(class EventClass) chan Event {
	switch class {
	case ClassOrder:
		return c.orderCh
	case ClassTrade:
		return c.tradeCh
	default:
		return c.systemCh
	}
}

// SendClass routes e to its class's bounded channel, failing immediately
// (never blocking) if the channel is full or the throttle denies the send.
func (c *Channels) SendClass(e Event) error {
	if c.limiter != nil && !c.limiter.Allow() {
		return ErrChannelFull
	}
	ch := c.classChannel(e.Class())
	select {
	case ch <- e:
		return nil
	default:
		return ErrChannelFull
	}
}

// SendPriority enqueues e onto the shared unbounded priority queue.
func (c *Channels) SendPriority(e Event) {
	c.priority.Push(e)
}

// ReceiveClass returns the receive-only view of one class's channel, for a
// worker's select loop in per-class mode.
func (c *Channels) ReceiveClass(class EventClass) <-chan Event {
	return c.classChannel(class)
}

func (c *Channels) Priority() *PriorityQueue { return c.priority }
