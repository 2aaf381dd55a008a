// Package eventbus implements the process-local multi-producer,
// multi-subscriber broadcast channel described in spec.md §4.2: a
// bounded ring buffer (default capacity 1024) with independent
// subscriber cursors and an oldest-drop policy. The publisher never
// blocks on a slow subscriber; a subscriber that falls behind the
// buffer's capacity loses the oldest undelivered events and is told
// how many it missed via a "lagged(n)" signal on its next receive.
//
// This supersedes an earlier push-model observer Manager (one goroutine per
// observer per event, fire-and-forget): that shape cannot express
// independent per-subscriber cursors or bounded memory. The
// non-blocking-publisher philosophy is carried over; the mechanism is
// now a pull-based ring buffer, grounded in spirit on the
// subscription/stats model of a multi-subscriber event bus (see
// DESIGN.md).
package eventbus

import (
	"context"
	"sync"

	"github.com/flowcore/engine/pkg/types"
)

// DefaultCapacity is the ring buffer size spec.md §4.2 specifies.
const DefaultCapacity = 1024

// Stats summarizes a Bus's lifetime activity.
type Stats struct {
	Published         uint64
	ActiveSubscribers int
	TotalLagged       uint64 // cumulative events dropped across all subscribers
}

// Bus is a bounded ring-buffer broadcast channel.
type Bus struct {
	mu       sync.Mutex
	cond     *sync.Cond
	capacity int
	buffer   []types.Event
	nextSeq  uint64 // sequence number that will be assigned to the next published event
	closed   bool

	totalLagged uint64
	subscribers int
}

// New creates a Bus with the given ring capacity. A capacity <= 0 uses
// DefaultCapacity.
func New(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	b := &Bus{capacity: capacity, buffer: make([]types.Event, capacity)}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Publish broadcasts an event to all current and future subscribers.
// It acquires only a short-lived mutex to append to the ring and wake
// waiters — it never waits on a subscriber's consumption rate.
func (b *Bus) Publish(e types.Event) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.buffer[b.nextSeq%uint64(b.capacity)] = e
	b.nextSeq++
	b.mu.Unlock()
	b.cond.Broadcast()
}

// Close marks the bus closed; blocked subscribers receive
// context.Canceled-equivalent wakeups and all subsequent Receive calls
// return ErrClosed immediately once drained.
func (b *Bus) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.cond.Broadcast()
}

// Stats returns a snapshot of the bus's activity.
func (b *Bus) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		Published:         b.nextSeq,
		ActiveSubscribers: b.subscribers,
		TotalLagged:       b.totalLagged,
	}
}

// Subscription is an independent cursor into a Bus. Subscriptions
// obtained at different times receive different slices of history:
// spec.md §4.2 "Subscribers may be added at any time and only receive
// events published after subscription."
type Subscription struct {
	bus    *Bus
	cursor uint64
}

// Subscribe returns a new Subscription positioned after every event
// already published.
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	cursor := b.nextSeq
	b.subscribers++
	b.mu.Unlock()
	return &Subscription{bus: b, cursor: cursor}
}

// Close releases the subscription's slot in the bus's active-subscriber
// count. It does not affect other subscribers or the bus itself.
func (s *Subscription) Close() {
	s.bus.mu.Lock()
	if s.bus.subscribers > 0 {
		s.bus.subscribers--
	}
	s.bus.mu.Unlock()
}

// ErrClosed is returned by Receive once the bus is closed and the
// subscription has drained every event published before closure.
var ErrClosed = errClosed{}

type errClosed struct{}

func (errClosed) Error() string { return "eventbus: closed" }

// Receive blocks until the next event is available, the bus is closed,
// or ctx is cancelled. lagged reports how many events were dropped
// (oldest-drop policy) between the previous Receive and this one; it is
// non-zero only when the subscriber fell behind the ring's capacity.
func (s *Subscription) Receive(ctx context.Context) (event types.Event, lagged int, err error) {
	b := s.bus

	// Wake this specific Wait() if ctx is cancelled; sync.Cond has no
	// native context support, so a watcher goroutine bridges the two.
	if ctx.Done() != nil {
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			select {
			case <-ctx.Done():
				b.cond.Broadcast()
			case <-stop:
			}
		}()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for {
		if err := ctx.Err(); err != nil {
			return types.Event{}, 0, err
		}
		oldestAvailable := uint64(0)
		if b.nextSeq > uint64(b.capacity) {
			oldestAvailable = b.nextSeq - uint64(b.capacity)
		}
		if s.cursor < oldestAvailable {
			lagged = int(oldestAvailable - s.cursor)
			b.totalLagged += uint64(lagged)
			s.cursor = oldestAvailable
		}
		if s.cursor < b.nextSeq {
			event = b.buffer[s.cursor%uint64(b.capacity)]
			s.cursor++
			return event, lagged, nil
		}
		if b.closed {
			return types.Event{}, 0, ErrClosed
		}
		b.cond.Wait()
	}
}
