package grpc

import (
	"context"
	"sync"

	"github.com/mr1hm/go-food-rescue/internal/events"
	"github.com/mr1hm/go-food-rescue/internal/metrics"
)

const subscriberBuffer = 100

type subscriber struct {
	ch    chan *events.Event
	names map[events.Name]bool // empty means every event
}

func (s *subscriber) wants(name events.Name) bool {
	return len(s.names) == 0 || s.names[name]
}

// Broadcaster fans events out to stream subscribers. A subscriber whose
// buffer is full misses the event; the miss is counted.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[uint64]*subscriber
	nextID      uint64
	closed      bool
	metrics     *metrics.Metrics
}

func NewBroadcaster(m *metrics.Metrics) *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]*subscriber),
		metrics:     m,
	}
}

// Subscribe registers a subscriber for the given event names, or for all
// events when none are given. After Close the returned channel is already
// closed.
func (b *Broadcaster) Subscribe(names ...events.Name) (uint64, <-chan *events.Event) {
	sub := &subscriber{
		ch:    make(chan *events.Event, subscriberBuffer),
		names: make(map[events.Name]bool, len(names)),
	}
	for _, n := range names {
		sub.names[n] = true
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	if b.closed {
		close(sub.ch)
		return b.nextID, sub.ch
	}
	b.subscribers[b.nextID] = sub
	return b.nextID, sub.ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subscribers[id]; ok {
		close(sub.ch)
		delete(b.subscribers, id)
	}
}

func (b *Broadcaster) Broadcast(e *events.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		if !sub.wants(e.Name) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			b.metrics.StreamEventDropped(string(e.Name))
		}
	}
}

// Handle lets the broadcaster sit behind the event dispatcher.
func (b *Broadcaster) Handle(_ context.Context, e *events.Event) error {
	b.Broadcast(e)
	return nil
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close ends every subscription. Later subscribers get a closed channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, sub := range b.subscribers {
		close(sub.ch)
		delete(b.subscribers, id)
	}
}
