package bus

import (
	"context"
	"log/slog"
	"sync"

	"village-chat/internal/domain"
	"village-chat/internal/observability"
)

// MemoryBus is the in-process Bus implementation. The subscriber registry
// is a mutex-guarded map; Subscribe, Publish and Unsubscribe all serialize
// on it, so a publish always sees a consistent snapshot of registrations
// and a fully unsubscribed handle is never notified again.
type MemoryBus struct {
	mu     sync.Mutex
	subs   map[string]map[*Subscription]struct{}
	closed bool
}

// NewMemoryBus creates a new in-process delivery bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		subs: make(map[string]map[*Subscription]struct{}),
	}
}

// Subscribe registers interest in a channel key. It returns immediately;
// it does not wait for a first message.
func (b *MemoryBus) Subscribe(key string) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBusClosed
	}

	sub := &Subscription{
		key: key,
		ch:  make(chan *domain.Message, subscriptionBuffer),
	}

	if b.subs[key] == nil {
		b.subs[key] = make(map[*Subscription]struct{})
	}
	b.subs[key][sub] = struct{}{}

	observability.BusSubscriptionsActive.Inc()
	return sub, nil
}

// Publish delivers msg to every subscription registered on key. With no
// subscribers the message is dropped from the bus; it is already safely
// persisted in the store, only live delivery is missed.
func (b *MemoryBus) Publish(ctx context.Context, key string, msg *domain.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}

	for sub := range b.subs[key] {
		select {
		case sub.ch <- msg:
			observability.BusMessagesDelivered.Inc()
		default:
			// Subscriber is not draining; drop rather than block the publisher.
			observability.BusMessagesDropped.Inc()
			slog.Warn("dropped message for slow subscriber",
				slog.String("channel", key),
				slog.String("message_id", msg.ID))
		}
	}

	observability.BusMessagesPublished.WithLabelValues("memory").Inc()
	return nil
}

// Unsubscribe removes the registration and closes the subscription
// channel. Safe to call multiple times or after the bus is closed.
func (b *MemoryBus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.subs[sub.key]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}

	delete(set, sub)
	if len(set) == 0 {
		delete(b.subs, sub.key)
	}
	close(sub.ch)

	observability.BusSubscriptionsActive.Dec()
}

// Close tears down every live subscription. Subsequent Subscribe and
// Publish calls fail with ErrBusClosed.
func (b *MemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for key, set := range b.subs {
		for sub := range set {
			close(sub.ch)
			observability.BusSubscriptionsActive.Dec()
		}
		delete(b.subs, key)
	}

	slog.Info("delivery bus closed")
}

// Ping reports whether the bus can accept publishes.
func (b *MemoryBus) Ping(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}
	return nil
}
