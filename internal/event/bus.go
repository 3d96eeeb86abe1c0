// Package event provides the in-process publish/subscribe bus that carries
// store change notifications and asynchronous failure reports. Delivery is
// synchronous and in subscription order, matching the engine's cooperative
// single-threaded model.
package event

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Sentinel errors for the event bus.
var (
	// ErrNilHandler is returned when a nil handler is provided.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrInvalidTopic is returned when a topic pattern is empty.
	ErrInvalidTopic = errors.New("invalid topic")

	// ErrSubscriptionNotFound is returned when unsubscribing an unknown
	// subscription.
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// Event is a published event instance.
type Event struct {
	// Topic is the hierarchical event type.
	Topic Topic

	// Payload contains the event-specific data.
	Payload any

	// Timestamp is when the event was published.
	Timestamp time.Time
}

// Handler processes a delivered event.
type Handler func(ctx context.Context, ev Event)

// Subscription identifies a registered handler.
type Subscription struct {
	id      int
	pattern Topic
}

// Pattern returns the topic pattern this subscription listens on.
func (s Subscription) Pattern() Topic {
	return s.pattern
}

// Bus delivers events to subscribers synchronously, in subscription order.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscriber
	nextID int
}

type subscriber struct {
	id      int
	pattern Topic
	fn      Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{nextID: 1}
}

// Subscribe registers a handler for a topic pattern. The pattern matches
// the topic itself and all of its descendants.
func (b *Bus) Subscribe(pattern Topic, fn Handler) (Subscription, error) {
	if fn == nil {
		return Subscription{}, ErrNilHandler
	}
	if pattern == "" {
		return Subscription{}, ErrInvalidTopic
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	sub := Subscription{id: b.nextID, pattern: pattern}
	b.nextID++
	b.subs = append(b.subs, subscriber{id: sub.id, pattern: pattern, fn: fn})
	return sub, nil
}

// Unsubscribe removes a subscription.
func (b *Bus) Unsubscribe(sub Subscription) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == sub.id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return nil
		}
	}
	return ErrSubscriptionNotFound
}

// Publish delivers an event to every matching subscriber before returning.
func (b *Bus) Publish(ctx context.Context, topic Topic, payload any) {
	b.mu.RLock()
	matched := make([]Handler, 0, len(b.subs))
	for _, s := range b.subs {
		if topic.Matches(s.pattern) {
			matched = append(matched, s.fn)
		}
	}
	b.mu.RUnlock()

	ev := Event{Topic: topic, Payload: payload, Timestamp: time.Now()}
	for _, fn := range matched {
		fn(ctx, ev)
	}
}
