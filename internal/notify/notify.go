// Package notify is the stateless fan-out of engine state changes to
// external observers (dashboard UI, webhooks, the terminal monitor).
// Delivery is at-most-once: a subscriber that is not registered when an
// event fires simply misses it. Durability lives in the queue, not here.
package notify

import (
	"sync"
	"time"
)

// Kind names a bridge event.
type Kind string

const (
	KindQueued               Kind = "queued"
	KindSynced               Kind = "synced"
	KindSyncFailedPermanent  Kind = "sync_failed_permanent"
	KindConnectivityRestored Kind = "connectivity_restored"
	KindRecoveryExhausted    Kind = "recovery_exhausted"
)

// Event is a named state change with a payload count.
type Event struct {
	Kind  Kind      `json:"kind"`
	Count int       `json:"count"`
	At    time.Time `json:"at"`
}

// Subscriber receives bridge events.
type Subscriber interface {
	Notify(Event)
}

// SubscriberFunc adapts a plain function to the Subscriber interface.
type SubscriberFunc func(Event)

// Notify calls f(ev).
func (f SubscriberFunc) Notify(ev Event) { f(ev) }

// Bridge fans events out to the current subscriber set. No retained state.
type Bridge struct {
	mu   sync.Mutex
	next int
	subs map[int]Subscriber
}

// NewBridge creates an empty bridge.
func NewBridge() *Bridge {
	return &Bridge{subs: make(map[int]Subscriber)}
}

// Subscribe registers s and returns an unsubscribe function.
func (b *Bridge) Subscribe(s Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.subs[id] = s
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Emit delivers an event to every current subscriber, synchronously.
func (b *Bridge) Emit(kind Kind, count int) {
	ev := Event{Kind: kind, Count: count, At: time.Now().UTC()}
	b.mu.Lock()
	subs := make([]Subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()
	for _, s := range subs {
		s.Notify(ev)
	}
}
