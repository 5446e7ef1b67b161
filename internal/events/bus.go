package events

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handler receives progress events.
type Handler func(Envelope)

// FailureHandler receives failures.
type FailureHandler func(Failure)

type subscription struct {
	handler Handler
	kinds   []Kind
}

// Bus delivers events to subscribers synchronously, in publish order per
// publisher. Publishing with no subscribers drops the event.
//
// Thread Safety: Bus is safe for concurrent use.
type Bus struct {
	mu        sync.RWMutex
	sessionID string
	subs      map[string]subscription
	failures  map[string]FailureHandler
}

// NewBus creates a bus stamping every event with a fresh session ID.
func NewBus() *Bus {
	return &Bus{
		sessionID: uuid.NewString(),
		subs:      make(map[string]subscription),
		failures:  make(map[string]FailureHandler),
	}
}

// Discard returns a bus with no subscribers. Use it to state explicitly that
// nobody listens.
func Discard() *Bus {
	return NewBus()
}

// SessionID returns the ID stamped on events from this bus.
func (b *Bus) SessionID() string {
	return b.sessionID
}

// Subscribe registers handler for the given kinds (all kinds when none given)
// and returns a subscription ID.
func (b *Bus) Subscribe(handler Handler, kinds ...Kind) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	b.subs[id] = subscription{handler: handler, kinds: kinds}
	return id
}

// OnFailure registers handler on the failure channel.
func (b *Bus) OnFailure(handler FailureHandler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	b.failures[id] = handler
	return id
}

// Unsubscribe removes a progress or failure subscription.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[id]; ok {
		delete(b.subs, id)
		return true
	}
	if _, ok := b.failures[id]; ok {
		delete(b.failures, id)
		return true
	}
	return false
}

// Publish delivers ev to every matching subscriber.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, sub := range b.subs {
		if len(sub.kinds) == 0 || slices.Contains(sub.kinds, ev.Kind()) {
			handlers = append(handlers, sub.handler)
		}
	}
	b.mu.RUnlock()

	env := Envelope{
		ID:        uuid.NewString(),
		SessionID: b.sessionID,
		Timestamp: time.Now(),
		Event:     ev,
	}
	for _, h := range handlers {
		safeInvoke(string(ev.Kind()), func() { h(env) })
	}
}

// Fail delivers err on the failure channel.
func (b *Bus) Fail(err error) {
	if err == nil {
		return
	}

	b.mu.RLock()
	handlers := make([]FailureHandler, 0, len(b.failures))
	for _, h := range b.failures {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	if len(handlers) == 0 {
		slog.Debug("failure dropped, no listener", "error", err)
		return
	}

	f := Failure{
		ID:        uuid.NewString(),
		SessionID: b.sessionID,
		Timestamp: time.Now(),
		Err:       err,
	}
	for _, h := range handlers {
		safeInvoke("failure", func() { h(f) })
	}
}

// safeInvoke keeps one misbehaving handler from taking down a queue worker.
func safeInvoke(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event handler panicked", "kind", kind, "panic", r)
		}
	}()
	fn()
}
