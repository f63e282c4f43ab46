package events

import (
	"sync"

	"github.com/carewell-health/clinic-portal/pkg/logging"
)

// Event type names carried on the bus.
const (
	TypeSessionStarted   = "session.started.v1"
	TypeSessionDiscarded = "session.discarded.v1"
	TypePhaseAdvanced    = "session.phase_advanced.v1"
	TypeSessionFinished  = "session.finished.v1"
)

// Envelope wraps a typed payload with its event type name.
type Envelope struct {
	Type    string
	Payload any
}

// Publisher emits lifecycle events to interested subscribers.
type Publisher interface {
	Publish(evt Envelope)
}

// Bus is a synchronous in-process publisher. Delivery happens inline on the
// publishing goroutine; subscribers must not block. The lifecycle engine has
// no cross-process delivery requirement, so there is no outbox or broker
// behind this.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Envelope)
	logger *logging.Logger
}

// NewBus creates an event bus.
func NewBus(logger *logging.Logger) *Bus {
	if logger == nil {
		logger = logging.Default()
	}
	return &Bus{
		subs:   make(map[int]func(Envelope)),
		logger: logger,
	}
}

// Subscribe registers a handler for every published event and returns an
// unsubscribe function.
func (b *Bus) Subscribe(fn func(Envelope)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers the event to all current subscribers. A panicking
// subscriber is logged and skipped so one bad listener cannot take down a
// phase transition.
func (b *Bus) Publish(evt Envelope) {
	b.mu.RLock()
	handlers := make([]func(Envelope), 0, len(b.subs))
	for _, fn := range b.subs {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		b.deliver(fn, evt)
	}
}

func (b *Bus) deliver(fn func(Envelope), evt Envelope) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event subscriber panicked", "type", evt.Type, "panic", r)
		}
	}()
	fn(evt)
}
