package events

import (
	"fmt"
	"sync"

	"github.com/juju/errors"
	"github.com/peer-calls/mediatrack/server/identifiers"
	"github.com/peer-calls/mediatrack/server/logger"
)

// Event is delivered to handlers.
type Event struct {
	Kind    Kind                `json:"kind"`
	TrackID identifiers.TrackID `json:"trackId"`
	// Detail is optional, for example the name of the constraint that could
	// not be satisfied for KindOverconstrained.
	Detail string `json:"detail,omitempty"`
}

// Handler handles a single event. Returned errors and panics are reported
// to the ErrorSink.
type Handler func(Event) error

// ErrorSink receives handler failures.
type ErrorSink func(event Event, err error)

// SubscriptionID identifies a subscription for Unsubscribe.
type SubscriptionID uint64

type subscription struct {
	id      SubscriptionID
	handler Handler
	// named marks the entry owned by SetNamed. There is at most one per kind.
	named bool
}

// Dispatcher delivers events of a fixed set of kinds. Every kind has one
// named handler slot and a list of subscribers, kept in a single list.
// Dispatch invokes them in registration order. Assigning the named handler
// moves it to the end of the list.
type Dispatcher struct {
	mu     sync.RWMutex
	subs   map[Kind][]subscription
	nextID SubscriptionID
	sink   ErrorSink
}

// NewDispatcher creates a Dispatcher that reports handler failures to sink.
// When sink is nil the failures are discarded.
func NewDispatcher(sink ErrorSink) *Dispatcher {
	if sink == nil {
		sink = func(Event, error) {}
	}

	return &Dispatcher{
		subs: map[Kind][]subscription{},
		sink: sink,
	}
}

// NewLoggingSink returns an ErrorSink that logs failures at error level.
func NewLoggingSink(log logger.Logger) ErrorSink {
	return func(event Event, err error) {
		log.Error("Event handler failed", err, logger.Ctx{
			"kind":     event.Kind,
			"track_id": event.TrackID,
		})
	}
}

// Subscribe adds handler to the list of subscribers for kind.
func (d *Dispatcher) Subscribe(kind Kind, handler Handler) (SubscriptionID, error) {
	if err := kind.Valid(); err != nil {
		return 0, errors.Annotate(err, "subscribe")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID

	d.subs[kind] = append(d.subs[kind], subscription{id: id, handler: handler})

	return id, nil
}

// Unsubscribe removes a subscription. Removing an unknown subscription is a
// no-op.
func (d *Dispatcher) Unsubscribe(kind Kind, id SubscriptionID) error {
	if err := kind.Valid(); err != nil {
		return errors.Annotate(err, "unsubscribe")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.subs[kind] = without(d.subs[kind], func(sub subscription) bool {
		return !sub.named && sub.id == id
	})

	return nil
}

// without returns subs with the first entry matching drop removed.
func without(subs []subscription, drop func(subscription) bool) []subscription {
	for i, sub := range subs {
		if drop(sub) {
			ret := make([]subscription, 0, len(subs)-1)
			ret = append(ret, subs[:i]...)
			ret = append(ret, subs[i+1:]...)

			return ret
		}
	}

	return subs
}

// SetNamed replaces the named handler for kind. The previous named handler
// is removed and the new one is appended after all current subscribers. A
// nil handler only clears the slot.
func (d *Dispatcher) SetNamed(kind Kind, handler Handler) error {
	if err := kind.Valid(); err != nil {
		return errors.Annotate(err, "set named handler")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	subs := without(d.subs[kind], func(sub subscription) bool {
		return sub.named
	})

	if handler != nil {
		d.nextID++
		subs = append(subs, subscription{
			id:      d.nextID,
			handler: handler,
			named:   true,
		})
	}

	d.subs[kind] = subs

	return nil
}

// Named returns the named handler for kind, or nil.
func (d *Dispatcher) Named(kind Kind) Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, sub := range d.subs[kind] {
		if sub.named {
			return sub.handler
		}
	}

	return nil
}

// Dispatch synchronously invokes all handlers registered for event.Kind. The
// handlers are snapshotted before the first one runs so handlers may
// subscribe or unsubscribe without affecting the current dispatch.
func (d *Dispatcher) Dispatch(event Event) error {
	if err := event.Kind.Valid(); err != nil {
		return errors.Annotate(err, "dispatch")
	}

	d.mu.RLock()

	subs := d.subs[event.Kind]
	handlers := make([]Handler, 0, len(subs))

	for _, sub := range subs {
		handlers = append(handlers, sub.handler)
	}

	d.mu.RUnlock()

	for _, handler := range handlers {
		if err := invoke(handler, event); err != nil {
			d.sink(event, err)
		}
	}

	return nil
}

func invoke(handler Handler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("handler panic: %v", r)
		}
	}()

	return errors.Trace(handler(event))
}

// String is used in log output.
func (e Event) String() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s(%s)", e.Kind, e.TrackID)
	}

	return fmt.Sprintf("%s(%s): %s", e.Kind, e.TrackID, e.Detail)
}
