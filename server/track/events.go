package track

import (
	"github.com/juju/errors"
	"github.com/peer-calls/mediatrack/server/events"
	"github.com/peer-calls/mediatrack/server/logger"
)

// Subscribe adds an event handler for kind.
func (t *Track) Subscribe(kind events.Kind, handler events.Handler) (events.SubscriptionID, error) {
	id, err := t.dispatcher.Subscribe(kind, handler)

	return id, errors.Annotatef(err, "track: %s", t.id)
}

// Unsubscribe removes a handler added with Subscribe.
func (t *Track) Unsubscribe(kind events.Kind, id events.SubscriptionID) error {
	err := t.dispatcher.Unsubscribe(kind, id)

	return errors.Annotatef(err, "track: %s", t.id)
}

// OnEnded replaces the single ended handler. Pass nil to clear it.
func (t *Track) OnEnded(handler events.Handler) {
	_ = t.dispatcher.SetNamed(events.KindEnded, handler)
}

// OnMute replaces the single mute handler.
func (t *Track) OnMute(handler events.Handler) {
	_ = t.dispatcher.SetNamed(events.KindMute, handler)
}

// OnUnmute replaces the single unmute handler.
func (t *Track) OnUnmute(handler events.Handler) {
	_ = t.dispatcher.SetNamed(events.KindUnmute, handler)
}

// OnOverconstrained replaces the single overconstrained handler.
func (t *Track) OnOverconstrained(handler events.Handler) {
	_ = t.dispatcher.SetNamed(events.KindOverconstrained, handler)
}

// HandleNotification delivers an event reported by the backend. An ended
// notification also ends the track.
func (t *Track) HandleNotification(kind events.Kind, detail string) error {
	if err := kind.Valid(); err != nil {
		return errors.Annotatef(err, "handle notification: %s", t.id)
	}

	t.log.Trace("HandleNotification", logger.Ctx{
		"kind":   kind,
		"detail": detail,
	})

	if kind == events.KindEnded {
		t.readyState = ReadyStateEnded
	}

	err := t.dispatcher.Dispatch(events.Event{
		Kind:    kind,
		TrackID: t.id,
		Detail:  detail,
	})

	return errors.Trace(err)
}
