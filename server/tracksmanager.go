package server

import (
	"context"
	"sort"
	"sync"

	"github.com/juju/errors"
	"github.com/peer-calls/mediatrack/server/backend"
	"github.com/peer-calls/mediatrack/server/capture"
	"github.com/peer-calls/mediatrack/server/events"
	"github.com/peer-calls/mediatrack/server/identifiers"
	"github.com/peer-calls/mediatrack/server/logger"
	"github.com/peer-calls/mediatrack/server/promise"
	"github.com/peer-calls/mediatrack/server/track"
)

// Backend is a track.Gateway that also reports backend initiated events.
type Backend interface {
	track.Gateway

	CaptureTargets() capture.TargetTable

	// Notifications must be closed by Close.
	Notifications() <-chan backend.Notification

	Close() error
}

// TracksManager owns the tracks of a process. It serializes access to them
// and routes backend notifications to the right track.
type TracksManager struct {
	log      logger.Logger
	backend  Backend
	resolver *capture.Resolver
	sink     events.ErrorSink

	mu     sync.Mutex
	tracks map[identifiers.TrackID]*track.Track

	torndown chan struct{}
}

func NewTracksManager(log logger.Logger, b Backend, defaults capture.Defaults) (*TracksManager, error) {
	resolver, err := capture.NewResolver(defaults, b.CaptureTargets())
	if err != nil {
		return nil, errors.Annotate(err, "new tracks manager")
	}

	log = log.WithNamespaceAppended("tracks_manager")
	logSink := events.NewLoggingSink(log)

	m := &TracksManager{
		log:      log,
		backend:  b,
		resolver: resolver,
		sink: func(event events.Event, err error) {
			prometheusEventHandlerErrorsTotal.Inc()
			logSink(event, err)
		},
		tracks:   map[identifiers.TrackID]*track.Track{},
		torndown: make(chan struct{}),
	}

	go m.start(b.Notifications())

	return m, nil
}

func (m *TracksManager) start(notifications <-chan backend.Notification) {
	defer close(m.torndown)

	for n := range notifications {
		err := m.Do(n.TrackID, func(t *track.Track) error {
			return errors.Trace(t.HandleNotification(n.Kind, n.Detail))
		})
		if errors.IsNotFound(err) {
			// Released tracks still report ended.
			m.log.Debug("Notification for unknown track", logger.Ctx{
				"track_id": n.TrackID,
				"kind":     n.Kind,
			})

			continue
		}

		if err != nil {
			m.log.Error("Notification not delivered", err, logger.Ctx{
				"track_id": n.TrackID,
				"kind":     n.Kind,
			})

			continue
		}

		prometheusEventsTotal.WithLabelValues(n.Kind.String()).Inc()
	}
}

// Add creates a track from info. A random id is assigned when info has none.
func (m *TracksManager) Add(info track.Info) (track.State, error) {
	if info.ID == "" {
		info.ID = identifiers.NewTrackID()
	}

	t, err := track.New(track.Params{
		Log:       m.log,
		Gateway:   m.backend,
		Resolver:  m.resolver,
		ErrorSink: m.sink,
	}, info)
	if err != nil {
		return track.State{}, errors.Trace(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tracks[info.ID]; ok {
		return track.State{}, errors.AlreadyExistsf("track %s", info.ID)
	}

	m.tracks[info.ID] = t

	prometheusTracksTotal.Inc()
	prometheusTracksActive.Inc()

	m.log.Info("Add track", logger.Ctx{
		"track_id": info.ID,
		"kind":     t.Kind(),
		"remote":   t.Remote(),
	})

	return t.State(), nil
}

// Do calls fn with the track while holding the manager lock, so fn must not
// block. Event handlers run under the same lock.
func (m *TracksManager) Do(id identifiers.TrackID, fn func(t *track.Track) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tracks[id]
	if !ok {
		return errors.NotFoundf("track %s", id)
	}

	return errors.Trace(fn(t))
}

// Get returns a snapshot of a track.
func (m *TracksManager) Get(id identifiers.TrackID) (state track.State, err error) {
	err = m.Do(id, func(t *track.Track) error {
		state = t.State()

		return nil
	})

	return state, errors.Trace(err)
}

// List returns snapshots of all tracks sorted by id.
func (m *TracksManager) List() []track.State {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make(identifiers.TrackIDs, 0, len(m.tracks))

	for id := range m.tracks {
		ids = append(ids, id)
	}

	sort.Sort(ids)

	ret := make([]track.State, 0, len(ids))

	for _, id := range ids {
		ret = append(ret, m.tracks[id].State())
	}

	return ret
}

// Remove stops and releases a track and forgets it.
func (m *TracksManager) Remove(id identifiers.TrackID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tracks[id]
	if !ok {
		return errors.NotFoundf("track %s", id)
	}

	m.remove(t)

	return nil
}

// remove delivers ended itself because the backend notification for the
// release arrives after the track is gone from the registry.
func (m *TracksManager) remove(t *track.Track) {
	t.Stop()
	t.Release()

	if err := t.HandleNotification(events.KindEnded, ""); err != nil {
		m.log.Error("Deliver ended", err, logger.Ctx{
			"track_id": t.ID(),
		})
	} else {
		prometheusEventsTotal.WithLabelValues(events.KindEnded.String()).Inc()
	}

	delete(m.tracks, t.ID())

	prometheusTracksActive.Dec()

	m.log.Info("Remove track", logger.Ctx{
		"track_id": t.ID(),
	})
}

func (m *TracksManager) SetEnabled(id identifiers.TrackID, enabled bool) (state track.State, err error) {
	err = m.Do(id, func(t *track.Track) error {
		t.SetEnabled(enabled)
		state = t.State()

		return nil
	})

	observeOperation("set_enabled", err)

	return state, errors.Trace(err)
}

func (m *TracksManager) Stop(id identifiers.TrackID) (state track.State, err error) {
	err = m.Do(id, func(t *track.Track) error {
		t.Stop()
		state = t.State()

		return nil
	})

	observeOperation("stop", err)

	return state, errors.Trace(err)
}

func (m *TracksManager) SwitchCamera(id identifiers.TrackID) error {
	err := m.Do(id, func(t *track.Track) error {
		return errors.Trace(t.SwitchCamera())
	})

	observeOperation("switch_camera", err)

	return errors.Trace(err)
}

// CapturePhoto captures a photo and waits for the result until ctx is done.
func (m *TracksManager) CapturePhoto(ctx context.Context, id identifiers.TrackID, opts *capture.CaptureOptions) (string, error) {
	p := promise.New()

	err := m.Do(id, func(t *track.Track) error {
		return errors.Trace(t.CapturePhoto(opts, p.Resolve, p.Reject))
	})
	if err != nil {
		observeOperation("capture_photo", err)

		return "", errors.Trace(err)
	}

	result, err := p.Wait(ctx)

	observeOperation("capture_photo", err)

	return result, errors.Trace(err)
}

// SwitchFlash switches the flash and waits for the result until ctx is done.
func (m *TracksManager) SwitchFlash(ctx context.Context, id identifiers.TrackID, opts *capture.FlashOptions) (string, error) {
	p := promise.New()

	err := m.Do(id, func(t *track.Track) error {
		return errors.Trace(t.SwitchFlash(opts, p.Resolve, p.Reject))
	})
	if err != nil {
		observeOperation("switch_flash", err)

		return "", errors.Trace(err)
	}

	result, err := p.Wait(ctx)

	observeOperation("switch_flash", err)

	return result, errors.Trace(err)
}

// Subscribe registers handler for all event kinds of a track and returns a
// function that removes the subscriptions.
func (m *TracksManager) Subscribe(id identifiers.TrackID, handler events.Handler) (func(), error) {
	var subs []func() error

	err := m.Do(id, func(t *track.Track) error {
		for _, kind := range events.Kinds() {
			kind := kind

			subID, err := t.Subscribe(kind, handler)
			if err != nil {
				return errors.Trace(err)
			}

			subs = append(subs, func() error {
				return t.Unsubscribe(kind, subID)
			})
		}

		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}

	return func() {
		for _, unsub := range subs {
			_ = unsub()
		}
	}, nil
}

// Defaults returns the process-wide capture defaults.
func (m *TracksManager) Defaults() capture.Defaults {
	return m.resolver.Defaults()
}

// SetDefaults replaces the process-wide capture defaults for all tracks.
func (m *TracksManager) SetDefaults(defaults capture.Defaults) error {
	if err := m.resolver.SetDefaults(defaults); err != nil {
		return errors.Trace(err)
	}

	m.log.Info("Capture defaults changed", logger.Ctx{
		"defaults": defaults,
	})

	return nil
}

// Close removes all tracks, closes the backend and waits until all pending
// notifications are handled.
func (m *TracksManager) Close() error {
	m.mu.Lock()

	for _, t := range m.tracks {
		m.remove(t)
	}

	m.mu.Unlock()

	err := m.backend.Close()

	<-m.torndown

	return errors.Annotate(err, "close tracks manager")
}
