package track

import (
	"encoding/json"

	"github.com/juju/errors"
	"github.com/peer-calls/mediatrack/server/capture"
	"github.com/peer-calls/mediatrack/server/events"
	"github.com/peer-calls/mediatrack/server/identifiers"
	"github.com/peer-calls/mediatrack/server/logger"
)

// Gateway is the native backend that owns the devices behind tracks. All
// methods return immediately; asynchronous results are delivered through
// the callbacks, on a goroutine owned by the Gateway.
type Gateway interface {
	SetEnabled(id identifiers.TrackID, enabled bool)
	SwitchCamera(id identifiers.TrackID)
	CapturePhoto(id identifiers.TrackID, settings capture.CaptureSettings, onSuccess func(result string), onError func(err error))
	SwitchFlash(id identifiers.TrackID, settings capture.FlashSettings, onSuccess func(result string), onError func(err error))
	Release(id identifiers.TrackID)
}

// Info describes a track as reported by the backend or transport layer.
type Info struct {
	ID         identifiers.TrackID `json:"id" yaml:"id"`
	Kind       string              `json:"kind" yaml:"kind"`
	Label      string              `json:"label" yaml:"label"`
	Enabled    bool                `json:"enabled" yaml:"enabled"`
	Remote     bool                `json:"remote" yaml:"remote"`
	ReadyState string              `json:"readyState" yaml:"ready_state"`
}

// Track is the control surface of a single audio or video track.
//
// A Track has a single owner and is not safe for concurrent use. Device
// operations are forwarded to the Gateway without waiting for it, so the
// local enabled and muted state is optimistic: if the backend fails to apply
// a SetEnabled, nothing reconciles the two.
type Track struct {
	id       identifiers.TrackID
	kind     Kind
	label    string
	remote   bool
	readonly bool

	enabled    bool
	muted      bool
	readyState ReadyState

	gateway    Gateway
	resolver   *capture.Resolver
	dispatcher *events.Dispatcher
	log        logger.Logger
}

// Params are dependencies shared by tracks.
type Params struct {
	Log      logger.Logger
	Gateway  Gateway
	Resolver *capture.Resolver
	// ErrorSink receives event handler failures. Defaults to logging them.
	ErrorSink events.ErrorSink
}

// New creates a track from info. The ready state is collapsed with
// ParseReadyState and the track starts unmuted regardless of info.Enabled.
func New(params Params, info Info) (*Track, error) {
	kind, err := ParseKind(info.Kind)
	if err != nil {
		return nil, errors.Annotatef(err, "new track: %s", info.ID)
	}

	if info.ID == "" {
		return nil, errors.NotValidf("empty track id")
	}

	log := params.Log.WithNamespaceAppended("track").WithCtx(logger.Ctx{
		"track_id": info.ID,
	})

	sink := params.ErrorSink
	if sink == nil {
		sink = events.NewLoggingSink(log)
	}

	return &Track{
		id:         info.ID,
		kind:       kind,
		label:      info.Label,
		remote:     info.Remote,
		readonly:   true,
		enabled:    info.Enabled,
		muted:      false,
		readyState: ParseReadyState(info.ReadyState),
		gateway:    params.Gateway,
		resolver:   params.Resolver,
		dispatcher: events.NewDispatcher(sink),
		log:        log,
	}, nil
}

func (t *Track) ID() identifiers.TrackID {
	return t.id
}

func (t *Track) Kind() Kind {
	return t.kind
}

func (t *Track) Label() string {
	return t.label
}

// Remote returns true for tracks received from a peer.
func (t *Track) Remote() bool {
	return t.remote
}

// Readonly is always true.
func (t *Track) Readonly() bool {
	return t.readonly
}

func (t *Track) Enabled() bool {
	return t.enabled
}

func (t *Track) Muted() bool {
	return t.muted
}

func (t *Track) ReadyState() ReadyState {
	return t.readyState
}

// SetEnabled signals the backend and updates the local state without
// waiting for it. Setting the current value does nothing. After it returns
// Muted() == !Enabled().
func (t *Track) SetEnabled(enabled bool) {
	if enabled == t.enabled {
		return
	}

	t.log.Trace("SetEnabled", logger.Ctx{
		"enabled": enabled,
	})

	t.gateway.SetEnabled(t.id, enabled)

	t.enabled = enabled
	t.muted = !enabled
}

// Stop disables the track in the backend and ends it. Enabled and muted are
// left as they are.
func (t *Track) Stop() {
	t.log.Trace("Stop", nil)

	t.gateway.SetEnabled(t.id, false)

	t.readyState = ReadyStateEnded
}

// Release asks the backend to free the native resources of the track. It is
// meant to be called last, after Stop.
func (t *Track) Release() {
	t.log.Trace("Release", nil)

	t.gateway.Release(t.id)
}

func (t *Track) checkLocalVideo(operation string) error {
	if t.remote {
		return errors.Annotatef(ErrUnsupportedOperation, "%s: remote track %s", operation, t.id)
	}

	if t.kind != KindVideo {
		return errors.Annotatef(ErrUnsupportedOperation, "%s: %s track %s", operation, t.kind, t.id)
	}

	return nil
}

// SwitchCamera switches between the front and back camera of a local video
// track.
func (t *Track) SwitchCamera() error {
	if err := t.checkLocalVideo("switch camera"); err != nil {
		return errors.Trace(err)
	}

	t.log.Trace("SwitchCamera", nil)

	t.gateway.SwitchCamera(t.id)

	return nil
}

// CapturePhoto takes a photo from a local video track. Exactly one of
// onSuccess or onError is called later, from a backend goroutine. Errors
// returned from CapturePhoto itself mean the backend was never called.
func (t *Track) CapturePhoto(opts *capture.CaptureOptions, onSuccess func(result string), onError func(err error)) error {
	if err := t.checkLocalVideo("capture photo"); err != nil {
		return errors.Trace(err)
	}

	settings, err := t.resolver.ResolveCaptureOptions(opts)
	if err != nil {
		return errors.Annotatef(err, "capture photo: %s", t.id)
	}

	t.log.Trace("CapturePhoto", logger.Ctx{
		"max_size":         settings.MaxSize,
		"max_jpeg_quality": settings.MaxJPEGQuality,
		"capture_target":   settings.CaptureTarget,
	})

	t.gateway.CapturePhoto(t.id, settings, onSuccess, onError)

	return nil
}

// SwitchFlash changes the flash mode of a local video track. The callbacks
// behave as in CapturePhoto.
func (t *Track) SwitchFlash(opts *capture.FlashOptions, onSuccess func(result string), onError func(err error)) error {
	if err := t.checkLocalVideo("switch flash"); err != nil {
		return errors.Trace(err)
	}

	settings := t.resolver.ResolveFlashOptions(opts)

	t.log.Trace("SwitchFlash", logger.Ctx{
		"flash_mode": settings.FlashMode,
	})

	t.gateway.SwitchFlash(t.id, settings, onSuccess, onError)

	return nil
}

// Info returns the current state in the same shape New accepts.
func (t *Track) Info() Info {
	return Info{
		ID:         t.id,
		Kind:       t.kind.String(),
		Label:      t.label,
		Enabled:    t.enabled,
		Remote:     t.remote,
		ReadyState: t.readyState.String(),
	}
}

// State is Info extended with the derived fields.
type State struct {
	Info
	Muted    bool `json:"muted"`
	Readonly bool `json:"readonly"`
}

func (t *Track) State() State {
	return State{
		Info:     t.Info(),
		Muted:    t.muted,
		Readonly: t.readonly,
	}
}

func (t *Track) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(t.State())

	return b, errors.Annotatef(err, "marshal track json: %s", t.id)
}
