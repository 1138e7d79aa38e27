package backend

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/peer-calls/mediatrack/server/capture"
	"github.com/peer-calls/mediatrack/server/events"
	"github.com/peer-calls/mediatrack/server/identifiers"
	"github.com/peer-calls/mediatrack/server/logger"
	"github.com/peer-calls/mediatrack/server/track"
)

const (
	facingFront = "front"
	facingBack  = "back"
)

type device struct {
	kind    track.Kind
	enabled bool
	facing  string
	flash   capture.FlashMode
}

// LoopbackParams configure a Loopback.
type LoopbackParams struct {
	Log logger.Logger
	// Dir receives photos captured to the disk and camera roll targets.
	Dir string
	// TempDir receives photos captured to the temp target. Defaults to
	// os.TempDir().
	TempDir string
	// FrameWidth and FrameHeight are the size of the simulated camera
	// sensor. Default to 1920x1080.
	FrameWidth  int
	FrameHeight int
}

// Loopback is an in-process Gateway that simulates local capture devices.
// Photos are synthetic frames, written the same way a native backend would
// write camera output.
type Loopback struct {
	log    logger.Logger
	params LoopbackParams
	table  capture.TargetTable

	mu            sync.Mutex
	devices       map[identifiers.TrackID]*device
	closed        bool
	notifications chan Notification

	callbacks *callbacks
}

var _ track.Gateway = &Loopback{}

func NewLoopback(params LoopbackParams) *Loopback {
	if params.TempDir == "" {
		params.TempDir = os.TempDir()
	}

	if params.Dir == "" {
		params.Dir = params.TempDir
	}

	if params.FrameWidth <= 0 || params.FrameHeight <= 0 {
		params.FrameWidth = 1920
		params.FrameHeight = 1080
	}

	return &Loopback{
		log:           params.Log.WithNamespaceAppended("loopback"),
		params:        params,
		table:         capture.DefaultTargetTable(),
		devices:       map[identifiers.TrackID]*device{},
		notifications: make(chan Notification, notificationsBufferSize),
		callbacks:     newCallbacks(),
	}
}

// CaptureTargets returns the capture target table of this backend.
func (l *Loopback) CaptureTargets() capture.TargetTable {
	return l.table
}

// Notifications returns the channel of backend initiated events. It is
// closed by Close.
func (l *Loopback) Notifications() <-chan Notification {
	return l.notifications
}

// Open simulates opening a local capture device and returns the info of the
// new track.
func (l *Loopback) Open(kind track.Kind, label string) track.Info {
	id := identifiers.NewTrackID()

	l.mu.Lock()
	l.devices[id] = &device{
		kind:    kind,
		enabled: true,
		facing:  facingFront,
		flash:   capture.FlashModeOff,
	}
	l.mu.Unlock()

	l.log.Info("Open", logger.Ctx{
		"track_id": id,
		"kind":     kind,
	})

	return track.Info{
		ID:         id,
		Kind:       kind.String(),
		Label:      label,
		Enabled:    true,
		Remote:     false,
		ReadyState: "initializing",
	}
}

// Facing returns the active camera of a track.
func (l *Loopback) Facing(id identifiers.TrackID) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	d, ok := l.devices[id]
	if !ok {
		return "", false
	}

	return d.facing, true
}

// FlashMode returns the flash mode of a track.
func (l *Loopback) FlashMode(id identifiers.TrackID) (capture.FlashMode, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	d, ok := l.devices[id]
	if !ok {
		return 0, false
	}

	return d.flash, true
}

// notify must be called with mu held.
func (l *Loopback) notify(n Notification) {
	if l.closed {
		return
	}

	select {
	case l.notifications <- n:
	default:
		l.log.Warn("Notification dropped", logger.Ctx{
			"track_id": n.TrackID,
			"kind":     n.Kind,
		})
	}
}

func (l *Loopback) SetEnabled(id identifiers.TrackID, enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	d, ok := l.devices[id]
	if !ok {
		l.log.Warn("SetEnabled: unknown track", logger.Ctx{"track_id": id})

		return
	}

	if d.enabled == enabled {
		return
	}

	d.enabled = enabled

	kind := events.KindUnmute
	if !enabled {
		kind = events.KindMute
	}

	l.notify(Notification{TrackID: id, Kind: kind})
}

func (l *Loopback) SwitchCamera(id identifiers.TrackID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	d, ok := l.devices[id]
	if !ok {
		l.log.Warn("SwitchCamera: unknown track", logger.Ctx{"track_id": id})

		return
	}

	if d.facing == facingFront {
		d.facing = facingBack
	} else {
		d.facing = facingFront
	}

	l.log.Debug("SwitchCamera", logger.Ctx{
		"track_id": id,
		"facing":   d.facing,
	})
}

func (l *Loopback) Release(id identifiers.TrackID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.devices[id]; !ok {
		return
	}

	delete(l.devices, id)

	l.notify(Notification{TrackID: id, Kind: events.KindEnded})
}

// async runs fn on a new goroutine unless the backend is closed.
func (l *Loopback) async(onError func(error), fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		l.callbacks.goFunc(func() {
			onError(errors.Trace(ErrClosed))
		})

		return
	}

	l.callbacks.goFunc(fn)
}

func (l *Loopback) lookup(id identifiers.TrackID) (device, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	d, ok := l.devices[id]
	if !ok {
		return device{}, errors.NotFoundf("track %s", id)
	}

	return *d, nil
}

func (l *Loopback) CapturePhoto(
	id identifiers.TrackID,
	settings capture.CaptureSettings,
	onSuccess func(result string),
	onError func(err error),
) {
	l.async(onError, func() {
		result, err := l.capturePhoto(id, settings)
		if err != nil {
			onError(errors.Annotatef(err, "capture photo: %s", id))

			return
		}

		onSuccess(result)
	})
}

func (l *Loopback) capturePhoto(id identifiers.TrackID, settings capture.CaptureSettings) (string, error) {
	d, err := l.lookup(id)
	if err != nil {
		return "", errors.Trace(err)
	}

	if d.kind != track.KindVideo {
		return "", errors.NotSupportedf("capture from %s track", d.kind)
	}

	target, err := l.table.Decode(settings.CaptureTarget)
	if err != nil {
		return "", errors.Trace(err)
	}

	if settings.MaxSize <= 0 {
		return "", errors.NotValidf("max size %d", settings.MaxSize)
	}

	width, height := scaleDimension(l.params.FrameWidth, l.params.FrameHeight, settings.MaxSize)

	jpeg, err := renderFrame(width, height, jpegQuality(settings.MaxJPEGQuality), d.facing)
	if err != nil {
		return "", errors.Trace(err)
	}

	if target == capture.TargetMemory {
		return base64.StdEncoding.EncodeToString(jpeg), nil
	}

	dir := l.params.Dir
	if target == capture.TargetTemp {
		dir = l.params.TempDir
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Annotatef(err, "create dir: %s", dir)
	}

	filename := filepath.Join(dir, fmt.Sprintf("%s.jpeg", uuid.New()))

	if err := os.WriteFile(filename, jpeg, 0o644); err != nil {
		return "", errors.Annotatef(err, "write photo: %s", filename)
	}

	l.log.Debug("Photo saved", logger.Ctx{
		"track_id": id,
		"target":   target,
		"filename": filename,
		"width":    width,
		"height":   height,
	})

	u := url.URL{Scheme: "file", Path: filepath.ToSlash(filename)}

	return u.String(), nil
}

func (l *Loopback) SwitchFlash(
	id identifiers.TrackID,
	settings capture.FlashSettings,
	onSuccess func(result string),
	onError func(err error),
) {
	l.async(onError, func() {
		if settings.FlashMode != capture.FlashModeOff && settings.FlashMode != capture.FlashModeOn {
			onError(errors.NotValidf("flash mode %d", int(settings.FlashMode)))

			return
		}

		l.mu.Lock()

		d, ok := l.devices[id]
		if ok {
			d.flash = settings.FlashMode
		}

		l.mu.Unlock()

		if !ok {
			onError(errors.NotFoundf("track %s", id))

			return
		}

		onSuccess(settings.FlashMode.String())
	})
}

// Close waits for in-flight operations and closes the notifications
// channel. Later asynchronous operations fail with ErrClosed.
func (l *Loopback) Close() error {
	l.mu.Lock()

	if l.closed {
		l.mu.Unlock()

		return nil
	}

	l.closed = true
	l.mu.Unlock()

	l.callbacks.wait()

	close(l.notifications)

	return nil
}
