package backend

import (
	"encoding/json"
	"sync"

	"github.com/go-redis/redis/v7"
	"github.com/juju/errors"
	"github.com/peer-calls/mediatrack/server/capture"
	"github.com/peer-calls/mediatrack/server/identifiers"
	"github.com/peer-calls/mediatrack/server/logger"
	"github.com/peer-calls/mediatrack/server/track"
)

// CommandType is the type of a command sent to a remote backend.
type CommandType string

const (
	CommandTypeSetEnabled   CommandType = "set_enabled"
	CommandTypeSwitchCamera CommandType = "switch_camera"
	CommandTypeCapturePhoto CommandType = "capture_photo"
	CommandTypeSwitchFlash  CommandType = "switch_flash"
	CommandTypeRelease      CommandType = "release"
)

// Command is published for every Gateway call.
type Command struct {
	Type      CommandType              `json:"type"`
	TrackID   identifiers.TrackID      `json:"trackId"`
	RequestID identifiers.RequestID    `json:"requestId,omitempty"`
	Enabled   *bool                    `json:"enabled,omitempty"`
	Capture   *capture.CaptureSettings `json:"capture,omitempty"`
	Flash     *capture.FlashSettings   `json:"flash,omitempty"`
}

// Reply completes the command with the same RequestID.
type Reply struct {
	RequestID identifiers.RequestID `json:"requestId"`
	Result    string                `json:"result,omitempty"`
	Error     string                `json:"error,omitempty"`
}

// ErrBackend wraps errors reported in a Reply.
var ErrBackend = errors.New("backend error")

// RedisParams configure a Redis gateway.
type RedisParams struct {
	Log logger.Logger
	// Pub publishes commands.
	Pub *redis.Client
	// Sub is used for the subscription to replies and events.
	Sub    *redis.Client
	Prefix string
}

type pendingRequest struct {
	trackID   identifiers.TrackID
	onSuccess func(string)
	onError   func(error)
}

// Redis is a Gateway for a backend that runs in another process. Commands
// are published to a channel and replies and events are received on two
// others.
type Redis struct {
	log    logger.Logger
	pub    *redis.Client
	pubsub *redis.PubSub
	keys   struct {
		commands string
		replies  string
		events   string
	}

	mu      sync.Mutex
	pending map[identifiers.RequestID]pendingRequest
	closed  bool

	notifications chan Notification
	torndown      chan struct{}
	callbacks     *callbacks
}

var _ track.Gateway = &Redis{}

func CommandsChannel(prefix string) string {
	return prefix + ":backend:commands"
}

func RepliesChannel(prefix string) string {
	return prefix + ":backend:replies"
}

func EventsChannel(prefix string) string {
	return prefix + ":backend:events"
}

// NewRedis subscribes to the replies and events channels and returns once
// the subscription is confirmed.
func NewRedis(params RedisParams) (*Redis, error) {
	r := &Redis{
		log:           params.Log.WithNamespaceAppended("redis"),
		pub:           params.Pub,
		pending:       map[identifiers.RequestID]pendingRequest{},
		notifications: make(chan Notification, notificationsBufferSize),
		torndown:      make(chan struct{}),
		callbacks:     newCallbacks(),
	}

	r.keys.commands = CommandsChannel(params.Prefix)
	r.keys.replies = RepliesChannel(params.Prefix)
	r.keys.events = EventsChannel(params.Prefix)

	r.pubsub = params.Sub.Subscribe(r.keys.replies, r.keys.events)

	// Wait for both subscriptions to be confirmed.
	for i := 0; i < 2; i++ {
		if _, err := r.pubsub.Receive(); err != nil {
			_ = r.pubsub.Close()

			return nil, errors.Annotatef(err, "subscribe: %s", params.Prefix)
		}
	}

	go r.start(r.pubsub.Channel())

	return r, nil
}

// CaptureTargets returns the capture target table of this backend.
func (r *Redis) CaptureTargets() capture.TargetTable {
	return capture.DefaultTargetTable()
}

// Notifications returns the channel of backend initiated events. It is
// closed by Close.
func (r *Redis) Notifications() <-chan Notification {
	return r.notifications
}

func (r *Redis) start(ch <-chan *redis.Message) {
	defer close(r.torndown)

	for msg := range ch {
		switch msg.Channel {
		case r.keys.replies:
			r.handleReply(msg.Payload)
		case r.keys.events:
			r.handleEvent(msg.Payload)
		}
	}
}

func (r *Redis) handleReply(payload string) {
	var reply Reply

	if err := json.Unmarshal([]byte(payload), &reply); err != nil {
		r.log.Error("Unmarshal reply", errors.Trace(err), nil)

		return
	}

	r.mu.Lock()
	req, ok := r.pending[reply.RequestID]
	delete(r.pending, reply.RequestID)
	r.mu.Unlock()

	if !ok {
		r.log.Warn("Reply for unknown request", logger.Ctx{
			"request_id": reply.RequestID,
		})

		return
	}

	if reply.Error != "" {
		req.onError(errors.Annotatef(ErrBackend, "track %s: %s", req.trackID, reply.Error))

		return
	}

	req.onSuccess(reply.Result)
}

func (r *Redis) handleEvent(payload string) {
	var n Notification

	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		r.log.Error("Unmarshal event", errors.Trace(err), nil)

		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	select {
	case r.notifications <- n:
	default:
		r.log.Warn("Notification dropped", logger.Ctx{
			"track_id": n.TrackID,
			"kind":     n.Kind,
		})
	}
}

func (r *Redis) publish(cmd Command) error {
	b, err := json.Marshal(cmd)
	if err != nil {
		return errors.Annotatef(err, "marshal command: %s", cmd.Type)
	}

	err = r.pub.Publish(r.keys.commands, b).Err()

	return errors.Annotatef(err, "publish command: %s", cmd.Type)
}

func (r *Redis) send(cmd Command) {
	if err := r.publish(cmd); err != nil {
		r.log.Error("Send command", err, logger.Ctx{
			"track_id": cmd.TrackID,
		})
	}
}

// request publishes cmd and registers the callbacks for its reply. Failures
// to publish are reported to onError on a new goroutine that Close waits
// for.
func (r *Redis) request(cmd Command, onSuccess func(string), onError func(error)) {
	cmd.RequestID = identifiers.NewRequestID()

	r.mu.Lock()

	if r.closed {
		r.mu.Unlock()

		r.callbacks.goFunc(func() {
			onError(errors.Trace(ErrClosed))
		})

		return
	}

	r.pending[cmd.RequestID] = pendingRequest{
		trackID:   cmd.TrackID,
		onSuccess: onSuccess,
		onError:   onError,
	}

	r.mu.Unlock()

	if err := r.publish(cmd); err != nil {
		r.mu.Lock()
		_, ok := r.pending[cmd.RequestID]
		delete(r.pending, cmd.RequestID)
		r.mu.Unlock()

		if ok {
			r.callbacks.goFunc(func() {
				onError(err)
			})
		}
	}
}

func (r *Redis) SetEnabled(id identifiers.TrackID, enabled bool) {
	r.send(Command{
		Type:    CommandTypeSetEnabled,
		TrackID: id,
		Enabled: &enabled,
	})
}

func (r *Redis) SwitchCamera(id identifiers.TrackID) {
	r.send(Command{
		Type:    CommandTypeSwitchCamera,
		TrackID: id,
	})
}

func (r *Redis) Release(id identifiers.TrackID) {
	r.send(Command{
		Type:    CommandTypeRelease,
		TrackID: id,
	})
}

func (r *Redis) CapturePhoto(
	id identifiers.TrackID,
	settings capture.CaptureSettings,
	onSuccess func(result string),
	onError func(err error),
) {
	r.request(Command{
		Type:    CommandTypeCapturePhoto,
		TrackID: id,
		Capture: &settings,
	}, onSuccess, onError)
}

func (r *Redis) SwitchFlash(
	id identifiers.TrackID,
	settings capture.FlashSettings,
	onSuccess func(result string),
	onError func(err error),
) {
	r.request(Command{
		Type:    CommandTypeSwitchFlash,
		TrackID: id,
		Flash:   &settings,
	}, onSuccess, onError)
}

// Close unsubscribes, fails all pending requests with ErrClosed and closes
// the notifications channel.
func (r *Redis) Close() error {
	r.mu.Lock()

	if r.closed {
		r.mu.Unlock()

		return nil
	}

	r.closed = true
	r.mu.Unlock()

	err := r.pubsub.Close()

	<-r.torndown

	r.mu.Lock()
	pending := r.pending
	r.pending = map[identifiers.RequestID]pendingRequest{}
	r.mu.Unlock()

	for _, req := range pending {
		req.onError(errors.Trace(ErrClosed))
	}

	r.callbacks.wait()

	close(r.notifications)

	return errors.Annotate(err, "close redis gateway")
}
