package backend

import (
	"github.com/juju/errors"
	"github.com/peer-calls/mediatrack/server/events"
	"github.com/peer-calls/mediatrack/server/identifiers"
)

// ErrClosed is reported to callbacks of operations that cannot complete
// because the backend was closed.
var ErrClosed = errors.New("backend closed")

// Notification is a state change initiated by the backend.
type Notification struct {
	TrackID identifiers.TrackID `json:"trackId"`
	Kind    events.Kind         `json:"kind"`
	Detail  string              `json:"detail,omitempty"`
}

const notificationsBufferSize = 64
