package identifiers

import (
	"sort"

	"github.com/google/uuid"
)

// TrackID is the opaque, stable identifier of a media track. It is assigned
// once by whoever creates the track and never changes afterwards.
type TrackID string

// RequestID correlates an asynchronous backend command with its reply.
type RequestID string

func (t TrackID) String() string {
	return string(t)
}

func (r RequestID) String() string {
	return string(r)
}

// NewTrackID returns a random track identifier.
func NewTrackID() TrackID {
	return TrackID(uuid.New().String())
}

// NewRequestID returns a random request identifier.
func NewRequestID() RequestID {
	return RequestID(uuid.New().String())
}

type TrackIDs []TrackID

var _ sort.Interface = TrackIDs(nil)

func (t TrackIDs) Len() int {
	return len(t)
}

func (t TrackIDs) Less(i, j int) bool {
	return t[i] < t[j]
}

func (t TrackIDs) Swap(i, j int) {
	t[i], t[j] = t[j], t[i]
}
