package track

import "strings"

// ReadyState is the readiness of a track. The only transition is from
// ReadyStateLive to ReadyStateEnded.
type ReadyState string

const (
	ReadyStateLive  ReadyState = "live"
	ReadyStateEnded ReadyState = "ended"
)

func (r ReadyState) String() string {
	return string(r)
}

// ParseReadyState collapses a backend reported state. "initializing" and
// "live" (case insensitive) map to ReadyStateLive, everything else, such as
// "ended" or "failed", maps to ReadyStateEnded.
func ParseReadyState(str string) ReadyState {
	switch strings.ToLower(str) {
	case "initializing", "live":
		return ReadyStateLive
	default:
		return ReadyStateEnded
	}
}
