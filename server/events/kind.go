package events

import (
	"github.com/juju/errors"
)

// ErrUnsupportedEventKind is returned when an event kind outside of the
// closed set below is used.
var ErrUnsupportedEventKind = errors.New("unsupported event kind")

// Kind is the kind of a track event.
type Kind string

const (
	KindEnded           Kind = "ended"
	KindMute            Kind = "mute"
	KindUnmute          Kind = "unmute"
	KindOverconstrained Kind = "overconstrained"
)

var kinds = []Kind{
	KindEnded,
	KindMute,
	KindUnmute,
	KindOverconstrained,
}

// Kinds returns all supported event kinds.
func Kinds() []Kind {
	ret := make([]Kind, len(kinds))
	copy(ret, kinds)

	return ret
}

func (k Kind) String() string {
	return string(k)
}

// Valid returns nil when k is one of the supported kinds.
func (k Kind) Valid() error {
	for _, kind := range kinds {
		if k == kind {
			return nil
		}
	}

	return errors.Annotatef(ErrUnsupportedEventKind, "kind: %q", string(k))
}

// ParseKind converts a string to a Kind.
func ParseKind(str string) (Kind, error) {
	k := Kind(str)

	if err := k.Valid(); err != nil {
		return "", errors.Trace(err)
	}

	return k, nil
}
