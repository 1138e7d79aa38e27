package track

import "github.com/juju/errors"

var (
	// ErrUnsupportedOperation is returned when a local video only operation
	// is invoked on a remote track or on an audio track.
	ErrUnsupportedOperation = errors.New("unsupported operation")
	// ErrNotImplemented is returned by the constraint negotiation family.
	ErrNotImplemented = errors.New("not implemented")
)
