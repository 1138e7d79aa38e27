package capture

import (
	"fmt"

	"github.com/juju/errors"
)

// ErrInvalidCaptureTarget is returned when a capture target name has no
// backend code.
var ErrInvalidCaptureTarget = errors.New("invalid capture target")

// Target is the symbolic name of the place a captured photo is stored.
type Target string

const (
	// TargetMemory returns the photo itself, base64 encoded.
	TargetMemory Target = "memory"
	// TargetTemp stores the photo in a temporary directory.
	TargetTemp Target = "temp"
	// TargetDisk stores the photo in the application data directory.
	TargetDisk Target = "disk"
	// TargetCameraRoll stores the photo in the shared photo library.
	TargetCameraRoll Target = "cameraRoll"
)

// TargetCode is the backend representation of a Target.
type TargetCode int

// TargetTable maps capture target names to backend codes. Backends publish
// their own table; DefaultTargetTable is used by the bundled backends.
type TargetTable map[Target]TargetCode

// DefaultTargetTable returns the capture target codes understood by the
// bundled backends.
func DefaultTargetTable() TargetTable {
	return TargetTable{
		TargetMemory:     0,
		TargetDisk:       1,
		TargetCameraRoll: 2,
		TargetTemp:       3,
	}
}

// Encode returns the backend code for target.
func (t TargetTable) Encode(target Target) (TargetCode, error) {
	code, ok := t[target]
	if !ok {
		return 0, errors.Annotatef(ErrInvalidCaptureTarget, "target: %q", string(target))
	}

	return code, nil
}

// Decode returns the name of a backend code.
func (t TargetTable) Decode(code TargetCode) (Target, error) {
	for target, c := range t {
		if c == code {
			return target, nil
		}
	}

	return "", errors.Annotatef(ErrInvalidCaptureTarget, "code: %d", int(code))
}

// FlashMode is passed to the backend as is.
type FlashMode int

const (
	FlashModeOff FlashMode = 0
	FlashModeOn  FlashMode = 1
)

func (f FlashMode) String() string {
	switch f {
	case FlashModeOff:
		return "off"
	case FlashModeOn:
		return "on"
	default:
		return fmt.Sprintf("Unknown(%d)", int(f))
	}
}

// ParseFlashMode parses "off" or "on".
func ParseFlashMode(str string) (FlashMode, error) {
	switch str {
	case "off":
		return FlashModeOff, nil
	case "on":
		return FlashModeOn, nil
	default:
		return 0, errors.NotValidf("flash mode %q", str)
	}
}

// MarshalYAML implements yaml.Marshaler.
func (f FlashMode) MarshalYAML() (interface{}, error) {
	if f != FlashModeOff && f != FlashModeOn {
		return int(f), nil
	}

	return f.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler. Both the names and the numeric
// codes are accepted.
func (f *FlashMode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var code int

	if err := unmarshal(&code); err == nil {
		*f = FlashMode(code)

		return nil
	}

	var str string

	if err := unmarshal(&str); err != nil {
		return errors.Annotate(err, "unmarshal flash mode")
	}

	mode, err := ParseFlashMode(str)
	if err != nil {
		return errors.Trace(err)
	}

	*f = mode

	return nil
}
