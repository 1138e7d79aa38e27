package capture

import (
	"github.com/juju/errors"
)

// Defaults are the process-wide capture defaults. They are set once at
// startup from the configuration and may later be replaced as a whole with
// Resolver.SetDefaults.
type Defaults struct {
	CaptureTarget  Target    `yaml:"capture_target" json:"captureTarget"`
	MaxSize        int       `yaml:"max_size" json:"maxSize"`
	MaxJPEGQuality float64   `yaml:"max_jpeg_quality" json:"maxJpegQuality"`
	FlashMode      FlashMode `yaml:"flash_mode" json:"flashMode"`
}

// NewDefaults returns the built-in defaults.
func NewDefaults() Defaults {
	return Defaults{
		CaptureTarget:  TargetCameraRoll,
		MaxSize:        2000,
		MaxJPEGQuality: 1,
		FlashMode:      FlashModeOff,
	}
}

// Validate checks the defaults against table. Per-call options are never
// validated, only the defaults are.
func (d Defaults) Validate(table TargetTable) error {
	if _, err := table.Encode(d.CaptureTarget); err != nil {
		return errors.Annotate(err, "defaults")
	}

	if d.MaxSize <= 0 {
		return errors.NotValidf("defaults max size %d", d.MaxSize)
	}

	if d.MaxJPEGQuality < 0 || d.MaxJPEGQuality > 1 {
		return errors.NotValidf("defaults max jpeg quality %v", d.MaxJPEGQuality)
	}

	if d.FlashMode != FlashModeOff && d.FlashMode != FlashModeOn {
		return errors.NotValidf("defaults flash mode %d", int(d.FlashMode))
	}

	return nil
}
