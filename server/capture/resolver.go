package capture

import (
	"sync"

	"github.com/juju/errors"
)

// Resolver merges caller options with the process-wide Defaults. The merge
// is a shallow overwrite: every field set by the caller replaces the default
// and no numeric range checks are made.
type Resolver struct {
	mu       sync.RWMutex
	defaults Defaults
	table    TargetTable
}

// NewResolver validates defaults against table and returns a Resolver.
func NewResolver(defaults Defaults, table TargetTable) (*Resolver, error) {
	if err := defaults.Validate(table); err != nil {
		return nil, errors.Trace(err)
	}

	return &Resolver{
		defaults: defaults,
		table:    table,
	}, nil
}

// Defaults returns the current defaults.
func (r *Resolver) Defaults() Defaults {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.defaults
}

// SetDefaults is the administrative override of the process-wide defaults.
// Invalid defaults are rejected and the previous ones stay in effect.
func (r *Resolver) SetDefaults(defaults Defaults) error {
	if err := defaults.Validate(r.table); err != nil {
		return errors.Trace(err)
	}

	r.mu.Lock()
	r.defaults = defaults
	r.mu.Unlock()

	return nil
}

// TargetTable returns the table used to encode capture targets.
func (r *Resolver) TargetTable() TargetTable {
	return r.table
}

// ResolveCaptureOptions returns the defaults overlaid with opts. A nil opts
// is the same as empty options.
func (r *Resolver) ResolveCaptureOptions(opts *CaptureOptions) (CaptureSettings, error) {
	defaults := r.Defaults()

	code, err := r.table.Encode(defaults.CaptureTarget)
	if err != nil {
		return CaptureSettings{}, errors.Annotate(err, "resolve capture options")
	}

	ret := CaptureSettings{
		MaxSize:        defaults.MaxSize,
		MaxJPEGQuality: defaults.MaxJPEGQuality,
		CaptureTarget:  code,
	}

	if opts == nil {
		return ret, nil
	}

	if opts.MaxSize != nil {
		ret.MaxSize = *opts.MaxSize
	}

	if opts.MaxJPEGQuality != nil {
		ret.MaxJPEGQuality = *opts.MaxJPEGQuality
	}

	switch {
	case opts.CaptureTarget != nil:
		code, err := r.table.Encode(*opts.CaptureTarget)
		if err != nil {
			return CaptureSettings{}, errors.Annotate(err, "resolve capture options")
		}

		ret.CaptureTarget = code
	case opts.CaptureTargetCode != nil:
		ret.CaptureTarget = *opts.CaptureTargetCode
	}

	return ret, nil
}

// ResolveFlashOptions returns the defaults overlaid with opts. The flash
// mode is expected to be encoded already.
func (r *Resolver) ResolveFlashOptions(opts *FlashOptions) FlashSettings {
	ret := FlashSettings{
		FlashMode: r.Defaults().FlashMode,
	}

	if opts != nil && opts.FlashMode != nil {
		ret.FlashMode = *opts.FlashMode
	}

	return ret
}
