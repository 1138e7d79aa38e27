package track

import "github.com/juju/errors"

// Constraints, Capabilities and Settings are placeholders for the
// constrainable track interface, which is not supported.
type (
	Constraints  map[string]interface{}
	Capabilities map[string]interface{}
	Settings     map[string]interface{}
)

func (t *Track) ApplyConstraints(constraints Constraints) error {
	return errors.Annotatef(ErrNotImplemented, "apply constraints: %s", t.id)
}

func (t *Track) Clone() (*Track, error) {
	return nil, errors.Annotatef(ErrNotImplemented, "clone: %s", t.id)
}

func (t *Track) GetCapabilities() (Capabilities, error) {
	return nil, errors.Annotatef(ErrNotImplemented, "get capabilities: %s", t.id)
}

func (t *Track) GetConstraints() (Constraints, error) {
	return nil, errors.Annotatef(ErrNotImplemented, "get constraints: %s", t.id)
}

func (t *Track) GetSettings() (Settings, error) {
	return nil, errors.Annotatef(ErrNotImplemented, "get settings: %s", t.id)
}
