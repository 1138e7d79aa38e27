package multierr

import (
	e "errors"
	"fmt"
	"strings"

	"github.com/juju/errors"
)

// MultiErr collects errors from independent steps, for example the steps of
// a shutdown, so that one failure does not hide the others. The zero value
// is ready to use.
type MultiErr struct {
	errs []error
}

// Add ignores nil errors.
func (m *MultiErr) Add(err error) {
	if err != nil {
		m.errs = append(m.errs, err)
	}
}

// Len returns the number of collected errors.
func (m *MultiErr) Len() int {
	return len(m.errs)
}

// Err returns nil when nothing was collected and the error itself when only
// one was. Otherwise the returned error lists the stacks of all of them.
func (m *MultiErr) Err() error {
	switch len(m.errs) {
	case 0:
		return nil
	case 1:
		return m.errs[0]
	}

	stacks := make([]string, len(m.errs))

	for i, err := range m.errs {
		stacks[i] = fmt.Sprintf("%d. %s", i+1, errors.ErrorStack(err))
	}

	return errors.Errorf("%d errors occurred:\n%s", len(m.errs), strings.Join(stacks, "\n"))
}

// Is reports whether the cause of err is target.
func Is(err, target error) bool {
	return e.Is(errors.Cause(err), target)
}
