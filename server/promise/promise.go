package promise

import (
	"context"
	"sync"

	"github.com/juju/errors"
)

// ErrCanceled is returned from Wait when the context is done before the
// promise is settled.
var ErrCanceled = errors.New("wait canceled")

type promise struct {
	result string
	err    error
	doneCh chan struct{}
	once   sync.Once
}

// Promise bridges a pair of success and error callbacks to a blocking Wait.
type Promise interface {
	Deferred
	Waitable
}

// Deferred settles a promise. Only the first call has an effect.
type Deferred interface {
	Resolve(result string)
	Reject(err error)
}

type Waitable interface {
	Wait(ctx context.Context) (string, error)
}

func New() Promise {
	return &promise{
		doneCh: make(chan struct{}),
	}
}

func (p *promise) done(result string, err error) {
	p.once.Do(func() {
		p.result = result
		p.err = err
		close(p.doneCh)
	})
}

func (p *promise) Resolve(result string) {
	p.done(result, nil)
}

func (p *promise) Reject(err error) {
	p.done("", err)
}

func (p *promise) Wait(ctx context.Context) (string, error) {
	select {
	case <-p.doneCh:
		return p.result, p.err
	case <-ctx.Done():
		return "", errors.Annotatef(ErrCanceled, "%s", ctx.Err())
	}
}
