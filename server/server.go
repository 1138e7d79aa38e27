package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/juju/errors"
	"github.com/peer-calls/mediatrack/server/multierr"
)

const defaultShutdownTimeout = 5 * time.Second

type Params struct {
	TLSCertFile string
	TLSKeyFile  string
	// ShutdownTimeout bounds how long in-flight requests, such as pending
	// photo captures, may run after the context is done.
	ShutdownTimeout time.Duration
}

type Server struct {
	server *http.Server
	params Params
}

func New(params Params, handler http.Handler) *Server {
	if params.ShutdownTimeout <= 0 {
		params.ShutdownTimeout = defaultShutdownTimeout
	}

	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{
		server: server,
		params: params,
	}
}

// Start serves on l until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, l net.Listener) error {
	startErrCh := make(chan error, 1)

	go func() {
		defer close(startErrCh)

		var err error

		if s.params.TLSCertFile != "" {
			err = s.server.ServeTLS(l, s.params.TLSCertFile, s.params.TLSKeyFile)
		} else {
			err = s.server.Serve(l)
		}

		startErrCh <- errors.Annotate(err, "start server")
	}()

	select {
	case <-ctx.Done():
	case err := <-startErrCh:
		return errors.Trace(err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.params.ShutdownTimeout)
	defer cancel()

	var errs multierr.MultiErr

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		errs.Add(errors.Annotate(err, "shutdown"))
		errs.Add(errors.Annotate(s.server.Close(), "close"))
	}

	if err := <-startErrCh; !multierr.Is(err, http.ErrServerClosed) {
		errs.Add(err)
	}

	return errors.Trace(errs.Err())
}
