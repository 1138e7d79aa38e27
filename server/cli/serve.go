package cli

import (
	"context"
	"net"
	"strconv"

	"github.com/juju/errors"
	"github.com/peer-calls/mediatrack/server"
	"github.com/peer-calls/mediatrack/server/command"
	"github.com/peer-calls/mediatrack/server/logger"
	"github.com/peer-calls/mediatrack/server/multierr"
	"github.com/spf13/pflag"
)

type serveHandler struct {
	args struct {
		config string
	}

	log logger.Logger
}

func (h *serveHandler) RegisterFlags(c *command.Command, flags *pflag.FlagSet) {
	flags.StringVarP(&h.args.config, "config", "c", "", "config file to use")
}

func (h *serveHandler) Handle(ctx context.Context, args []string) error {
	c, err := readConfig(h.log, h.args.config)
	if err != nil {
		return errors.Trace(err)
	}

	listener, err := net.Listen("tcp", net.JoinHostPort(c.BindHost, strconv.Itoa(c.BindPort)))
	if err != nil {
		return errors.Annotate(err, "listen")
	}

	defer listener.Close()

	b, err := server.NewBackend(h.log, c.Backend)
	if err != nil {
		return errors.Trace(err)
	}

	tracks, err := server.NewTracksManager(h.log, b, c.Capture)
	if err != nil {
		_ = b.Close()

		return errors.Trace(err)
	}

	mux := server.NewMux(server.MuxParams{
		Log:         h.log,
		Tracks:      tracks,
		AccessToken: c.AccessToken,
	})

	srv := server.New(server.Params{
		TLSCertFile: c.TLS.Cert,
		TLSKeyFile:  c.TLS.Key,
	}, mux)

	h.log.Info("Listen", logger.Ctx{
		"local_addr": listener.Addr(),
	})

	var errs multierr.MultiErr

	errs.Add(srv.Start(ctx, listener))
	errs.Add(tracks.Close())

	return errors.Trace(errs.Err())
}

func newServeCmd(props Props) *command.Command {
	h := &serveHandler{
		log: props.Log,
	}

	return command.New(command.Params{
		Name:         "serve",
		Desc:         "Starts the HTTP control server (default)",
		FlagRegistry: h,
		Handler:      h,
	})
}
