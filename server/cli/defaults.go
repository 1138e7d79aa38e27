package cli

import (
	"context"

	"github.com/juju/errors"
	"github.com/peer-calls/mediatrack/server/command"
	"github.com/peer-calls/mediatrack/server/logger"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v2"
)

type defaultsHandler struct {
	args struct {
		config string
	}

	log logger.Logger
}

func (h *defaultsHandler) RegisterFlags(c *command.Command, flags *pflag.FlagSet) {
	flags.StringVarP(&h.args.config, "config", "c", "", "config file to use")
}

func (h *defaultsHandler) Handle(ctx context.Context, args []string) error {
	c, err := readConfig(h.log, h.args.config)
	if err != nil {
		return errors.Trace(err)
	}

	b, err := yaml.Marshal(c.Capture)
	if err != nil {
		return errors.Annotate(err, "marshal defaults")
	}

	_, err = command.Stdout(ctx).Write(b)

	return errors.Trace(err)
}

func newDefaultsCmd(props Props) *command.Command {
	h := &defaultsHandler{
		log: props.Log,
	}

	return command.New(command.Params{
		Name:         "defaults",
		Desc:         "Prints the capture defaults resolved from config and environment",
		FlagRegistry: h,
		Handler:      h,
	})
}
