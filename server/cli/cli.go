package cli

import (
	"context"

	"github.com/juju/errors"
	"github.com/peer-calls/mediatrack/server"
	"github.com/peer-calls/mediatrack/server/logger"
)

type Props struct {
	Log     logger.Logger
	Version string
	Args    []string
}

func Exec(ctx context.Context, props Props) error {
	cmd := NewRootCommand(props)
	err := cmd.Exec(ctx, props.Args)

	return errors.Trace(err)
}

func readConfig(log logger.Logger, configFile string) (server.Config, error) {
	configFiles := []string{}
	if configFile != "" {
		configFiles = append(configFiles, configFile)
	}

	c, err := server.ReadConfig(configFiles)
	if err != nil {
		return c, errors.Annotate(err, "read config")
	}

	log.Debug("Using config", logger.Ctx{
		"bind_host": c.BindHost,
		"bind_port": c.BindPort,
		"backend":   c.Backend.Type,
	})

	return c, nil
}
