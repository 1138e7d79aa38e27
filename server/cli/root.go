package cli

import (
	"strings"

	"github.com/peer-calls/mediatrack/server/command"
)

const defaultCommand = "serve"

// defaultToServe prepends the serve command when no command is named, so
// that `mediatrack -c config.yml` starts the server. Help flags before the
// first command are left for the root command.
func defaultToServe(_ *command.Command, args []string) []string {
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			break
		}

		if arg == "-h" || arg == "--help" {
			return args
		}
	}

	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return append([]string{defaultCommand}, args...)
	}

	return args
}

func NewRootCommand(props Props) *command.Command {
	return command.New(command.Params{
		Name:             "mediatrack",
		Desc:             "mediatrack controls local and remote media tracks.",
		ArgsPreProcessor: command.ArgsProcessorFunc(defaultToServe),
		SubCommands: []*command.Command{
			newServeCmd(props),
			newCaptureCmd(props),
			newDefaultsCmd(props),
			newVersionCmd(props),
		},
	})
}
