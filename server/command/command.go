package command

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/juju/errors"
	"github.com/spf13/pflag"
)

var ErrCommandNotFound = errors.New("command not found")

// Handler handles a command. It receives the arguments left over after the
// command's flags were parsed.
type Handler interface {
	Handle(ctx context.Context, args []string) error
}

// HandlerFunc is a functional Handler.
type HandlerFunc func(ctx context.Context, args []string) error

func (h HandlerFunc) Handle(ctx context.Context, args []string) error {
	return h(ctx, args)
}

// FlagRegistry registers the flags of a command.
type FlagRegistry interface {
	RegisterFlags(cmd *Command, flags *pflag.FlagSet)
}

// FlagRegistryFunc is a functional FlagRegistry.
type FlagRegistryFunc func(cmd *Command, flags *pflag.FlagSet)

func (f FlagRegistryFunc) RegisterFlags(cmd *Command, flags *pflag.FlagSet) {
	f(cmd, flags)
}

// ArgsProcessor rewrites arguments before or after flag parsing.
type ArgsProcessor interface {
	ProcessArgs(c *Command, args []string) []string
}

// ArgsProcessorFunc is a functional ArgsProcessor.
type ArgsProcessorFunc func(cmd *Command, args []string) []string

func (f ArgsProcessorFunc) ProcessArgs(cmd *Command, args []string) []string {
	return f(cmd, args)
}

type Params struct {
	Name              string
	Desc              string
	ArgsPreProcessor  ArgsProcessor
	ArgsPostProcessor ArgsProcessor
	FlagRegistry      FlagRegistry
	Handler           Handler
	SubCommands       []*Command
}

// Command is a node in a tree of commands. Exec parses the flags of the
// command, runs its handler and then descends into the sub command named by
// the first remaining argument.
type Command struct {
	params      Params
	subCommands map[string]*Command

	stdout io.Writer
	stderr io.Writer
}

func New(params Params) *Command {
	c := &Command{
		params:      params,
		subCommands: make(map[string]*Command, len(params.SubCommands)),
	}

	for _, sub := range params.SubCommands {
		c.subCommands[sub.Name()] = sub
	}

	c.SetOutput(os.Stdout, os.Stderr)

	return c
}

// SetOutput sets the writers of this command and all of its sub commands.
// Usage and flag errors go to stderr, handlers can write their output to
// Stdout(ctx).
func (c *Command) SetOutput(stdout io.Writer, stderr io.Writer) {
	c.stdout = stdout
	c.stderr = stderr

	for _, sub := range c.params.SubCommands {
		sub.SetOutput(stdout, stderr)
	}
}

func (c *Command) Name() string {
	return c.params.Name
}

func (c *Command) Desc() string {
	return c.params.Desc
}

type stdoutKey struct{}

// Stdout returns the writer for handler output set with SetOutput, or
// os.Stdout when ctx did not come from Exec.
func Stdout(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(stdoutKey{}).(io.Writer); ok {
		return w
	}

	return os.Stdout
}

// Exec runs the command. SIGINT and SIGTERM cancel the context passed to
// handlers.
func (c *Command) Exec(ctx context.Context, args []string) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return errors.Trace(c.exec(context.WithValue(ctx, stdoutKey{}, c.stdout), args))
}

func (c *Command) exec(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet(c.Name(), pflag.ContinueOnError)
	flags.SetOutput(c.stderr)
	flags.Usage = func() {
		c.Usage(flags)
	}

	// Flags after the first positional argument belong to sub commands.
	flags.SetInterspersed(false)

	if c.params.ArgsPreProcessor != nil {
		args = c.params.ArgsPreProcessor.ProcessArgs(c, args)
	}

	if c.params.FlagRegistry != nil {
		c.params.FlagRegistry.RegisterFlags(c, flags)
	}

	if err := flags.Parse(args); err != nil {
		return errors.Annotatef(err, "parse args for command: %s", c.Name())
	}

	args = flags.Args()

	if c.params.Handler != nil {
		if err := c.params.Handler.Handle(ctx, args); err != nil {
			return errors.Trace(err)
		}
	}

	if c.params.ArgsPostProcessor != nil {
		args = c.params.ArgsPostProcessor.ProcessArgs(c, args)
	}

	if len(args) > 0 && args[0] == "--" {
		args = args[1:]
	}

	if len(args) == 0 || len(c.subCommands) == 0 {
		return nil
	}

	sub, ok := c.subCommands[args[0]]
	if !ok {
		return errors.Annotatef(ErrCommandNotFound, "command: %s", args[0])
	}

	return errors.Trace(sub.exec(ctx, args[1:]))
}
