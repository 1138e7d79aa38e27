package command_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/juju/errors"
	"github.com/peer-calls/mediatrack/server/command"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
)

type recorder struct {
	args   []string
	config string
	file   string
}

func newTestCommand(rec *recorder) *command.Command {
	handler := func(ctx context.Context, args []string) error {
		rec.args = args

		return nil
	}

	cmd := command.New(command.Params{
		Name: "root",
		Desc: "Root is the root command",
		FlagRegistry: command.FlagRegistryFunc(func(_ *command.Command, flags *pflag.FlagSet) {
			flags.StringVarP(&rec.config, "config", "c", "", "config to use")
		}),
		Handler: command.HandlerFunc(handler),
		SubCommands: []*command.Command{
			command.New(command.Params{
				Name: "sub1",
				Desc: "sub desc",
				FlagRegistry: command.FlagRegistryFunc(func(_ *command.Command, flags *pflag.FlagSet) {
					flags.StringVarP(&rec.file, "file", "f", "", "file to use")
				}),
				Handler: command.HandlerFunc(handler),
			}),
		},
	})

	cmd.SetOutput(&bytes.Buffer{}, &bytes.Buffer{})

	return cmd
}

func TestCommand_NoSubcommands(t *testing.T) {
	var got []string

	cmd := command.New(command.Params{
		Name: "root",
		Handler: command.HandlerFunc(func(ctx context.Context, args []string) error {
			got = args

			return nil
		}),
	})

	err := cmd.Exec(context.Background(), []string{"a", "b", "c"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestCommand_HandlerError(t *testing.T) {
	errHandler := errors.New("handler failed")
	subCalled := false

	cmd := command.New(command.Params{
		Name: "root",
		Handler: command.HandlerFunc(func(ctx context.Context, args []string) error {
			return errHandler
		}),
		SubCommands: []*command.Command{
			command.New(command.Params{
				Name: "sub",
				Handler: command.HandlerFunc(func(ctx context.Context, args []string) error {
					subCalled = true

					return nil
				}),
			}),
		},
	})

	err := cmd.Exec(context.Background(), []string{"sub"})
	assert.Equal(t, errHandler, errors.Cause(err))
	assert.False(t, subCalled, "sub command must not run after a failing parent")
}

func TestCommand_Exec(t *testing.T) {
	type testCase struct {
		exec    []string
		want    recorder
		wantErr string
	}

	testCases := map[string]testCase{
		"flags and args without sub command": {
			exec: []string{"-c", "myconfig.yaml", "a", "-b", "c"},
			want: recorder{config: "myconfig.yaml", args: []string{"a", "-b", "c"}},
			// Handled by root, then "a" is not a sub command.
			wantErr: "command: a: command not found",
		},
		"sub command": {
			exec: []string{"--config", "config.yaml", "sub1", "--file", "myfile", "test"},
			want: recorder{config: "config.yaml", file: "myfile", args: []string{"test"}},
		},
		"sub command after --": {
			exec: []string{"--config", "config.yaml", "--", "sub1", "--file", "myfile", "test"},
			want: recorder{config: "config.yaml", file: "myfile", args: []string{"test"}},
		},
		"unknown sub command": {
			exec:    []string{"--config", "config.yaml", "sub2", "--file", "myfile", "test"},
			want:    recorder{config: "config.yaml", args: []string{"sub2", "--file", "myfile", "test"}},
			wantErr: "command: sub2: command not found",
		},
		"invalid flag in root": {
			exec:    []string{"--invalid", "config.yaml", "sub1"},
			wantErr: "parse args for command: root: unknown flag: --invalid",
		},
		"invalid flag in sub command": {
			exec:    []string{"--config", "config.yaml", "sub1", "--invalid", "myfile"},
			want:    recorder{config: "config.yaml", args: []string{"sub1", "--invalid", "myfile"}},
			wantErr: "parse args for command: sub1: unknown flag: --invalid",
		},
	}

	for name, tc := range testCases {
		tc := tc

		t.Run(name, func(t *testing.T) {
			var rec recorder

			err := newTestCommand(&rec).Exec(context.Background(), tc.exec)
			if tc.wantErr != "" {
				if assert.Error(t, err) {
					assert.Equal(t, tc.wantErr, err.Error())
				}
			} else {
				assert.NoError(t, err)
			}

			assert.Equal(t, tc.want, rec)
		})
	}
}

func TestCommand_Stdout(t *testing.T) {
	var stdout, stderr bytes.Buffer

	cmd := command.New(command.Params{
		Name: "root",
		Desc: "Root is the root command",
		SubCommands: []*command.Command{
			command.New(command.Params{
				Name: "hello",
				Desc: "Prints hello",
				Handler: command.HandlerFunc(func(ctx context.Context, args []string) error {
					_, err := fmt.Fprintln(command.Stdout(ctx), "hello", args)

					return err
				}),
			}),
		},
	})

	cmd.SetOutput(&stdout, &stderr)

	err := cmd.Exec(context.Background(), []string{"hello", "world"})
	assert.NoError(t, err)
	assert.Equal(t, "hello [world]\n", stdout.String())
	assert.Empty(t, stderr.String())
}

func TestCommand_Usage(t *testing.T) {
	var stderr bytes.Buffer

	cmd := command.New(command.Params{
		Name: "root",
		Desc: "Root is the root command",
		FlagRegistry: command.FlagRegistryFunc(func(_ *command.Command, flags *pflag.FlagSet) {
			flags.StringP("config", "c", "", "config to use")
		}),
		SubCommands: []*command.Command{
			command.New(command.Params{
				Name: "sub1",
				Desc: "sub desc",
			}),
		},
	})

	cmd.SetOutput(&bytes.Buffer{}, &stderr)

	err := cmd.Exec(context.Background(), []string{"--help"})
	assert.Equal(t, pflag.ErrHelp, errors.Cause(err))

	usage := stderr.String()
	assert.Contains(t, usage, "Usage: root [OPTIONS] [COMMAND] [ARG...]")
	assert.Contains(t, usage, "Root is the root command")
	assert.Contains(t, usage, "--config string")
	assert.Contains(t, usage, "  sub1         sub desc")
}
