package command

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

const minNameWidth = 12

// Usage writes the help text of the command to stderr.
func (c *Command) Usage(flags *pflag.FlagSet) {
	var b strings.Builder

	flagUsages := flags.FlagUsages()

	b.WriteString("Usage: ")
	b.WriteString(c.Name())

	if flagUsages != "" {
		b.WriteString(" [OPTIONS]")
	}

	if len(c.params.SubCommands) > 0 {
		b.WriteString(" [COMMAND] [ARG...]")
	}

	fmt.Fprintf(&b, "\n%s\n", c.Desc())

	if flagUsages != "" {
		fmt.Fprintf(&b, "\nOptions:\n%s\n", flagUsages)
	}

	if len(c.params.SubCommands) > 0 {
		width := minNameWidth

		for _, sub := range c.params.SubCommands {
			if l := len(sub.Name()); l > width {
				width = l
			}
		}

		b.WriteString("\nCommands:\n")

		for _, sub := range c.params.SubCommands {
			fmt.Fprintf(&b, "  %-*s %s\n", width, sub.Name(), sub.Desc())
		}

		b.WriteString("\n")
	}

	_, _ = fmt.Fprint(c.stderr, b.String())
}
