package logger

import (
	"fmt"
	"strings"
)

// Formatter prepares a Message for the writer.
type Formatter interface {
	Format(message Message) ([]byte, error)
}

// StringFormatter is the default Formatter. It writes one line per message
// with context keys appended as key=value pairs.
type StringFormatter struct {
	params StringFormatterParams
}

// StringFormatterParams are parameters for StringFormatter.
type StringFormatterParams struct {
	// DateLayout is passed to time.Time.Format. It defaults to RFC3339 with
	// microseconds.
	DateLayout string

	// DisableContextKeySorting will not sort context keys before printing them.
	DisableContextKeySorting bool
}

var _ Formatter = &StringFormatter{}

// NewStringFormatter creates a new instance of StringFormatter.
func NewStringFormatter(params StringFormatterParams) *StringFormatter {
	if params.DateLayout == "" {
		params.DateLayout = "2006-01-02T15:04:05.000000Z07:00"
	}

	return &StringFormatter{
		params: params,
	}
}

// Format implements Formatter.
func (f *StringFormatter) Format(message Message) ([]byte, error) {
	var keys []string

	if f.params.DisableContextKeySorting {
		for k := range message.Ctx {
			keys = append(keys, k)
		}
	} else {
		keys = message.Ctx.SortedKeys()
	}

	var b strings.Builder

	for _, k := range keys {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(fmt.Sprintf("%+v", message.Ctx[k]))
	}

	ret := fmt.Sprintf("%s %5s [%20s] %s%s\n",
		message.Timestamp.Format(f.params.DateLayout),
		message.Level,
		message.Namespace,
		message.Body,
		b.String(),
	)

	return []byte(ret), nil
}
