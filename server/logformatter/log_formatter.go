package logformatter

import (
	"fmt"
	"strings"

	"github.com/peer-calls/mediatrack/server/logger"
)

// TrackIDKey is the context key rendered in its own column.
const TrackIDKey = "track_id"

// LogFormatter formats console output and puts the track id, when present,
// into a dedicated column right after the namespace.
type LogFormatter struct {
	timeLayout string
}

func New() *LogFormatter {
	return &LogFormatter{
		timeLayout: "2006-01-02T15:04:05.000000Z07:00",
	}
}

var _ logger.Formatter = &LogFormatter{}

func (f *LogFormatter) Format(message logger.Message) ([]byte, error) {
	ctx := message.Ctx

	var b strings.Builder

	for _, k := range ctx.SortedKeys() {
		if k == TrackIDKey {
			continue
		}

		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(fmt.Sprintf("%+v", ctx[k]))
	}

	namespace := message.Namespace

	if l := 20; len(namespace) > l {
		namespace = namespace[len(namespace)-l:]
	}

	column := ""

	if trackID, ok := ctx[TrackIDKey]; ok {
		column = fmt.Sprintf(" [%s]", trackID)
	}

	ret := fmt.Sprintf("%s %5s [%20s]%s %s%s\n",
		message.Timestamp.Format(f.timeLayout),
		message.Level,
		namespace,
		column,
		strings.TrimRight(message.Body, "\n"),
		b.String(),
	)

	return []byte(ret), nil
}
