package logger

import (
	"fmt"
	"strings"
)

// Level is the severity of a message. Higher levels are more verbose, a
// logger configured with a level writes messages at that level and below.
type Level int

const (
	LevelUnknown Level = iota - 1
	LevelDisabled
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

var levelNames = [...]string{
	LevelDisabled: "disabled",
	LevelError:    "error",
	LevelWarn:     "warn",
	LevelInfo:     "info",
	LevelDebug:    "debug",
	LevelTrace:    "trace",
}

func (l Level) String() string {
	if l < LevelDisabled || int(l) >= len(levelNames) {
		return fmt.Sprintf("Unknown(%d)", int(l))
	}

	return levelNames[l]
}

// LevelFromString parses a level name. Names are case insensitive.
func LevelFromString(str string) (Level, bool) {
	str = strings.ToLower(strings.TrimSpace(str))

	for i, name := range levelNames {
		if name == str {
			return Level(i), true
		}
	}

	return LevelUnknown, false
}

// LevelForNamespace implements Config, so that a single Level configures
// every namespace.
func (l Level) LevelForNamespace(string) Level {
	return l
}
