package test

import (
	"github.com/peer-calls/mediatrack/server/logformatter"
	"github.com/peer-calls/mediatrack/server/logger"
)

// LogEnv configures logging in tests, for example
// MEDIATRACK_LOG=track:trace,backend:debug.
const LogEnv = "MEDIATRACK_LOG"

func NewLogger() logger.Logger {
	return logger.NewFromEnv(LogEnv).WithFormatter(logformatter.New())
}
