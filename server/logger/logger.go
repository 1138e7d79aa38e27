package logger

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Logger is a leveled, namespaced logger.
type Logger interface {
	Factory

	// Level returns the level configured for this logger's namespace.
	Level() Level

	// Namespace returns the colon separated namespace of this logger.
	Namespace() string

	// IsLevelEnabled returns true when Level is enabled, false otherwise.
	IsLevelEnabled(level Level) bool

	Trace(message string, ctx Ctx) (int, error)
	Debug(message string, ctx Ctx) (int, error)
	Info(message string, ctx Ctx) (int, error)
	Warn(message string, ctx Ctx) (int, error)

	// Error adds a log entry with level error. When err is not nil it is
	// appended to the message.
	Error(message string, err error, ctx Ctx) (int, error)
}

// Factory derives new loggers from an existing one. The receiver is never
// modified.
type Factory interface {
	// Ctx returns the current logger's context.
	Ctx() Ctx

	// WithCtx returns a new Logger with context appended to existing context.
	WithCtx(Ctx) Logger

	WithFormatter(Formatter) Logger
	WithWriter(io.Writer) Logger
	WithNamespace(namespace string) Logger

	// WithNamespaceAppended returns a new Logger with namespace appended
	// after a colon.
	WithNamespaceAppended(namespace string) Logger

	// WithConfig returns a new Logger with config set. A nil config is
	// ignored.
	WithConfig(config Config) Logger
}

type logger struct {
	config    Config
	ctx       Ctx
	formatter Formatter
	namespace string
	writer    io.Writer
}

// New returns a new Logger with default StringFormatter. Logging is disabled
// until WithConfig sets the levels for different namespaces.
func New() Logger {
	return &logger{
		config:    LevelDisabled,
		formatter: NewStringFormatter(StringFormatterParams{}),
		writer:    os.Stderr,
	}
}

// NewFromEnv returns a Logger configured from the environment variable key.
// See NewConfigFromString for the format.
func NewFromEnv(key string) Logger {
	return New().WithConfig(NewConfigFromString(os.Getenv(key)))
}

var _ Logger = &logger{}

func (l *logger) clone(fn func(c *logger)) Logger {
	c := *l
	fn(&c)

	return &c
}

func (l *logger) Ctx() Ctx {
	return l.ctx
}

func (l *logger) WithCtx(ctx Ctx) Logger {
	return l.clone(func(c *logger) { c.ctx = l.ctx.WithCtx(ctx) })
}

func (l *logger) WithFormatter(formatter Formatter) Logger {
	return l.clone(func(c *logger) { c.formatter = formatter })
}

func (l *logger) WithWriter(writer io.Writer) Logger {
	return l.clone(func(c *logger) { c.writer = writer })
}

func (l *logger) WithNamespace(namespace string) Logger {
	return l.clone(func(c *logger) { c.namespace = namespace })
}

func (l *logger) WithNamespaceAppended(namespace string) Logger {
	if l.namespace != "" {
		namespace = fmt.Sprintf("%s:%s", l.namespace, namespace)
	}

	return l.WithNamespace(namespace)
}

func (l *logger) WithConfig(config Config) Logger {
	if config == nil {
		return l
	}

	return l.clone(func(c *logger) { c.config = config })
}

func (l *logger) Namespace() string {
	return l.namespace
}

func (l *logger) Level() Level {
	return l.config.LevelForNamespace(l.namespace)
}

func (l *logger) IsLevelEnabled(level Level) bool {
	configured := l.Level()

	return configured > LevelDisabled && level <= configured
}

func (l *logger) Trace(message string, ctx Ctx) (int, error) {
	return l.log(time.Now(), LevelTrace, message, ctx)
}

func (l *logger) Debug(message string, ctx Ctx) (int, error) {
	return l.log(time.Now(), LevelDebug, message, ctx)
}

func (l *logger) Info(message string, ctx Ctx) (int, error) {
	return l.log(time.Now(), LevelInfo, message, ctx)
}

func (l *logger) Warn(message string, ctx Ctx) (int, error) {
	return l.log(time.Now(), LevelWarn, message, ctx)
}

func (l *logger) Error(message string, err error, ctx Ctx) (int, error) {
	if err != nil {
		if message != "" {
			message = fmt.Sprintf("%s: %+v", message, err)
		} else {
			message = fmt.Sprintf("%+v", err)
		}
	}

	return l.log(time.Now(), LevelError, message, ctx)
}

func (l *logger) log(ts time.Time, level Level, message string, ctx Ctx) (int, error) {
	if !l.IsLevelEnabled(level) {
		return 0, nil
	}

	formatted, err := l.formatter.Format(Message{
		Timestamp: ts,
		Namespace: l.namespace,
		Level:     level,
		Body:      message,
		Ctx:       l.ctx.WithCtx(ctx),
	})
	if err != nil {
		return 0, fmt.Errorf("log format error: %w", err)
	}

	i, err := l.writer.Write(formatted)
	if err != nil {
		return i, fmt.Errorf("log write error: %w", err)
	}

	return i, nil
}
