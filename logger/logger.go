package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger represents a structured logger
type Logger struct {
	logger zerolog.Logger
}

// Fields represents log fields
type Fields map[string]interface{}

var (
	// Default is the default logger instance
	Default *Logger
)

// Init initializes the logger writing to stderr, which keeps stdout free
// for parse results
func Init() {
	InitWithWriter(os.Stderr)
}

// InitWithWriter initializes the logger with a console writer on out
func InitWithWriter(out io.Writer) {
	level := getLogLevel()

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(level)

	_, isFile := out.(*os.File)
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    !isFile,
	}

	logger := zerolog.New(output).With().Timestamp().Logger()

	Default = &Logger{logger: logger}

	Default.Debug().
		Str("level", level.String()).
		Msg("Logger initialized")
}

// getLogLevel returns the log level from environment variable
func getLogLevel() zerolog.Level {
	return levelFor(os.Getenv("TORIWATCH_ENVIRONMENT") == "production")
}

// levelFor returns LOG_LEVEL when set, otherwise info in production and
// debug elsewhere
func levelFor(production bool) zerolog.Level {
	levelStr := os.Getenv("LOG_LEVEL")
	if levelStr == "" {
		if production {
			return zerolog.InfoLevel
		}
		return zerolog.DebugLevel
	}

	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// ApplyEnvironment resets the global level once the configured environment
// is known, which may come from a flag rather than TORIWATCH_ENVIRONMENT
func ApplyEnvironment(production bool) {
	zerolog.SetGlobalLevel(levelFor(production))
}

// Zerolog returns the underlying zerolog logger, for packages that take
// one directly
func (l *Logger) Zerolog() zerolog.Logger {
	return l.logger
}

// WithFields creates a new logger with fields
func (l *Logger) WithFields(fields Fields) *Logger {
	newLogger := l.logger.With()
	for k, v := range fields {
		newLogger = newLogger.Interface(k, v)
	}
	return &Logger{logger: newLogger.Logger()}
}

// WithField creates a new logger with a single field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

// Debug returns a debug event
func (l *Logger) Debug() *zerolog.Event {
	return l.logger.Debug()
}

// Info returns an info event
func (l *Logger) Info() *zerolog.Event {
	return l.logger.Info()
}

// Warn returns a warn event
func (l *Logger) Warn() *zerolog.Event {
	return l.logger.Warn()
}

// Error returns an error event
func (l *Logger) Error() *zerolog.Event {
	return l.logger.Error()
}

// Fatal returns a fatal event
func (l *Logger) Fatal() *zerolog.Event {
	return l.logger.Fatal()
}

func defaultLogger() *Logger {
	if Default == nil {
		Init()
	}
	return Default
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	defaultLogger().Info().Msgf(format, v...)
}

// Warn logs a warning message
func Warn(format string, v ...interface{}) {
	defaultLogger().Warn().Msgf(format, v...)
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	defaultLogger().Error().Msgf(format, v...)
}

// ForParser creates a logger for parsing one page
func ForParser(page string) *Logger {
	return defaultLogger().WithFields(Fields{"component": "parser", "page": page})
}

// ForWorker creates a logger for the worker
func ForWorker() *Logger {
	return defaultLogger().WithField("component", "worker")
}

// ForPublisher creates a logger for the publisher
func ForPublisher() *Logger {
	return defaultLogger().WithField("component", "publisher")
}

// LogError is a convenience method for logging errors with context
func LogError(component string, err error, format string, v ...interface{}) {
	defaultLogger().Error().
		Str("component", component).
		Err(err).
		Msg(fmt.Sprintf(format, v...))
}
