package helpers

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sjsage522/toriwatch/pkg/parser"
)

// LoggerInterface defines the interface for logger implementations
type LoggerInterface interface {
	LogError(source string, err error)
	LogInfo(format string, args ...interface{})
}

// Logger appends listing failures to a file and reports progress
// through zerolog
type Logger struct {
	errorFile string
	log       zerolog.Logger
	mu        sync.Mutex
	now       func() time.Time
}

// NewLogger creates a new logger instance. An empty errorFile disables the
// failure file; errors are then only logged.
func NewLogger(errorFile string, log zerolog.Logger) *Logger {
	return &Logger{
		errorFile: errorFile,
		log:       log,
		now:       time.Now,
	}
}

// LogError records an error for the given source (usually a page path)
func (l *Logger) LogError(source string, err error) {
	l.log.Warn().Str("source", source).Err(err).Msg("Listing failure")

	if l.errorFile == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, fileErr := os.OpenFile(l.errorFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if fileErr != nil {
		l.log.Error().Err(fileErr).Str("file", l.errorFile).Msg("Failed to open failure log")
		return
	}
	defer f.Close()

	// one line per entry
	timestamp := l.now().Format("2006-01-02 15:04:05")
	line := parser.CollapseWhitespace(err.Error())
	if _, werr := fmt.Fprintf(f, "[%s] [%s] %s\n", timestamp, source, line); werr != nil {
		l.log.Error().Err(werr).Str("file", l.errorFile).Msg("Failed to write failure log")
	}
}

// LogInfo logs an informational message
func (l *Logger) LogInfo(format string, args ...interface{}) {
	l.log.Info().Msgf(format, args...)
}
