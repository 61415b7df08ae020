// Package logger provides structured logging for the osintrecon application
package logger

import (
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Fields represents structured log fields
type Fields map[string]interface{}

// Logger wraps logrus.Logger with additional functionality
type Logger struct {
	*logrus.Logger
}

// NewLogger creates a new structured logger
func NewLogger(level logrus.Level) *Logger {
	logger := logrus.New()

	logger.SetLevel(level)

	// Use JSON formatter for structured logging in production
	if os.Getenv("ENV") == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	return &Logger{Logger: logger}
}

// ParseLevel maps a configured level name to a logrus level, defaulting to info.
func ParseLevel(name string) logrus.Level {
	level, err := logrus.ParseLevel(strings.TrimSpace(name))
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// WithScan adds scan identity fields to the logger
func (l *Logger) WithScan(scanID, tool string) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"scan_id": scanID,
		"tool":    tool,
	})
}

// WithError adds error context to the logger
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}

// WithFields adds multiple fields to the logger
func (l *Logger) WithFields(fields Fields) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields(fields))
}

// LogStep logs the start and end of a named execution step
func (l *Logger) LogStep(entry *logrus.Entry, step string, fn func() error) error {
	if entry == nil {
		entry = logrus.NewEntry(l.Logger)
	}
	start := time.Now()

	entry.WithField("step", step).Debug("Step started")

	err := fn()
	stepFields := logrus.Fields{
		"step":     step,
		"duration": time.Since(start).String(),
	}

	if err != nil {
		entry.WithFields(stepFields).WithError(err).Warn("Step failed")
	} else {
		entry.WithFields(stepFields).Debug("Step completed")
	}

	return err
}

// Default logger instance
var defaultLogger = NewLogger(logrus.InfoLevel)

// Default returns the process-wide logger
func Default() *Logger {
	return defaultLogger
}

// SetLevel sets the log level for the default logger
func SetLevel(level logrus.Level) {
	defaultLogger.SetLevel(level)
}

// WithFields returns an entry with the specified fields using the default logger
func WithFields(fields Fields) *logrus.Entry {
	return defaultLogger.WithFields(fields)
}
