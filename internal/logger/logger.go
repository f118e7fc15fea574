package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	serviceName     = "screenshot-inspector"
	timestampFormat = "2006-01-02T15:04:05.000Z07:00"
)

// Logger is the process-wide structured logger. Entries carry the service
// name so pipeline logs stay attributable once aggregated.
var Logger *logrus.Logger

func init() {
	Logger = logrus.New()
	Logger.SetOutput(os.Stdout)
	Logger.SetLevel(levelFromEnv())
	Logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: timestampFormat,
	})
}

// levelFromEnv reads LOG_LEVEL, accepting any level logrus knows (trace
// through panic, case-insensitive). Unset or unparsable values fall back
// to info.
func levelFromEnv() logrus.Level {
	raw := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if raw == "" {
		return logrus.InfoLevel
	}
	level, err := logrus.ParseLevel(raw)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func entry() *logrus.Entry {
	return Logger.WithField("service", serviceName)
}

// WithFields creates a new entry with the given fields
func WithFields(fields logrus.Fields) *logrus.Entry {
	return entry().WithFields(fields)
}

// WithField creates a new entry with a single field
func WithField(key string, value interface{}) *logrus.Entry {
	return entry().WithField(key, value)
}

// WithError creates a new entry with an error field
func WithError(err error) *logrus.Entry {
	return entry().WithError(err)
}

// Info logs an info message
func Info(msg string) {
	entry().Info(msg)
}

// Error logs an error message
func Error(msg string) {
	entry().Error(msg)
}

// Debug logs a debug message
func Debug(msg string) {
	entry().Debug(msg)
}

// Warn logs a warning message
func Warn(msg string) {
	entry().Warn(msg)
}
