package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var defaultLogger = &logrus.Logger{
	Out:       os.Stdout,
	Formatter: new(logrus.JSONFormatter),
	Level:     logrus.InfoLevel,
}

// Info logs a message at Info level.
func Info(msg string) {
	defaultLogger.Infoln(msg)
}

// Infof logs a formatted message at Info level.
func Infof(format string, args ...interface{}) {
	defaultLogger.Infof(format, args...)
}

// Warnf logs a formatted message at Warn level.
func Warnf(format string, args ...interface{}) {
	defaultLogger.Warnf(format, args...)
}

// Error logs errors at Error level.
func Error(err error) {
	defaultLogger.Errorln(err)
}

// Errorf logs a formatted message at Error level.
func Errorf(format string, args ...interface{}) {
	defaultLogger.Errorf(format, args...)
}

// Fatal logs errors at Fatal level and exits.
func Fatal(err error) {
	defaultLogger.Fatalln(err)
}

// WithFields returns an entry carrying structured fields.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return defaultLogger.WithFields(fields)
}
