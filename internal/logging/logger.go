package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus with the field conventions used across the service:
// every component logs through WithComponent so log lines carry a stable
// "component" attribute.
type Logger struct {
	log *logrus.Logger
}

// New creates a Logger for the given level and environment. Production
// environments log JSON; everything else keeps the readable text format.
func New(logLevel, environment string) *Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetLevel(parseLevel(logLevel))

	if environment == "production" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return &Logger{log: log}
}

func parseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// WithComponent returns an entry tagged with the component name.
func (l *Logger) WithComponent(name string) *logrus.Entry {
	return l.log.WithField("component", name)
}

// WithStation returns an entry tagged with a station id.
func (l *Logger) WithStation(stationID int64) *logrus.Entry {
	return l.log.WithField("station_id", stationID)
}

// WithError returns an entry carrying the error.
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.log.WithError(err)
}

// LogStartup emits the standard service startup line.
func (l *Logger) LogStartup(service, version string, port int) {
	l.log.WithFields(logrus.Fields{
		"service": service,
		"version": version,
		"port":    port,
	}).Info("Service starting")
}

// LogShutdown emits the standard service shutdown line.
func (l *Logger) LogShutdown(service, reason string) {
	l.log.WithFields(logrus.Fields{
		"service": service,
		"reason":  reason,
	}).Info("Service shutting down")
}

// Logrus exposes the underlying logger for packages that take a
// *logrus.Logger directly.
func (l *Logger) Logrus() *logrus.Logger {
	return l.log
}
