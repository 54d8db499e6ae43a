// Package logging provides a wrapper around logrus for structured logging.
package logging

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// New creates a configured logger. Development runs get colored text output;
// everything else logs JSON for machine consumption. Logs go to stderr so
// stdout stays clean for command output.
func New(environment, logLevel string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logger.Warnf("Invalid log level '%s', defaulting to info", logLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if environment == "development" {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	}

	return logger
}
