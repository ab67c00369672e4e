package logging

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// New creates the application logger. Production environments get JSON
// output for log aggregation; everything else stays human-readable.
func New(logLevel, environment string) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(parseLevel(logLevel))

	if strings.EqualFold(environment, "production") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

func parseLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}

// WithStage returns an entry tagged with the pipeline stage name.
func WithStage(logger *logrus.Logger, stage string) *logrus.Entry {
	return logger.WithField("stage", stage)
}

// WithAthlete returns an entry tagged with the athlete being analyzed.
func WithAthlete(logger *logrus.Logger, athleteID string) *logrus.Entry {
	return logger.WithField("athlete_id", athleteID)
}
