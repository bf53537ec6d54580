// Package logging builds the zap loggers used by the jobscraper commands and
// provides the scoping helpers the engine attaches per run and per firm.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger from the logging.* config tree. Development
// mode uses the console encoder with colored levels; production emits JSON.
// Every entry carries the app field so scraper logs stay separable when
// shipped alongside other collectors.
func New(development bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = false
	if development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	logger, err := cfg.Build(zap.Fields(zap.String("app", "jobscraper")))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// WithRun scopes a logger to one scrape run.
func WithRun(logger *zap.Logger, runID string) *zap.Logger {
	return logger.With(zap.String("run_id", runID))
}

// WithFirm scopes a logger to one site target.
func WithFirm(logger *zap.Logger, firm string) *zap.Logger {
	return logger.With(zap.String("firm", firm))
}
