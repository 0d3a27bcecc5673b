package scheduler

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/commute-comfort/internal/domain"
)

// LogSink writes the human-readable commute report to the service log. Always
// configured as the sink of last resort so every prediction is visible even
// with all external sinks disabled.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(_ context.Context, result domain.PredictionResult) error {
	s.logger.Info("commute report",
		"period", result.TargetPeriod,
		"score", result.Score,
		"label", result.Label,
		"report", domain.FormatReport(result),
	)
	return nil
}
