package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/commute-comfort/internal/domain"
	"github.com/couchcryptid/commute-comfort/internal/observability"
)

// Fetcher retrieves raw typ01 observation text covering the trailing span.
type Fetcher interface {
	FetchRecent(ctx context.Context, span time.Duration) (string, error)
}

// Predictor orchestrates one fetch-normalize-select-score cycle per request.
// Stateless between calls; safe for concurrent use.
type Predictor struct {
	fetcher  Fetcher
	lookback time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates a Predictor. A non-positive lookback means the default trailing
// window.
func New(fetcher Fetcher, lookback time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Predictor {
	if lookback <= 0 {
		lookback = domain.DefaultLookback
	}
	return &Predictor{
		fetcher:  fetcher,
		lookback: lookback,
		logger:   logger,
		metrics:  metrics,
	}
}

// Predict produces a comfort prediction for the given commute period. Errors
// preserve their cause: callers can errors.Is/As for ErrInsufficientData,
// *NormalizationError, and *FetchError.
func (p *Predictor) Predict(ctx context.Context, period domain.Period) (domain.PredictionResult, error) {
	start := time.Now()
	now := domain.Now()

	payload, err := p.fetcher.FetchRecent(ctx, domain.LookbackFor(period, now, p.lookback))
	if err != nil {
		p.metrics.CyclesTotal.WithLabelValues(string(period), "fetch_error").Inc()
		p.logger.Error("observation fetch failed", "period", period, "error", err)
		return domain.PredictionResult{}, err
	}

	observations, err := domain.NormalizeTyp01(payload)
	if err != nil {
		p.metrics.CyclesTotal.WithLabelValues(string(period), "normalize_error").Inc()
		p.logger.Error("observation payload unusable", "period", period, "error", err)
		return domain.PredictionResult{}, err
	}

	window, err := domain.SelectWindow(observations, now, period, p.lookback)
	if err != nil {
		p.metrics.CyclesTotal.WithLabelValues(string(period), "no_data").Inc()
		p.logger.Warn("no observations in window", "period", period, "available", len(observations))
		return domain.PredictionResult{}, err
	}

	result, err := domain.Score(window, period)
	if err != nil {
		// Score only fails on an empty window, which SelectWindow already
		// rules out; kept as a guard.
		p.metrics.CyclesTotal.WithLabelValues(string(period), "no_data").Inc()
		return domain.PredictionResult{}, err
	}

	p.metrics.CyclesTotal.WithLabelValues(string(period), "success").Inc()
	p.metrics.CycleDuration.WithLabelValues(string(period)).Observe(time.Since(start).Seconds())
	p.metrics.PredictionScore.WithLabelValues(string(period)).Set(result.Score)

	p.logger.Info("prediction computed",
		"period", period,
		"score", result.Score,
		"label", result.Label,
		"observations", result.ObservationCount,
		"data_period", result.DataPeriod,
	)
	return result, nil
}
