// Command predict computes a one-off commute comfort prediction and prints
// the human-readable report.
//
// Usage:
//
//	KMA_AUTH_KEY=... go run ./cmd/predict -period morning
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/couchcryptid/commute-comfort/internal/adapter/kma"
	"github.com/couchcryptid/commute-comfort/internal/config"
	"github.com/couchcryptid/commute-comfort/internal/domain"
	"github.com/couchcryptid/commute-comfort/internal/observability"
	"github.com/couchcryptid/commute-comfort/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	periodFlag := flag.String("period", "now", "commute period to score: now, morning, evening")
	timeout := flag.Duration("timeout", 30*time.Second, "overall request timeout")
	flag.Parse()

	period, err := domain.ParsePeriod(*periodFlag)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Keep stdout clean for the report; only surface real problems.
	logger := observability.NewLogger("error", "text")
	metrics := observability.NewMetrics()

	client := kma.NewClient(cfg.KMA.BaseURL, cfg.KMA.AuthKey, cfg.KMA.StationID, cfg.KMA.Timeout, logger, metrics)
	predictor := pipeline.New(client, cfg.KMA.Lookback(), logger, metrics)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := predictor.Predict(ctx, period)
	if err != nil {
		return err
	}

	fmt.Println(domain.FormatReport(result))
	return nil
}
