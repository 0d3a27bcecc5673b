package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/commute-comfort/internal/adapter/httpapi"
	kafkasink "github.com/couchcryptid/commute-comfort/internal/adapter/kafka"
	"github.com/couchcryptid/commute-comfort/internal/adapter/kma"
	"github.com/couchcryptid/commute-comfort/internal/adapter/mqttsink"
	"github.com/couchcryptid/commute-comfort/internal/adapter/redisstore"
	"github.com/couchcryptid/commute-comfort/internal/config"
	"github.com/couchcryptid/commute-comfort/internal/domain"
	"github.com/couchcryptid/commute-comfort/internal/observability"
	"github.com/couchcryptid/commute-comfort/internal/pipeline"
	"github.com/couchcryptid/commute-comfort/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	client := kma.NewClient(cfg.KMA.BaseURL, cfg.KMA.AuthKey, cfg.KMA.StationID, cfg.KMA.Timeout, logger, metrics)
	predictor := pipeline.New(client, cfg.KMA.Lookback(), logger, metrics)

	var store *redisstore.Store
	if cfg.Redis.Enabled {
		store, err = redisstore.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL, logger)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		logger.Info("redis store enabled", "addr", cfg.Redis.Addr)
	}

	sinks, closers, err := buildSinks(cfg, store, logger)
	if err != nil {
		logger.Error("failed to initialize sinks", "error", err)
		os.Exit(1)
	}

	sched := scheduler.New(predictor, scheduleEntries(cfg), sinks, logger, metrics)

	// The store, when enabled, also backs /prediction/latest across restarts.
	var latestStore httpapi.StoreLatest
	if store != nil {
		latestStore = store
	}
	latest := httpapi.NewFallbackLatest(sched, latestStore, logger)
	srv := httpapi.NewServer(cfg.HTTPAddr, predictor, latest, sched, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start scheduler.
	go func() {
		if err := sched.Run(ctx); err != nil {
			logger.Error("scheduler error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	sched.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	for _, closer := range closers {
		if err := closer.Close(); err != nil {
			logger.Error("sink close error", "error", err)
		}
	}
	logger.Info("shutdown complete")
}

// buildSinks assembles the enabled delivery sinks. The log sink is always
// present so predictions stay visible with everything else disabled.
func buildSinks(cfg *config.Config, store *redisstore.Store, logger *slog.Logger) ([]scheduler.Sink, []interface{ Close() error }, error) {
	sinks := []scheduler.Sink{scheduler.NewLogSink(logger)}
	var closers []interface{ Close() error }

	if cfg.Kafka.Enabled {
		sink := kafkasink.NewSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		sinks = append(sinks, sink)
		closers = append(closers, sink)
		logger.Info("kafka sink enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	if cfg.MQTT.Enabled {
		sink, err := mqttsink.NewSink(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.TopicPrefix, logger)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, sink)
		closers = append(closers, sink)
		logger.Info("mqtt sink enabled", "broker", cfg.MQTT.Broker)
	}
	if store != nil {
		sinks = append(sinks, store)
		closers = append(closers, store)
	}
	return sinks, closers, nil
}

// scheduleEntries derives the firing rules from configuration: one morning
// run plus hourly afternoon runs for the evening commute.
func scheduleEntries(cfg *config.Config) []scheduler.Entry {
	if !cfg.Schedule.Enabled {
		return nil
	}
	return []scheduler.Entry{
		{
			Period: domain.PeriodMorning,
			Rule:   scheduler.DailyAt{Hour: cfg.Schedule.MorningHour, Minute: cfg.Schedule.MorningMinute},
		},
		{
			Period: domain.PeriodEvening,
			Rule:   scheduler.HourlyBetween{Start: cfg.Schedule.EveningStartHour, End: cfg.Schedule.EveningEndHour},
		},
	}
}
