// Package redisstore keeps the latest prediction per period in Redis, giving
// API replicas a shared answer for "what was the last prediction" across
// restarts.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/couchcryptid/commute-comfort/internal/domain"
)

const keyPrefix = "prediction:latest:"

// DefaultTTL keeps stale predictions from outliving their usefulness; a
// commute prediction older than a day answers nothing.
const DefaultTTL = 24 * time.Hour

// Store persists the latest prediction per period. It implements
// scheduler.Sink for writes and serves reads for the HTTP API.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New connects to Redis and verifies the connection. A non-positive ttl means
// DefaultTTL.
func New(addr, password string, db int, ttl time.Duration, logger *slog.Logger) (*Store, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	client := redis.NewClient(&redis.Options{
		Addr:       addr,
		Password:   password,
		DB:         db,
		MaxRetries: 3,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return &Store{client: client, ttl: ttl, logger: logger}, nil
}

func (s *Store) Name() string { return "redis" }

// Deliver stores one prediction under its period key.
func (s *Store) Deliver(ctx context.Context, result domain.PredictionResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("serialize prediction: %w", err)
	}
	if err := s.client.Set(ctx, predictionKey(result.TargetPeriod), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store prediction: %w", err)
	}
	return nil
}

// Latest returns the stored prediction for a period. The second return is
// false when none is stored or it has expired.
func (s *Store) Latest(ctx context.Context, period domain.Period) (domain.PredictionResult, bool, error) {
	val, err := s.client.Get(ctx, predictionKey(period)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.PredictionResult{}, false, nil
	}
	if err != nil {
		return domain.PredictionResult{}, false, fmt.Errorf("load prediction: %w", err)
	}

	var result domain.PredictionResult
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		return domain.PredictionResult{}, false, fmt.Errorf("decode stored prediction: %w", err)
	}
	return result, true, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func predictionKey(period domain.Period) string {
	return keyPrefix + string(period)
}
