package httpapi

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/commute-comfort/internal/domain"
)

// CacheLatest is the scheduler's in-memory latest-result accessor.
type CacheLatest interface {
	Latest(period domain.Period) (domain.PredictionResult, bool)
}

// StoreLatest is a durable latest-result store. An absent result is
// (zero, false, nil); an error means the store could not answer.
type StoreLatest interface {
	Latest(ctx context.Context, period domain.Period) (domain.PredictionResult, bool, error)
}

// FallbackLatest answers from the scheduler's in-memory cache first and
// falls back to the durable store, so a freshly restarted replica can serve
// the last prediction before its first scheduled cycle completes. A nil
// store means in-memory only.
type FallbackLatest struct {
	cache  CacheLatest
	store  StoreLatest
	logger *slog.Logger
}

func NewFallbackLatest(cache CacheLatest, store StoreLatest, logger *slog.Logger) *FallbackLatest {
	return &FallbackLatest{cache: cache, store: store, logger: logger}
}

func (f *FallbackLatest) Latest(ctx context.Context, period domain.Period) (domain.PredictionResult, bool) {
	if result, ok := f.cache.Latest(period); ok {
		return result, true
	}
	if f.store == nil {
		return domain.PredictionResult{}, false
	}

	result, ok, err := f.store.Latest(ctx, period)
	if err != nil {
		// A broken store degrades to "nothing yet", it never fails the request.
		f.logger.Warn("stored prediction lookup failed", "period", period, "error", err)
		return domain.PredictionResult{}, false
	}
	return result, ok
}
