package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/commute-comfort/internal/domain"
	"github.com/couchcryptid/commute-comfort/internal/observability"
)

// PredictionService produces a prediction for one commute period.
type PredictionService interface {
	Predict(ctx context.Context, period domain.Period) (domain.PredictionResult, error)
}

// Sink receives each successfully computed prediction. Delivery failures are
// logged and counted but never abort a cycle or affect other sinks.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, result domain.PredictionResult) error
}

// Entry binds a firing rule to the commute period it predicts for.
type Entry struct {
	Period domain.Period
	Rule   Rule
}

// Scheduler fires prediction cycles per entry on absolute wall-clock targets,
// so firing times stay aligned after clock drift or long cycles.
type Scheduler struct {
	service PredictionService
	entries []Entry
	sinks   []Sink
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics

	mu     sync.RWMutex
	latest map[domain.Period]domain.PredictionResult

	attempted atomic.Bool
	stopOnce  sync.Once
	stopCh    chan struct{}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock swaps the timer source. Tests inject a fake clock for
// deterministic firing.
func WithClock(c clockwork.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// New creates a Scheduler over the given entries and sinks.
func New(service PredictionService, entries []Entry, sinks []Sink, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Scheduler {
	s := &Scheduler{
		service: service,
		entries: entries,
		sinks:   sinks,
		clock:   clockwork.NewRealClock(),
		logger:  logger,
		metrics: metrics,
		latest:  make(map[domain.Period]domain.PredictionResult),
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run blocks until the context is cancelled or Stop is called, firing each
// entry at the instants its rule produces.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "entries", len(s.entries), "sinks", len(s.sinks))
	s.metrics.SchedulerRunning.Set(1)
	defer s.metrics.SchedulerRunning.Set(0)

	var wg sync.WaitGroup
	for _, entry := range s.entries {
		wg.Add(1)
		go func(e Entry) {
			defer wg.Done()
			s.runEntry(ctx, e)
		}(entry)
	}
	wg.Wait()
	s.logger.Info("scheduler stopped")
	return nil
}

// Stop halts all entries. Safe to call more than once; pending timers never
// fire afterwards.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Latest returns the most recent successful prediction for a period, if any.
func (s *Scheduler) Latest(period domain.Period) (domain.PredictionResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.latest[period]
	return result, ok
}

// CheckReadiness returns nil once at least one prediction cycle has been
// attempted, successful or not.
func (s *Scheduler) CheckReadiness(_ context.Context) error {
	if !s.attempted.Load() {
		return errors.New("no prediction cycle attempted yet")
	}
	return nil
}

func (s *Scheduler) runEntry(ctx context.Context, e Entry) {
	for {
		now := s.clock.Now().In(domain.KST)
		next := e.Rule.Next(now)
		timer := s.clock.NewTimer(next.Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.stopCh:
			timer.Stop()
			return
		case <-timer.Chan():
			s.runCycle(ctx, e.Period)
		}
	}
}

// runCycle is best-effort: a failed cycle is logged and the entry simply
// reschedules for its next firing.
func (s *Scheduler) runCycle(ctx context.Context, period domain.Period) {
	defer s.attempted.Store(true)

	logger := s.logger.With("cycle_id", uuid.NewString(), "period", period)
	logger.Info("prediction cycle firing")

	result, err := s.service.Predict(ctx, period)
	if err != nil {
		logger.Error("prediction cycle failed", "error", err)
		return
	}

	s.mu.Lock()
	s.latest[period] = result
	s.mu.Unlock()

	for _, sink := range s.sinks {
		if err := sink.Deliver(ctx, result); err != nil {
			s.metrics.SinkDeliveries.WithLabelValues(sink.Name(), "error").Inc()
			logger.Error("sink delivery failed", "sink", sink.Name(), "error", err)
			continue
		}
		s.metrics.SinkDeliveries.WithLabelValues(sink.Name(), "success").Inc()
	}
}
