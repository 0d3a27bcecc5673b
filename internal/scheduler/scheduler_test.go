package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/commute-comfort/internal/domain"
	"github.com/couchcryptid/commute-comfort/internal/observability"
)

// --- mocks ---

type mockService struct {
	mu     sync.Mutex
	calls  []domain.Period
	result domain.PredictionResult
	err    error
}

func (m *mockService) Predict(_ context.Context, period domain.Period) (domain.PredictionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, period)
	if m.err != nil {
		return domain.PredictionResult{}, m.err
	}
	result := m.result
	result.TargetPeriod = period
	return result, nil
}

func (m *mockService) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockSink struct {
	name string
	err  error

	mu        sync.Mutex
	delivered []domain.PredictionResult
}

func (m *mockSink) Name() string { return m.name }

func (m *mockSink) Deliver(_ context.Context, result domain.PredictionResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.delivered = append(m.delivered, result)
	return nil
}

func (m *mockSink) deliveredCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.delivered)
}

// --- tests ---

func newTestScheduler(t *testing.T, service *mockService, sinks []Sink, entries []Entry, start time.Time) (*Scheduler, *clockwork.FakeClock) {
	t.Helper()
	fake := clockwork.NewFakeClockAt(start)
	s := New(service, entries, sinks, slog.Default(), observability.NewMetricsForTesting(), WithClock(fake))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = s.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return s, fake
}

func TestScheduler_FiresOnSchedule(t *testing.T) {
	service := &mockService{result: domain.PredictionResult{Score: 95, Label: domain.LabelPerfect}}
	sink := &mockSink{name: "test"}

	entries := []Entry{{Period: domain.PeriodMorning, Rule: DailyAt{Hour: 7}}}
	s, fake := newTestScheduler(t, service, []Sink{sink}, entries, at(29, 6, 59))

	require.NoError(t, fake.BlockUntilContext(context.Background(), 1))
	fake.Advance(2 * time.Minute)

	require.Eventually(t, func() bool {
		_, ok := s.Latest(domain.PeriodMorning)
		return ok
	}, time.Second, 5*time.Millisecond)

	result, ok := s.Latest(domain.PeriodMorning)
	require.True(t, ok)
	assert.Equal(t, 95.0, result.Score)
	assert.Equal(t, domain.PeriodMorning, result.TargetPeriod)
	assert.Equal(t, 1, sink.deliveredCount())
	assert.NoError(t, s.CheckReadiness(context.Background()))
}

func TestScheduler_FailedCycleReschedules(t *testing.T) {
	service := &mockService{err: errors.New("upstream down")}

	entries := []Entry{{Period: domain.PeriodEvening, Rule: HourlyBetween{Start: 14, End: 18}}}
	s, fake := newTestScheduler(t, service, nil, entries, at(29, 13, 59))

	require.NoError(t, fake.BlockUntilContext(context.Background(), 1))
	fake.Advance(2 * time.Minute) // past 14:00

	require.Eventually(t, func() bool { return service.callCount() == 1 }, time.Second, 5*time.Millisecond)

	// A failed cycle still flips readiness and still reschedules.
	assert.NoError(t, s.CheckReadiness(context.Background()))
	_, ok := s.Latest(domain.PeriodEvening)
	assert.False(t, ok)

	require.NoError(t, fake.BlockUntilContext(context.Background(), 1))
	fake.Advance(time.Hour) // past 15:00

	require.Eventually(t, func() bool { return service.callCount() == 2 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_SinkFailureDoesNotAbortOthers(t *testing.T) {
	service := &mockService{result: domain.PredictionResult{Score: 70}}
	broken := &mockSink{name: "broken", err: errors.New("publish failed")}
	healthy := &mockSink{name: "healthy"}

	entries := []Entry{{Period: domain.PeriodNow, Rule: DailyAt{Hour: 12}}}
	_, fake := newTestScheduler(t, service, []Sink{broken, healthy}, entries, at(29, 11, 59))

	require.NoError(t, fake.BlockUntilContext(context.Background(), 1))
	fake.Advance(2 * time.Minute)

	require.Eventually(t, func() bool { return healthy.deliveredCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, broken.deliveredCount())
}

func TestScheduler_StopPreventsFurtherFiring(t *testing.T) {
	service := &mockService{result: domain.PredictionResult{Score: 50}}

	entries := []Entry{{Period: domain.PeriodMorning, Rule: DailyAt{Hour: 7}}}
	s, fake := newTestScheduler(t, service, nil, entries, at(29, 6, 0))

	require.NoError(t, fake.BlockUntilContext(context.Background(), 1))
	s.Stop()
	s.Stop() // idempotent

	fake.Advance(48 * time.Hour)
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, service.callCount())
}

func TestScheduler_NotReadyBeforeFirstCycle(t *testing.T) {
	service := &mockService{}

	entries := []Entry{{Period: domain.PeriodMorning, Rule: DailyAt{Hour: 7}}}
	s, _ := newTestScheduler(t, service, nil, entries, at(29, 6, 0))

	assert.Error(t, s.CheckReadiness(context.Background()))
}
