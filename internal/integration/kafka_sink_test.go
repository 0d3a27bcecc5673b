//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkasink "github.com/couchcryptid/commute-comfort/internal/adapter/kafka"
	"github.com/couchcryptid/commute-comfort/internal/domain"
)

const testTopic = "commute-predictions-test"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka launches a single-node Kafka container and returns its broker
// address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestKafkaSinkRoundTrip verifies a delivered prediction arrives on the topic
// with the period key and metadata headers intact.
func TestKafkaSinkRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	sink := kafkasink.NewSink([]string{broker}, testTopic, discardLogger())
	t.Cleanup(func() { _ = sink.Close() })

	computedAt := time.Date(2024, 8, 29, 7, 0, 0, 0, domain.KST)
	sent := domain.PredictionResult{
		Score:            87.5,
		Label:            domain.LabelPerfect,
		Breakdown:        domain.ScoreBreakdown{Temperature: 9, Humidity: 3.5},
		Message:          "완벽한 출퇴근 날씨입니다! ☀️",
		TargetPeriod:     domain.PeriodMorning,
		ComputedAt:       computedAt,
		ObservationCount: 4,
		DataPeriod:       "04:00-07:00",
	}
	require.NoError(t, sink.Deliver(ctx, sent))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: []string{broker},
		Topic:   testTopic,
		GroupID: fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, cancelRead := context.WithTimeout(ctx, 30*time.Second)
	defer cancelRead()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from prediction topic")

	assert.Equal(t, []byte("morning"), msg.Key)

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "morning", headers["target_period"])
	assert.Equal(t, computedAt.Format(time.RFC3339), headers["computed_at"])

	var received domain.PredictionResult
	require.NoError(t, json.Unmarshal(msg.Value, &received))
	assert.Equal(t, sent.Score, received.Score)
	assert.Equal(t, sent.Label, received.Label)
	assert.Equal(t, sent.Breakdown, received.Breakdown)
	assert.Equal(t, sent.Message, received.Message)
	assert.True(t, sent.ComputedAt.Equal(received.ComputedAt))
}
