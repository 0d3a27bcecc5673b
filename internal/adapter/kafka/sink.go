package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/commute-comfort/internal/domain"
)

// Sink publishes predictions to a Kafka topic, keyed by target period so
// consumers compacting the topic keep the latest prediction per commute.
// It implements scheduler.Sink.
type Sink struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewSink creates a Kafka producer for the prediction topic.
func NewSink(brokers []string, topic string, logger *slog.Logger) *Sink {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Sink{writer: w, logger: logger}
}

func (s *Sink) Name() string { return "kafka" }

// Deliver serializes and publishes one prediction.
func (s *Sink) Deliver(ctx context.Context, result domain.PredictionResult) error {
	msg, err := serializeToMessage(result)
	if err != nil {
		return err
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write prediction message: %w", err)
	}
	s.logger.Debug("prediction published", "topic", s.writer.Topic, "period", result.TargetPeriod)
	return nil
}

func (s *Sink) Close() error {
	return s.writer.Close()
}

// serializeToMessage marshals a PredictionResult into a Kafka message.
func serializeToMessage(result domain.PredictionResult) (kafkago.Message, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize prediction: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(result.TargetPeriod),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "target_period", Value: []byte(result.TargetPeriod)},
			{Key: "computed_at", Value: []byte(result.ComputedAt.Format(time.RFC3339))},
		},
	}, nil
}
