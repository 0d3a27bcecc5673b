// Package mqttsink publishes predictions to an MQTT broker as retained
// messages, so home dashboards and automations receive the latest prediction
// immediately on subscribe.
package mqttsink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/couchcryptid/commute-comfort/internal/domain"
)

// DefaultTopicPrefix is the topic root; the target period is appended, e.g.
// "commute/prediction/morning".
const DefaultTopicPrefix = "commute/prediction"

const publishTimeout = 5 * time.Second

// client is the slice of paho.Client the sink needs. Narrowed so tests can
// substitute a fake without a broker.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// Sink publishes predictions over MQTT. It implements scheduler.Sink.
type Sink struct {
	client      client
	topicPrefix string
	logger      *slog.Logger
}

// NewSink connects to the broker and returns a publishing sink. An empty
// topicPrefix selects the default.
func NewSink(broker, clientID, topicPrefix string, logger *slog.Logger) (*Sink, error) {
	if topicPrefix == "" {
		topicPrefix = DefaultTopicPrefix
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	c := paho.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to mqtt broker: %w", err)
	}

	return &Sink{client: c, topicPrefix: topicPrefix, logger: logger}, nil
}

func (s *Sink) Name() string { return "mqtt" }

// Deliver publishes one prediction, retained at QoS 1.
func (s *Sink) Deliver(_ context.Context, result domain.PredictionResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("serialize prediction: %w", err)
	}

	topic := s.topicPrefix + "/" + string(result.TargetPeriod)
	token := s.client.Publish(topic, 1, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout on %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish prediction: %w", err)
	}

	s.logger.Debug("prediction published", "topic", topic, "score", result.Score)
	return nil
}

// Close disconnects from the broker.
func (s *Sink) Close() error {
	s.client.Disconnect(1000)
	return nil
}
