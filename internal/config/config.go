// Package config loads service settings from the environment. A .env file is
// honored when present (local development); validation failures are fatal at
// startup, never at request time.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all service settings.
type Config struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	KMA      KMAConfig
	Schedule ScheduleConfig
	Kafka    KafkaConfig
	MQTT     MQTTConfig
	Redis    RedisConfig
}

// KMAConfig configures the observation source.
type KMAConfig struct {
	// BaseURL overrides the production endpoint; used by tests and local
	// fixture servers.
	BaseURL       string        `envconfig:"KMA_BASE_URL"`
	AuthKey       string        `envconfig:"KMA_AUTH_KEY" validate:"required"`
	StationID     string        `envconfig:"KMA_STATION_ID" default:"108"` // 108 = Seoul
	Timeout       time.Duration `envconfig:"KMA_TIMEOUT" default:"10s"`
	LookbackHours int           `envconfig:"KMA_LOOKBACK_HOURS" default:"3" validate:"min=1,max=24"`
}

// Lookback returns the observation lookback as a duration.
func (c KMAConfig) Lookback() time.Duration {
	return time.Duration(c.LookbackHours) * time.Hour
}

// ScheduleConfig configures the automatic prediction cycles.
type ScheduleConfig struct {
	Enabled          bool   `envconfig:"SCHEDULE_ENABLED" default:"true"`
	MorningAt        string `envconfig:"SCHEDULE_MORNING_AT" default:"07:00"`
	EveningStartHour int    `envconfig:"SCHEDULE_EVENING_START_HOUR" default:"14" validate:"min=0,max=23"`
	EveningEndHour   int    `envconfig:"SCHEDULE_EVENING_END_HOUR" default:"18" validate:"min=1,max=24"`

	// Parsed from MorningAt during Load.
	MorningHour   int `ignored:"true"`
	MorningMinute int `ignored:"true"`
}

// KafkaConfig configures the optional Kafka prediction sink.
type KafkaConfig struct {
	Enabled bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	Brokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	Topic   string   `envconfig:"KAFKA_TOPIC" default:"commute-predictions"`
}

// MQTTConfig configures the optional MQTT prediction sink.
type MQTTConfig struct {
	Enabled     bool   `envconfig:"MQTT_ENABLED" default:"false"`
	Broker      string `envconfig:"MQTT_BROKER" default:"tcp://localhost:1883"`
	ClientID    string `envconfig:"MQTT_CLIENT_ID" default:"commute-comfort"`
	TopicPrefix string `envconfig:"MQTT_TOPIC_PREFIX" default:"commute/prediction"`
}

// RedisConfig configures the optional shared latest-prediction store.
type RedisConfig struct {
	Enabled  bool          `envconfig:"REDIS_ENABLED" default:"false"`
	Addr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	TTL      time.Duration `envconfig:"REDIS_TTL" default:"24h"`
}

// Load reads, defaults, and validates the configuration.
func Load() (*Config, error) {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// finish applies the cross-field checks envconfig and validator tags cannot
// express.
func (c *Config) finish() error {
	at, err := time.Parse("15:04", c.Schedule.MorningAt)
	if err != nil {
		return fmt.Errorf("SCHEDULE_MORNING_AT %q: want HH:MM", c.Schedule.MorningAt)
	}
	c.Schedule.MorningHour = at.Hour()
	c.Schedule.MorningMinute = at.Minute()

	if c.Schedule.EveningStartHour >= c.Schedule.EveningEndHour {
		return fmt.Errorf("SCHEDULE_EVENING_START_HOUR (%d) must be before SCHEDULE_EVENING_END_HOUR (%d)",
			c.Schedule.EveningStartHour, c.Schedule.EveningEndHour)
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if c.Kafka.Enabled && c.Kafka.Topic == "" {
		return errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is empty")
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return errors.New("MQTT_ENABLED is true but MQTT_BROKER is empty")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errors.New("REDIS_ENABLED is true but REDIS_ADDR is empty")
	}
	return nil
}
