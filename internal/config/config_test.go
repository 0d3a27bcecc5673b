package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAuthKey = "test-auth-key"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("KMA_AUTH_KEY", testAuthKey)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	assert.Equal(t, testAuthKey, cfg.KMA.AuthKey)
	assert.Equal(t, "108", cfg.KMA.StationID)
	assert.Equal(t, 10*time.Second, cfg.KMA.Timeout)
	assert.Equal(t, 3*time.Hour, cfg.KMA.Lookback())

	assert.True(t, cfg.Schedule.Enabled)
	assert.Equal(t, 7, cfg.Schedule.MorningHour)
	assert.Equal(t, 0, cfg.Schedule.MorningMinute)
	assert.Equal(t, 14, cfg.Schedule.EveningStartHour)
	assert.Equal(t, 18, cfg.Schedule.EveningEndHour)

	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "commute-predictions", cfg.Kafka.Topic)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KMA_AUTH_KEY", testAuthKey)
	t.Setenv("KMA_STATION_ID", "112")
	t.Setenv("KMA_LOOKBACK_HOURS", "6")
	t.Setenv("SCHEDULE_MORNING_AT", "06:30")
	t.Setenv("SCHEDULE_EVENING_START_HOUR", "15")
	t.Setenv("SCHEDULE_EVENING_END_HOUR", "19")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "predictions")
	t.Setenv("MQTT_ENABLED", "true")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "112", cfg.KMA.StationID)
	assert.Equal(t, 6*time.Hour, cfg.KMA.Lookback())
	assert.Equal(t, 6, cfg.Schedule.MorningHour)
	assert.Equal(t, 30, cfg.Schedule.MorningMinute)
	assert.Equal(t, 15, cfg.Schedule.EveningStartHour)
	assert.Equal(t, 19, cfg.Schedule.EveningEndHour)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "predictions", cfg.Kafka.Topic)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			"missing auth key",
			map[string]string{},
		},
		{
			"bad morning time",
			map[string]string{"SCHEDULE_MORNING_AT": "7 o'clock"},
		},
		{
			"inverted evening range",
			map[string]string{"SCHEDULE_EVENING_START_HOUR": "18", "SCHEDULE_EVENING_END_HOUR": "14"},
		},
		{
			"unknown log level",
			map[string]string{"LOG_LEVEL": "verbose"},
		},
		{
			"unknown log format",
			map[string]string{"LOG_FORMAT": "xml"},
		},
		{
			"lookback too large",
			map[string]string{"KMA_LOOKBACK_HOURS": "48"},
		},
		{
			"mqtt enabled without broker",
			map[string]string{"MQTT_ENABLED": "true", "MQTT_BROKER": ""},
		},
		{
			"redis enabled without addr",
			map[string]string{"REDIS_ENABLED": "true", "REDIS_ADDR": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.name != "missing auth key" {
				t.Setenv("KMA_AUTH_KEY", testAuthKey)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
