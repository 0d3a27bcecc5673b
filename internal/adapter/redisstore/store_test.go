package redisstore

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/commute-comfort/internal/domain"
)

func TestPredictionKey(t *testing.T) {
	assert.Equal(t, "prediction:latest:morning", predictionKey(domain.PeriodMorning))
	assert.Equal(t, "prediction:latest:evening", predictionKey(domain.PeriodEvening))
	assert.Equal(t, "prediction:latest:now", predictionKey(domain.PeriodNow))
}

func TestStoredPredictionRoundTrip(t *testing.T) {
	original := domain.PredictionResult{
		Score:            72.5,
		Label:            domain.LabelComfortable,
		Breakdown:        domain.ScoreBreakdown{Temperature: 18, Wind: 9.5},
		Message:          "쾌적한 출퇴근길이 예상됩니다. 😊",
		TargetPeriod:     domain.PeriodMorning,
		ComputedAt:       time.Date(2024, 8, 29, 7, 0, 0, 0, domain.KST),
		ObservationCount: 4,
		DataPeriod:       "04:00-07:00",
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var restored domain.PredictionResult
	require.NoError(t, json.Unmarshal(data, &restored))

	assert.Equal(t, original.Score, restored.Score)
	assert.Equal(t, original.Label, restored.Label)
	assert.Equal(t, original.Breakdown, restored.Breakdown)
	assert.Equal(t, original.Message, restored.Message)
	assert.Equal(t, original.TargetPeriod, restored.TargetPeriod)
	assert.True(t, original.ComputedAt.Equal(restored.ComputedAt))
	assert.Equal(t, original.ObservationCount, restored.ObservationCount)
	assert.Equal(t, original.DataPeriod, restored.DataPeriod)
}
