package domain

import (
	"fmt"
	"time"
)

// KST is the fixed civil timezone all commute logic runs in. Asia/Seoul has
// no DST, so a fixed UTC+9 zone is an exact fallback when tzdata is absent.
var KST = loadKST()

func loadKST() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// Period identifies which commute window a prediction targets.
type Period string

const (
	PeriodNow     Period = "now"
	PeriodMorning Period = "morning"
	PeriodEvening Period = "evening"
)

// ParsePeriod validates a user-supplied period string.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodNow, PeriodMorning, PeriodEvening:
		return Period(s), nil
	default:
		return "", fmt.Errorf("unknown period %q (want now, morning or evening)", s)
	}
}

// PrecipType classifies precipitation for message text. It never affects
// scoring.
type PrecipType string

const (
	PrecipNone PrecipType = "none"
	PrecipRain PrecipType = "rain"
	PrecipSnow PrecipType = "snow"
)

// snowTempThresholdC: precipitation observed at or below this temperature is
// reported as snow.
const snowTempThresholdC = 2.0

// Observation is one normalized hourly weather reading. Immutable once
// produced by a normalizer; selectors and the score engine never mutate it.
type Observation struct {
	// Timestamp is hour-aligned in KST.
	Timestamp       time.Time  `json:"timestamp"`
	TemperatureC    float64    `json:"temperature_c"`
	PrecipitationMM float64    `json:"precipitation_mm"`
	WindSpeedMS     float64    `json:"wind_speed_ms"`
	HumidityPct     float64    `json:"humidity_pct"`
	PrecipType      PrecipType `json:"precipitation_type,omitempty"`

	// Clamped records that at least one source value was outside its
	// physically plausible range and was clamped during normalization.
	Clamped bool `json:"clamped,omitempty"`
}

// Label buckets a final score into a user-facing comfort level.
type Label string

const (
	LabelPerfect       Label = "perfect"
	LabelComfortable   Label = "comfortable"
	LabelModerate      Label = "moderate"
	LabelUncomfortable Label = "uncomfortable"
)

// Factor names one scored weather dimension.
type Factor string

const (
	FactorTemperature   Factor = "temperature"
	FactorPrecipitation Factor = "precipitation"
	FactorWind          Factor = "wind"
	FactorHumidity      Factor = "humidity"
)

// ScoreBreakdown holds the non-negative penalty attributed to each factor.
// The sum of all four never exceeds 100 (caps 40+35+25+15 = 115, but the
// final score clamps at 0 and each field is individually capped).
type ScoreBreakdown struct {
	Temperature   float64 `json:"temperature"`
	Precipitation float64 `json:"precipitation"`
	Wind          float64 `json:"wind"`
	Humidity      float64 `json:"humidity"`
}

// Total is the summed penalty across all factors.
func (b ScoreBreakdown) Total() float64 {
	return b.Temperature + b.Precipitation + b.Wind + b.Humidity
}

// Dominant returns the factor with the largest penalty. Ties resolve in the
// fixed factor order temperature, precipitation, wind, humidity.
func (b ScoreBreakdown) Dominant() (Factor, float64) {
	factor, penalty := FactorTemperature, b.Temperature
	if b.Precipitation > penalty {
		factor, penalty = FactorPrecipitation, b.Precipitation
	}
	if b.Wind > penalty {
		factor, penalty = FactorWind, b.Wind
	}
	if b.Humidity > penalty {
		factor, penalty = FactorHumidity, b.Humidity
	}
	return factor, penalty
}

// PredictionResult is one scored commute window. Created per invocation and
// never mutated afterwards.
type PredictionResult struct {
	Score        float64        `json:"score"`
	Label        Label          `json:"label"`
	Breakdown    ScoreBreakdown `json:"breakdown"`
	Message      string         `json:"message"`
	TargetPeriod Period         `json:"target_period"`
	ComputedAt   time.Time      `json:"computed_at"`

	// ObservationCount and DataPeriod describe the window the score was
	// derived from, e.g. 3 readings spanning "04:00-07:00".
	ObservationCount int    `json:"observation_count,omitempty"`
	DataPeriod       string `json:"data_period,omitempty"`
}
