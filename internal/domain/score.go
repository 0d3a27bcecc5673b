package domain

import (
	"fmt"
	"math"
)

// Penalty thresholds and rates. The comfort bands and caps are fixed product
// decisions; rates scale the penalty linearly with distance from the band.
const (
	baseScore = 100.0

	tempComfortMinC = 10.0
	tempComfortMaxC = 25.0
	tempColdRate    = 2.5 // penalty per °C below the band
	tempHotRate     = 1.8 // penalty per °C above the band
	tempPenaltyCap  = 40.0

	precipRate       = 5.0 // penalty per mm
	precipPenaltyCap = 35.0

	windComfortMaxMS = 4.0
	windRate         = 3.0 // penalty per m/s of excess
	windPenaltyCap   = 25.0

	humidityComfortMin = 30.0
	humidityComfortMax = 70.0
	humidityRate       = 0.5 // penalty per % point outside the band
	humidityPenaltyCap = 15.0
)

// Score turns a non-empty observation window into a PredictionResult for the
// given period. Fails with ErrInsufficientData on an empty window; the
// engine refuses to score nothing.
func Score(observations []Observation, period Period) (PredictionResult, error) {
	if len(observations) == 0 {
		return PredictionResult{}, fmt.Errorf("score %s: %w", period, ErrInsufficientData)
	}

	breakdowns := make([]ScoreBreakdown, len(observations))
	for i, obs := range observations {
		breakdowns[i] = observationPenalties(obs)
	}
	breakdown := reduceWindow(breakdowns)

	score := clamp(baseScore-breakdown.Total(), 0, baseScore)
	label := labelForScore(score)

	return PredictionResult{
		Score:            score,
		Label:            label,
		Breakdown:        breakdown,
		Message:          messageFor(label, breakdown, dominantPrecipType(observations)),
		TargetPeriod:     period,
		ComputedAt:       clock.Now().In(KST),
		ObservationCount: len(observations),
		DataPeriod:       dataPeriod(observations),
	}, nil
}

// observationPenalties computes the per-factor penalties for one reading.
func observationPenalties(obs Observation) ScoreBreakdown {
	return ScoreBreakdown{
		Temperature:   temperaturePenalty(obs.TemperatureC),
		Precipitation: precipitationPenalty(obs.PrecipitationMM),
		Wind:          windPenalty(obs.WindSpeedMS),
		Humidity:      humidityPenalty(obs.HumidityPct),
	}
}

// reduceWindow collapses per-observation breakdowns into one by taking the
// arithmetic mean of each factor across the window. This is the single place
// the window-reduction policy lives; swapping it (worst-case, latest-only)
// must not touch the per-observation penalty math.
func reduceWindow(breakdowns []ScoreBreakdown) ScoreBreakdown {
	var sum ScoreBreakdown
	for _, b := range breakdowns {
		sum.Temperature += b.Temperature
		sum.Precipitation += b.Precipitation
		sum.Wind += b.Wind
		sum.Humidity += b.Humidity
	}
	n := float64(len(breakdowns))
	return ScoreBreakdown{
		Temperature:   sum.Temperature / n,
		Precipitation: sum.Precipitation / n,
		Wind:          sum.Wind / n,
		Humidity:      sum.Humidity / n,
	}
}

func temperaturePenalty(tempC float64) float64 {
	switch {
	case tempC >= tempComfortMinC && tempC <= tempComfortMaxC:
		return 0
	case tempC < tempComfortMinC:
		return math.Min(tempPenaltyCap, (tempComfortMinC-tempC)*tempColdRate)
	default:
		return math.Min(tempPenaltyCap, (tempC-tempComfortMaxC)*tempHotRate)
	}
}

func precipitationPenalty(mm float64) float64 {
	if mm <= 0 {
		return 0
	}
	return math.Min(precipPenaltyCap, mm*precipRate)
}

func windPenalty(ms float64) float64 {
	if ms <= windComfortMaxMS {
		return 0
	}
	return math.Min(windPenaltyCap, (ms-windComfortMaxMS)*windRate)
}

func humidityPenalty(pct float64) float64 {
	switch {
	case pct >= humidityComfortMin && pct <= humidityComfortMax:
		return 0
	case pct < humidityComfortMin:
		return math.Min(humidityPenaltyCap, (humidityComfortMin-pct)*humidityRate)
	default:
		return math.Min(humidityPenaltyCap, (pct-humidityComfortMax)*humidityRate)
	}
}

// labelForScore buckets a final score: ≥80 perfect, ≥60 comfortable,
// ≥40 moderate, below that uncomfortable.
func labelForScore(score float64) Label {
	switch {
	case score >= 80:
		return LabelPerfect
	case score >= 60:
		return LabelComfortable
	case score >= 40:
		return LabelModerate
	default:
		return LabelUncomfortable
	}
}

// dominantPrecipType reports snow if any observation in the window saw snow,
// rain if any saw rain, otherwise none. Used for message wording only.
func dominantPrecipType(observations []Observation) PrecipType {
	result := PrecipNone
	for _, obs := range observations {
		switch obs.PrecipType {
		case PrecipSnow:
			return PrecipSnow
		case PrecipRain:
			result = PrecipRain
		}
	}
	return result
}

// dataPeriod formats the civil time range the window covers, e.g. "04:00-07:00".
// Observations are newest-first, so the range runs last element → first.
func dataPeriod(observations []Observation) string {
	newest := observations[0].Timestamp.In(KST)
	oldest := observations[len(observations)-1].Timestamp.In(KST)
	return fmt.Sprintf("%s-%s", oldest.Format("15:04"), newest.Format("15:04"))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
