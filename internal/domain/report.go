package domain

import (
	"fmt"
	"strings"
)

// Localized display strings live here, keyed by the internal enums, so the
// scoring logic stays language-free.

var labelMessages = map[Label]string{
	LabelPerfect:       "완벽한 출퇴근 날씨입니다! ☀️",
	LabelComfortable:   "쾌적한 출퇴근길이 예상됩니다. 😊",
	LabelModerate:      "보통 수준의 날씨입니다. 🌤️",
	LabelUncomfortable: "불편한 날씨가 예상됩니다. 준비하세요! 🌧️",
}

var labelNamesKo = map[Label]string{
	LabelPerfect:       "완벽",
	LabelComfortable:   "쾌적",
	LabelModerate:      "보통",
	LabelUncomfortable: "불편",
}

var factorNamesKo = map[Factor]string{
	FactorTemperature:   "온도",
	FactorPrecipitation: "강수",
	FactorWind:          "바람",
	FactorHumidity:      "습도",
}

var periodNamesKo = map[Period]string{
	PeriodNow:     "현재",
	PeriodMorning: "출근길",
	PeriodEvening: "퇴근길",
}

// messageFor renders the fixed per-label message; for moderate and
// uncomfortable labels it also names the dominant penalty factor.
func messageFor(label Label, breakdown ScoreBreakdown, precip PrecipType) string {
	msg := labelMessages[label]
	if label != LabelModerate && label != LabelUncomfortable {
		return msg
	}
	factor, penalty := breakdown.Dominant()
	if penalty <= 0 {
		return msg
	}
	return fmt.Sprintf("%s 주요 감점 요인: %s (-%.1f점)", msg, factorNameFor(factor, precip), penalty)
}

// factorNameFor refines "강수" into rain or snow when precipitation dominates.
func factorNameFor(factor Factor, precip PrecipType) string {
	if factor == FactorPrecipitation {
		switch precip {
		case PrecipSnow:
			return "눈"
		case PrecipRain:
			return "비"
		}
	}
	return factorNamesKo[factor]
}

// FormatReport renders a PredictionResult as the human-readable report shown
// by the CLI and the log sink.
func FormatReport(result PredictionResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== 출퇴근길 쾌적지수 예측 ===\n")
	fmt.Fprintf(&b, "예측 시간: %s\n", result.ComputedAt.In(KST).Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "대상: %s\n", periodNamesKo[result.TargetPeriod])
	if result.DataPeriod != "" {
		fmt.Fprintf(&b, "데이터 기간: %s\n", result.DataPeriod)
	}
	if result.ObservationCount > 0 {
		fmt.Fprintf(&b, "관측 데이터 수: %d개\n", result.ObservationCount)
	}
	fmt.Fprintf(&b, "\n🌟 쾌적지수: %.1f/100 (%s)\n", result.Score, labelNamesKo[result.Label])
	fmt.Fprintf(&b, "\n📊 세부 점수:\n")
	fmt.Fprintf(&b, "- 온도: -%.1f점\n", result.Breakdown.Temperature)
	fmt.Fprintf(&b, "- 강수: -%.1f점\n", result.Breakdown.Precipitation)
	fmt.Fprintf(&b, "- 바람: -%.1f점\n", result.Breakdown.Wind)
	fmt.Fprintf(&b, "- 습도: -%.1f점\n", result.Breakdown.Humidity)
	fmt.Fprintf(&b, "\n💡 한줄 평가: %s", result.Message)
	return b.String()
}
