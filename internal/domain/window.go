package domain

import (
	"fmt"
	"time"
)

// DefaultLookback is the trailing span of observations scored for the
// now/morning periods.
const DefaultLookback = 3 * time.Hour

// Evening commutes are scored from the fixed civil range [14:00, 17:00) of
// the current day, regardless of lookback.
const (
	eveningStartHour = 14
	eveningEndHour   = 17
)

// TruncateToHour aligns a wall-clock instant with the hourly observation
// grid: the start of its containing hour in KST. Truncation, not rounding:
// 10:59 belongs to hour 10:00.
func TruncateToHour(t time.Time) time.Time {
	t = t.In(KST)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, KST)
}

// SelectWindow returns the newest-first subsequence of observations relevant
// to the requested period, anchored at now. Pure: the only clock it sees is
// the now argument.
//
// For PeriodNow and PeriodMorning the window is
// [truncated-now − lookback, truncated-now], both ends inclusive; a
// non-positive lookback means DefaultLookback. For PeriodEvening the window
// is the observations whose civil hour falls in [14:00, 17:00) on the same
// calendar day as now, independent of lookback.
//
// An empty selection returns an error wrapping ErrInsufficientData.
func SelectWindow(observations []Observation, now time.Time, period Period, lookback time.Duration) ([]Observation, error) {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	anchor := TruncateToHour(now)

	var selected []Observation
	switch period {
	case PeriodEvening:
		for _, obs := range observations {
			ts := obs.Timestamp.In(KST)
			if !sameCivilDay(ts, anchor) {
				continue
			}
			if ts.Hour() >= eveningStartHour && ts.Hour() < eveningEndHour {
				selected = append(selected, obs)
			}
		}
	default:
		earliest := anchor.Add(-lookback)
		for _, obs := range observations {
			if obs.Timestamp.After(anchor) || obs.Timestamp.Before(earliest) {
				continue
			}
			selected = append(selected, obs)
		}
	}

	if len(selected) == 0 {
		return nil, fmt.Errorf("select %s window at %s: %w",
			period, anchor.Format("2006-01-02 15:04"), ErrInsufficientData)
	}
	return selected, nil
}

// LookbackFor returns the raw-data span a fetch must cover so that
// SelectWindow(period) at now has its full window available. For the evening
// period that is everything since 14:00 today; otherwise the plain lookback.
func LookbackFor(period Period, now time.Time, lookback time.Duration) time.Duration {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	if period != PeriodEvening {
		return lookback
	}
	anchor := TruncateToHour(now)
	start := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), eveningStartHour, 0, 0, 0, KST)
	if span := anchor.Sub(start); span > lookback {
		return span
	}
	return lookback
}

func sameCivilDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
