package scheduler

import (
	"time"

	"github.com/couchcryptid/commute-comfort/internal/domain"
)

// Rule computes the next firing instant strictly after a given time. All
// rules operate on KST civil time.
type Rule interface {
	Next(after time.Time) time.Time
}

// DailyAt fires once a day at a fixed civil time.
type DailyAt struct {
	Hour   int
	Minute int
}

func (r DailyAt) Next(after time.Time) time.Time {
	after = after.In(domain.KST)
	next := time.Date(after.Year(), after.Month(), after.Day(), r.Hour, r.Minute, 0, 0, domain.KST)
	if !next.After(after) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// HourlyBetween fires at the top of every hour h with Start <= h < End.
type HourlyBetween struct {
	Start int
	End   int
}

func (r HourlyBetween) Next(after time.Time) time.Time {
	after = after.In(domain.KST)
	// Next top of hour, strictly after.
	next := domain.TruncateToHour(after).Add(time.Hour)
	if next.Hour() >= r.Start && next.Hour() < r.End {
		return next
	}
	if next.Hour() < r.Start {
		return time.Date(next.Year(), next.Month(), next.Day(), r.Start, 0, 0, 0, domain.KST)
	}
	next = next.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(), r.Start, 0, 0, 0, domain.KST)
}
