// Package schedule computes payment dates for recurring subscriptions.
//
// All dates are calendar days represented as midnight UTC. Use DateOf to
// convert an instant into the calendar day of a given location.
package schedule

import (
	"fmt"
	"time"

	"github.com/ManuelReschke/SubTrack/app/models"
)

const (
	// BatchSize is the number of installments produced per projection.
	BatchSize = 12
	// ReplenishThresholdMonths triggers a new batch when fewer months remain ahead.
	ReplenishThresholdMonths = 3
)

// DateOf returns the calendar day of t in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Civil drops the time of day of t without changing its location fields.
func Civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysIn returns the number of days in the month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Occurrence returns day of the month, clamped to the month's last day.
func Occurrence(year int, month time.Month, day int) time.Time {
	if last := DaysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// MonthsBetween counts whole calendar months from a to b, ignoring days.
func MonthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

// Rule is the recurrence of a subscription.
type Rule struct {
	Yearly bool
	Day    int
	Month  time.Month
}

// RuleFor derives the recurrence rule of a subscription.
func RuleFor(sub *models.Subscription) (Rule, error) {
	if sub.Day < 1 || sub.Day > 31 {
		return Rule{}, fmt.Errorf("schedule: invalid day %d", sub.Day)
	}
	switch sub.Type {
	case models.SubscriptionMonthly:
		return Rule{Day: sub.Day}, nil
	case models.SubscriptionYearly:
		if sub.Month == nil || *sub.Month < 1 || *sub.Month > 12 {
			return Rule{}, fmt.Errorf("schedule: yearly subscription %s has no valid month", sub.ID)
		}
		return Rule{Yearly: true, Day: sub.Day, Month: time.Month(*sub.Month)}, nil
	default:
		return Rule{}, fmt.Errorf("schedule: unknown subscription type %q", sub.Type)
	}
}

// Next returns the first occurrence on or after the calendar day from.
func (r Rule) Next(from time.Time) time.Time {
	from = Civil(from)
	if r.Yearly {
		c := Occurrence(from.Year(), r.Month, r.Day)
		if c.Before(from) {
			c = Occurrence(from.Year()+1, r.Month, r.Day)
		}
		return c
	}
	c := Occurrence(from.Year(), from.Month(), r.Day)
	if c.Before(from) {
		c = Occurrence(from.Year(), from.Month()+1, r.Day)
	}
	return c
}

// After returns the first occurrence strictly after the calendar day d.
func (r Rule) After(d time.Time) time.Time {
	return r.Next(Civil(d).AddDate(0, 0, 1))
}

// Project returns up to limit consecutive occurrences starting at the first
// occurrence on or after start. When until is set, dates after it are dropped.
func (r Rule) Project(start time.Time, until *time.Time, limit int) []time.Time {
	var end time.Time
	if until != nil {
		end = Civil(*until)
	}
	dates := make([]time.Time, 0, limit)
	for d := r.Next(start); len(dates) < limit; d = r.After(d) {
		if until != nil && d.After(end) {
			break
		}
		dates = append(dates, d)
	}
	return dates
}
