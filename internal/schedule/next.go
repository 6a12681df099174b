package schedule

import (
	"time"

	"github.com/hashicorp/cronexpr"
)

// NextFire for a once schedule is the fire time itself while it is still in
// the future. Afterwards there is no occurrence and the entry is deleted.
func (s Once) NextFire(after time.Time) (time.Time, bool) {
	if !s.At.After(after) {
		return time.Time{}, false
	}
	return s.At.UTC(), true
}

func (s Interval) NextFire(after time.Time) (time.Time, bool) {
	return after.Add(s.Every).UTC(), true
}

func (s Daily) NextFire(after time.Time) (time.Time, bool) {
	loc := location(s.TZ)
	local := after.In(loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), s.At.Hour, s.At.Minute, 0, 0, loc)
	if !candidate.After(local) {
		candidate = time.Date(local.Year(), local.Month(), local.Day()+1, s.At.Hour, s.At.Minute, 0, 0, loc)
	}
	return candidate.UTC(), true
}

func (s Weekly) NextFire(after time.Time) (time.Time, bool) {
	loc := location(s.TZ)
	local := after.In(loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), s.At.Hour, s.At.Minute, 0, 0, loc)
	ahead := (s.Weekday - mondayIndexed(candidate.Weekday()) + 7) % 7
	candidate = time.Date(local.Year(), local.Month(), local.Day()+ahead, s.At.Hour, s.At.Minute, 0, 0, loc)
	if !candidate.After(local) {
		candidate = time.Date(candidate.Year(), candidate.Month(), candidate.Day()+7, s.At.Hour, s.At.Minute, 0, 0, loc)
	}
	return candidate.UTC(), true
}

func (s Monthly) NextFire(after time.Time) (time.Time, bool) {
	loc := location(s.TZ)
	local := after.In(loc)
	candidate := time.Date(local.Year(), local.Month(), s.Day, s.At.Hour, s.At.Minute, 0, 0, loc)
	if !candidate.After(local) {
		// time.Date normalizes month 13 to January of the next year.
		candidate = time.Date(local.Year(), local.Month()+1, s.Day, s.At.Hour, s.At.Minute, 0, 0, loc)
	}
	return candidate.UTC(), true
}

func (s Cron) NextFire(after time.Time) (time.Time, bool) {
	expr, err := cronexpr.Parse(s.Expr)
	if err != nil {
		return time.Time{}, false
	}
	next := expr.Next(after.In(location(s.TZ)))
	if next.IsZero() {
		return time.Time{}, false
	}
	return next.UTC(), true
}

// mondayIndexed converts time.Weekday (Sunday=0) to the 0=Monday..6=Sunday
// convention used by Weekly.
func mondayIndexed(d time.Weekday) int {
	return (int(d) + 6) % 7
}
