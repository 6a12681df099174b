package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/cronexpr"
)

// Kind identifies a schedule variant.
type Kind string

const (
	KindOnce     Kind = "once"
	KindInterval Kind = "interval"
	KindDaily    Kind = "daily"
	KindWeekly   Kind = "weekly"
	KindMonthly  Kind = "monthly"
	KindCron     Kind = "cron"
)

// InvalidScheduleError indicates a schedule definition with missing or
// out-of-range parameters. It is returned at creation time; entries that
// reach the dispatcher have already passed validation.
type InvalidScheduleError struct {
	Reason string
}

func (e *InvalidScheduleError) Error() string {
	return fmt.Sprintf("invalid schedule: %s", e.Reason)
}

var _ error = (*InvalidScheduleError)(nil)

// Schedule is a tagged schedule variant. NextFire returns the next
// occurrence strictly after the given instant, normalized to UTC. The
// second return is false when no future occurrence exists (a once schedule
// whose fire time has passed).
type Schedule interface {
	Kind() Kind
	Validate() error
	NextFire(after time.Time) (time.Time, bool)
}

// TimeOfDay is a wall-clock time in a schedule's timezone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

// ParseTimeOfDay parses "HH:MM" into a TimeOfDay.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q", s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

// Weekday indices are 0=Monday through 6=Sunday.
var weekdayNames = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

// WeekdayName returns the lowercase English name for a weekday index.
func WeekdayName(weekday int) string {
	if weekday < 0 || weekday > 6 {
		return "unknown"
	}
	return weekdayNames[weekday]
}

// ParseWeekday parses a lowercase English weekday name into an index.
func ParseWeekday(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range weekdayNames {
		if s == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}

// Once fires a single time at At and never again.
type Once struct {
	At time.Time
}

func (Once) Kind() Kind { return KindOnce }

func (s Once) Validate() error {
	if s.At.IsZero() {
		return &InvalidScheduleError{Reason: "once schedule requires a fire time"}
	}
	return nil
}

// Interval fires every Every, counted from the previous occurrence.
type Interval struct {
	Every time.Duration
}

func (Interval) Kind() Kind { return KindInterval }

func (s Interval) Validate() error {
	if s.Every < time.Second {
		return &InvalidScheduleError{Reason: "interval must be at least one second"}
	}
	return nil
}

// Daily fires once per calendar day at At in timezone TZ.
type Daily struct {
	At TimeOfDay
	TZ string
}

func (Daily) Kind() Kind { return KindDaily }

func (s Daily) Validate() error {
	if !s.At.valid() {
		return &InvalidScheduleError{Reason: "daily schedule requires a valid time of day"}
	}
	return validateTimezone(s.TZ)
}

// Weekly fires once per week at At on Weekday (0=Monday..6=Sunday) in TZ.
type Weekly struct {
	At      TimeOfDay
	Weekday int
	TZ      string
}

func (Weekly) Kind() Kind { return KindWeekly }

func (s Weekly) Validate() error {
	if !s.At.valid() {
		return &InvalidScheduleError{Reason: "weekly schedule requires a valid time of day"}
	}
	if s.Weekday < 0 || s.Weekday > 6 {
		return &InvalidScheduleError{Reason: "weekday must be between 0 (monday) and 6 (sunday)"}
	}
	return validateTimezone(s.TZ)
}

// Monthly fires once per month at At on Day in TZ. Day is capped at 28 so
// every month has the requested date.
type Monthly struct {
	At  TimeOfDay
	Day int
	TZ  string
}

func (Monthly) Kind() Kind { return KindMonthly }

func (s Monthly) Validate() error {
	if !s.At.valid() {
		return &InvalidScheduleError{Reason: "monthly schedule requires a valid time of day"}
	}
	if s.Day < 1 || s.Day > 28 {
		return &InvalidScheduleError{Reason: "day of month must be between 1 and 28"}
	}
	return validateTimezone(s.TZ)
}

// Cron fires according to a standard cron expression evaluated in TZ.
type Cron struct {
	Expr string
	TZ   string
}

func (Cron) Kind() Kind { return KindCron }

func (s Cron) Validate() error {
	if _, err := cronexpr.Parse(s.Expr); err != nil {
		return &InvalidScheduleError{Reason: fmt.Sprintf("invalid cron expression %q", s.Expr)}
	}
	return validateTimezone(s.TZ)
}

func validateTimezone(tz string) error {
	if tz == "" {
		return nil
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return &InvalidScheduleError{Reason: fmt.Sprintf("unknown timezone %q", tz)}
	}
	return nil
}

// location resolves an IANA timezone name, falling back to UTC for the
// empty string. Callers validate names up front, so a load failure here
// only happens for entries persisted before a tzdata change; UTC is the
// least surprising fallback.
func location(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

var (
	_ Schedule = Once{}
	_ Schedule = Interval{}
	_ Schedule = Daily{}
	_ Schedule = Weekly{}
	_ Schedule = Monthly{}
	_ Schedule = Cron{}
)
