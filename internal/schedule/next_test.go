package schedule_test

import (
	"testing"
	"time"

	"github.com/chimecord/chime/internal/schedule"
)

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("failed to load location %s: %v", name, err)
	}
	return loc
}

func TestNextFireCalendarSchedules(t *testing.T) {
	berlin := "Europe/Berlin"

	table := []struct {
		name  string
		sched schedule.Schedule
		after time.Time
		want  time.Time
	}{
		{
			name:  "daily before time of day fires same day",
			sched: schedule.Daily{At: schedule.TimeOfDay{Hour: 9}, TZ: berlin},
			// 08:00 Berlin == 06:00 UTC in summer
			after: time.Date(2023, 7, 10, 6, 0, 0, 0, time.UTC),
			want:  time.Date(2023, 7, 10, 7, 0, 0, 0, time.UTC),
		},
		{
			name:  "daily after time of day advances one day",
			sched: schedule.Daily{At: schedule.TimeOfDay{Hour: 9}},
			after: time.Date(2023, 7, 10, 12, 0, 0, 0, time.UTC),
			want:  time.Date(2023, 7, 11, 9, 0, 0, 0, time.UTC),
		},
		{
			name:  "daily exactly at time of day advances one day",
			sched: schedule.Daily{At: schedule.TimeOfDay{Hour: 9}},
			after: time.Date(2023, 7, 10, 9, 0, 0, 0, time.UTC),
			want:  time.Date(2023, 7, 11, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "weekly wraps across the week boundary",
			// Sunday 23:00 targeting Monday 09:00 fires the next morning,
			// not seven days later.
			sched: schedule.Weekly{At: schedule.TimeOfDay{Hour: 9}, Weekday: 0},
			after: time.Date(2023, 10, 1, 23, 0, 0, 0, time.UTC),
			want:  time.Date(2023, 10, 2, 9, 0, 0, 0, time.UTC),
		},
		{
			name:  "weekly same day before time of day fires today",
			sched: schedule.Weekly{At: schedule.TimeOfDay{Hour: 9}, Weekday: 0},
			after: time.Date(2023, 10, 2, 8, 0, 0, 0, time.UTC),
			want:  time.Date(2023, 10, 2, 9, 0, 0, 0, time.UTC),
		},
		{
			name:  "weekly same day after time of day waits a full week",
			sched: schedule.Weekly{At: schedule.TimeOfDay{Hour: 9}, Weekday: 0},
			after: time.Date(2023, 10, 2, 10, 0, 0, 0, time.UTC),
			want:  time.Date(2023, 10, 9, 9, 0, 0, 0, time.UTC),
		},
		{
			name:  "weekly sunday target",
			sched: schedule.Weekly{At: schedule.TimeOfDay{Hour: 12}, Weekday: 6},
			after: time.Date(2023, 10, 2, 10, 0, 0, 0, time.UTC),
			want:  time.Date(2023, 10, 8, 12, 0, 0, 0, time.UTC),
		},
		{
			name:  "monthly before day of month fires same month",
			sched: schedule.Monthly{At: schedule.TimeOfDay{Hour: 10}, Day: 15},
			after: time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC),
			want:  time.Date(2023, 10, 15, 10, 0, 0, 0, time.UTC),
		},
		{
			name:  "monthly after day of month advances one month",
			sched: schedule.Monthly{At: schedule.TimeOfDay{Hour: 10}, Day: 15},
			after: time.Date(2023, 10, 20, 0, 0, 0, 0, time.UTC),
			want:  time.Date(2023, 11, 15, 10, 0, 0, 0, time.UTC),
		},
		{
			name:  "monthly rolls the year at december",
			sched: schedule.Monthly{At: schedule.TimeOfDay{Hour: 10}, Day: 5},
			after: time.Date(2023, 12, 6, 0, 0, 0, 0, time.UTC),
			want:  time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC),
		},
		{
			name:  "monthly day 28 is valid in non-leap february",
			sched: schedule.Monthly{At: schedule.TimeOfDay{Hour: 8}, Day: 28},
			after: time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
			want:  time.Date(2023, 2, 28, 8, 0, 0, 0, time.UTC),
		},
		{
			name:  "cron every monday morning",
			sched: schedule.Cron{Expr: "0 9 * * 1"},
			after: time.Date(2023, 10, 1, 12, 0, 0, 0, time.UTC),
			want:  time.Date(2023, 10, 2, 9, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range table {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.sched.NextFire(tc.after)
			if !ok {
				t.Fatalf("NextFire(%v) reported no occurrence", tc.after)
			}
			if !got.Equal(tc.want) {
				t.Errorf("NextFire(%v) = %v; want %v", tc.after, got, tc.want)
			}
			if !got.After(tc.after) {
				t.Errorf("NextFire(%v) = %v is not strictly after the reference", tc.after, got)
			}
		})
	}
}

func TestNextFireBerlinMorning(t *testing.T) {
	loc := mustLocation(t, "Europe/Berlin")
	sched := schedule.Daily{At: schedule.TimeOfDay{Hour: 9}, TZ: "Europe/Berlin"}

	after := time.Date(2023, 7, 10, 8, 0, 0, 0, loc)
	got, ok := sched.NextFire(after)
	if !ok {
		t.Fatal("expected an occurrence")
	}

	want := time.Date(2023, 7, 10, 9, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("NextFire = %v; want %v (09:00 Berlin)", got, want.UTC())
	}
	if got.Location() != time.UTC {
		t.Errorf("NextFire returned location %v; want UTC", got.Location())
	}
}

func TestNextFireOnce(t *testing.T) {
	at := time.Date(2023, 10, 2, 9, 0, 0, 0, time.UTC)
	sched := schedule.Once{At: at}

	got, ok := sched.NextFire(at.Add(-time.Hour))
	if !ok {
		t.Fatal("expected an occurrence before the fire time")
	}
	if !got.Equal(at) {
		t.Errorf("NextFire = %v; want %v", got, at)
	}

	if _, ok := sched.NextFire(at); ok {
		t.Error("expected no occurrence at the fire time itself")
	}
	if _, ok := sched.NextFire(at.Add(time.Minute)); ok {
		t.Error("expected no occurrence after the fire time")
	}
}

func TestNextFireIntervalIgnoresTimezone(t *testing.T) {
	after := time.Date(2023, 10, 1, 12, 0, 0, 0, time.UTC)
	sched := schedule.Interval{Every: 3600 * time.Second}

	want := after.Add(time.Hour)
	for _, tz := range []string{"UTC", "Europe/Berlin", "Pacific/Auckland"} {
		loc := mustLocation(t, tz)
		got, ok := sched.NextFire(after.In(loc))
		if !ok {
			t.Fatalf("expected an occurrence for %s", tz)
		}
		if !got.Equal(want) {
			t.Errorf("NextFire in %s = %v; want %v", tz, got, want)
		}
	}
}

func TestNextFireIsIdempotent(t *testing.T) {
	after := time.Date(2023, 10, 1, 12, 30, 0, 0, time.UTC)
	scheds := []schedule.Schedule{
		schedule.Interval{Every: 90 * time.Second},
		schedule.Daily{At: schedule.TimeOfDay{Hour: 9, Minute: 15}, TZ: "Europe/Berlin"},
		schedule.Weekly{At: schedule.TimeOfDay{Hour: 9}, Weekday: 3},
		schedule.Monthly{At: schedule.TimeOfDay{Hour: 9}, Day: 28},
		schedule.Cron{Expr: "*/5 * * * *"},
	}

	for _, sched := range scheds {
		t.Run(string(sched.Kind()), func(t *testing.T) {
			first, ok1 := sched.NextFire(after)
			second, ok2 := sched.NextFire(after)
			if !ok1 || !ok2 {
				t.Fatal("expected occurrences from both computations")
			}
			if !first.Equal(second) {
				t.Errorf("NextFire is not idempotent: %v != %v", first, second)
			}
		})
	}
}

func TestNextFireStrictAdvanceOverExtremes(t *testing.T) {
	// Repeatedly feeding the result back as the reference must always move
	// forward, including across month, year, and DST boundaries.
	starts := []time.Time{
		time.Date(2023, 2, 27, 23, 59, 0, 0, time.UTC),
		time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC),
		time.Date(2023, 3, 25, 22, 0, 0, 0, time.UTC), // night of the Berlin spring-forward
	}
	scheds := []schedule.Schedule{
		schedule.Daily{At: schedule.TimeOfDay{Hour: 2, Minute: 30}, TZ: "Europe/Berlin"},
		schedule.Weekly{At: schedule.TimeOfDay{Hour: 0}, Weekday: 6},
		schedule.Monthly{At: schedule.TimeOfDay{Hour: 23, Minute: 59}, Day: 28},
	}

	for _, sched := range scheds {
		for _, start := range starts {
			after := start
			for range 40 {
				next, ok := sched.NextFire(after)
				if !ok {
					t.Fatalf("%s: no occurrence after %v", sched.Kind(), after)
				}
				if !next.After(after) {
					t.Fatalf("%s: NextFire(%v) = %v did not advance", sched.Kind(), after, next)
				}
				after = next
			}
		}
	}
}
