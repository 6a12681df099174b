package presenters_test

import (
	"strings"
	"testing"
	"time"

	"github.com/chimecord/chime/internal/presenters"
	"github.com/chimecord/chime/internal/repository"
	"github.com/chimecord/chime/internal/schedule"
	"github.com/chimecord/chime/internal/throttle"
)

func TestDescribeSchedule(t *testing.T) {
	table := []struct {
		sched schedule.Schedule
		want  string
	}{
		{sched: schedule.Interval{Every: 90 * time.Minute}, want: "every 1h30m0s"},
		{sched: schedule.Daily{At: schedule.TimeOfDay{Hour: 9, Minute: 30}}, want: "daily at 09:30 UTC"},
		{sched: schedule.Weekly{At: schedule.TimeOfDay{Hour: 9}, Weekday: 0, TZ: "Europe/Berlin"}, want: "every monday at 09:00 Europe/Berlin"},
		{sched: schedule.Monthly{At: schedule.TimeOfDay{Hour: 8}, Day: 28}, want: "monthly on day 28 at 08:00 UTC"},
		{sched: schedule.Cron{Expr: "0 9 * * 1"}, want: "on cron `0 9 * * 1` UTC"},
	}

	for _, tc := range table {
		t.Run(tc.want, func(t *testing.T) {
			if got := presenters.DescribeSchedule(tc.sched); got != tc.want {
				t.Errorf("DescribeSchedule = %q; want %q", got, tc.want)
			}
		})
	}
}

func TestChimeList(t *testing.T) {
	if got := presenters.ChimeList(nil); got != "No scheduled messages in this server." {
		t.Errorf("empty list rendering = %q", got)
	}

	chimes := []repository.Chime{
		{
			ID:        "id-1",
			ChannelID: "chan-1",
			Message:   "hello",
			Enabled:   true,
			Schedule:  schedule.Interval{Every: time.Hour},
			NextFire:  time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:        "id-2",
			ChannelID: "chan-2",
			Message:   "muted",
			Enabled:   false,
			Schedule:  schedule.Daily{At: schedule.TimeOfDay{Hour: 9}},
			NextFire:  time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC),
		},
	}

	got := presenters.ChimeList(chimes)
	for _, want := range []string{"`id-1`", "`id-2`", "<#chan-1>", "(disabled)"} {
		if !strings.Contains(got, want) {
			t.Errorf("list rendering missing %q:\n%s", want, got)
		}
	}
	if strings.Count(got, "\n") != 3 {
		t.Errorf("expected a header and one line per chime:\n%s", got)
	}
}

func TestAlertStatus(t *testing.T) {
	t.Run("quiet throttle", func(t *testing.T) {
		got := presenters.AlertStatus(throttle.Status{})
		if !strings.Contains(got, "Failure alerts active.") || !strings.Contains(got, "No recent delivery failures.") {
			t.Errorf("quiet rendering = %q", got)
		}
	})

	t.Run("paused with buckets", func(t *testing.T) {
		got := presenters.AlertStatus(throttle.Status{
			SuppressionRemaining: 9*time.Minute + 30*time.Second,
			Buckets: []throttle.BucketStatus{
				{Kind: "timeout", Context: "id-1", SinceLastNotification: 2 * time.Minute, Suppressed: 4},
			},
		})
		for _, want := range []string{"paused for another 9m30s", "`id-1` (timeout)", "2m0s ago", "4 repeats muted"} {
			if !strings.Contains(got, want) {
				t.Errorf("status rendering missing %q:\n%s", want, got)
			}
		}
	})
}
