// Package presenters renders chimes as user-facing Discord text.
package presenters

import (
	"fmt"
	"strings"
	"time"

	"github.com/chimecord/chime/internal/repository"
	"github.com/chimecord/chime/internal/schedule"
	"github.com/chimecord/chime/internal/throttle"
)

// DescribeSchedule renders a schedule variant as a short human-readable
// phrase.
func DescribeSchedule(s schedule.Schedule) string {
	switch v := s.(type) {
	case schedule.Once:
		return fmt.Sprintf("once at %s", v.At.UTC().Format("2006-01-02 15:04 MST"))
	case schedule.Interval:
		return fmt.Sprintf("every %s", v.Every)
	case schedule.Daily:
		return fmt.Sprintf("daily at %s %s", v.At, tzName(v.TZ))
	case schedule.Weekly:
		return fmt.Sprintf("every %s at %s %s", schedule.WeekdayName(v.Weekday), v.At, tzName(v.TZ))
	case schedule.Monthly:
		return fmt.Sprintf("monthly on day %d at %s %s", v.Day, v.At, tzName(v.TZ))
	case schedule.Cron:
		return fmt.Sprintf("on cron `%s` %s", v.Expr, tzName(v.TZ))
	default:
		return string(s.Kind())
	}
}

func tzName(tz string) string {
	if tz == "" {
		return "UTC"
	}
	return tz
}

// ChimeCreated is the confirmation shown after a successful /chime add.
func ChimeCreated(c repository.Chime) string {
	return fmt.Sprintf(
		"Scheduled %s in <#%s>, next post <t:%d:R>. Id: `%s`",
		DescribeSchedule(c.Schedule), c.ChannelID, c.NextFire.Unix(), c.ID,
	)
}

// AlertStatus renders the failure-alert throttle for /chime alerts status.
func AlertStatus(s throttle.Status) string {
	var b strings.Builder
	if s.SuppressionRemaining > 0 {
		fmt.Fprintf(&b, "Failure alerts paused for another %s.\n", s.SuppressionRemaining.Round(time.Second))
	} else {
		b.WriteString("Failure alerts active.\n")
	}

	if len(s.Buckets) == 0 {
		b.WriteString("No recent delivery failures.")
		return b.String()
	}
	b.WriteString("Recent delivery failures:\n")
	for _, bucket := range s.Buckets {
		fmt.Fprintf(&b, "- `%s` (%s): last alerted %s ago, %d repeats muted\n",
			bucket.Context, bucket.Kind, bucket.SinceLastNotification.Round(time.Second), bucket.Suppressed)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// ChimeList renders a guild's chimes for /chime list.
func ChimeList(chimes []repository.Chime) string {
	if len(chimes) == 0 {
		return "No scheduled messages in this server."
	}

	var b strings.Builder
	b.WriteString("Scheduled messages:\n")
	for _, c := range chimes {
		state := ""
		if !c.Enabled {
			state = " (disabled)"
		}
		fmt.Fprintf(&b, "- `%s` %s in <#%s>, next <t:%d:R>%s\n",
			c.ID, DescribeSchedule(c.Schedule), c.ChannelID, c.NextFire.Unix(), state)
	}
	return b.String()
}
