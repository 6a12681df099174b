package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chimecord/chime/internal/schedule"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrChimeNotFound is returned when an operation targets a chime that does
// not exist (or was deleted concurrently).
var ErrChimeNotFound = errors.New("chime not found")

// Chime is a persisted schedule entry: a message, the channel it goes to,
// and the schedule that decides when.
type Chime struct {
	ID        string
	GuildID   string
	ChannelID string
	Message   string
	Enabled   bool
	Schedule  schedule.Schedule
	NextFire  time.Time
	FireCount int64
	CreatedAt time.Time
}

type PostgresChimeRepository struct {
	db *pgxpool.Pool
}

func NewPostgresChimeRepository(db *pgxpool.Pool) *PostgresChimeRepository {
	return &PostgresChimeRepository{db: db}
}

const chimeColumns = `id, guild_id, channel_id, message, enabled,
	kind, once_at, interval_seconds, at_hour, at_minute, weekday, month_day, cron_expr, timezone,
	next_fire, fire_count, created_at`

// scheduleColumns is the flattened persisted form of a schedule variant.
// Only the columns for the row's kind are non-nil.
type scheduleColumns struct {
	Kind            string
	OnceAt          *time.Time
	IntervalSeconds *int64
	AtHour          *int16
	AtMinute        *int16
	Weekday         *int16
	MonthDay        *int16
	CronExpr        *string
	Timezone        string
}

func encodeSchedule(s schedule.Schedule) (scheduleColumns, error) {
	cols := scheduleColumns{Kind: string(s.Kind())}
	switch v := s.(type) {
	case schedule.Once:
		at := v.At.UTC()
		cols.OnceAt = &at
	case schedule.Interval:
		seconds := int64(v.Every / time.Second)
		cols.IntervalSeconds = &seconds
	case schedule.Daily:
		hour, minute := int16(v.At.Hour), int16(v.At.Minute)
		cols.AtHour, cols.AtMinute = &hour, &minute
		cols.Timezone = v.TZ
	case schedule.Weekly:
		hour, minute, weekday := int16(v.At.Hour), int16(v.At.Minute), int16(v.Weekday)
		cols.AtHour, cols.AtMinute, cols.Weekday = &hour, &minute, &weekday
		cols.Timezone = v.TZ
	case schedule.Monthly:
		hour, minute, day := int16(v.At.Hour), int16(v.At.Minute), int16(v.Day)
		cols.AtHour, cols.AtMinute, cols.MonthDay = &hour, &minute, &day
		cols.Timezone = v.TZ
	case schedule.Cron:
		expr := v.Expr
		cols.CronExpr = &expr
		cols.Timezone = v.TZ
	default:
		return scheduleColumns{}, fmt.Errorf("unsupported schedule type %T", s)
	}
	return cols, nil
}

func decodeSchedule(cols scheduleColumns) (schedule.Schedule, error) {
	switch schedule.Kind(cols.Kind) {
	case schedule.KindOnce:
		if cols.OnceAt == nil {
			return nil, fmt.Errorf("once row is missing its fire time")
		}
		return schedule.Once{At: cols.OnceAt.UTC()}, nil
	case schedule.KindInterval:
		if cols.IntervalSeconds == nil {
			return nil, fmt.Errorf("interval row is missing interval_seconds")
		}
		return schedule.Interval{Every: time.Duration(*cols.IntervalSeconds) * time.Second}, nil
	case schedule.KindDaily:
		if cols.AtHour == nil || cols.AtMinute == nil {
			return nil, fmt.Errorf("daily row is missing its time of day")
		}
		return schedule.Daily{
			At: schedule.TimeOfDay{Hour: int(*cols.AtHour), Minute: int(*cols.AtMinute)},
			TZ: cols.Timezone,
		}, nil
	case schedule.KindWeekly:
		if cols.AtHour == nil || cols.AtMinute == nil || cols.Weekday == nil {
			return nil, fmt.Errorf("weekly row is missing its time of day or weekday")
		}
		return schedule.Weekly{
			At:      schedule.TimeOfDay{Hour: int(*cols.AtHour), Minute: int(*cols.AtMinute)},
			Weekday: int(*cols.Weekday),
			TZ:      cols.Timezone,
		}, nil
	case schedule.KindMonthly:
		if cols.AtHour == nil || cols.AtMinute == nil || cols.MonthDay == nil {
			return nil, fmt.Errorf("monthly row is missing its time of day or day of month")
		}
		return schedule.Monthly{
			At:  schedule.TimeOfDay{Hour: int(*cols.AtHour), Minute: int(*cols.AtMinute)},
			Day: int(*cols.MonthDay),
			TZ:  cols.Timezone,
		}, nil
	case schedule.KindCron:
		if cols.CronExpr == nil {
			return nil, fmt.Errorf("cron row is missing its expression")
		}
		return schedule.Cron{Expr: *cols.CronExpr, TZ: cols.Timezone}, nil
	default:
		return nil, fmt.Errorf("unknown schedule kind %q", cols.Kind)
	}
}

func scanChime(row pgx.Row) (Chime, error) {
	var c Chime
	var cols scheduleColumns
	err := row.Scan(
		&c.ID, &c.GuildID, &c.ChannelID, &c.Message, &c.Enabled,
		&cols.Kind, &cols.OnceAt, &cols.IntervalSeconds, &cols.AtHour, &cols.AtMinute,
		&cols.Weekday, &cols.MonthDay, &cols.CronExpr, &cols.Timezone,
		&c.NextFire, &c.FireCount, &c.CreatedAt,
	)
	if err != nil {
		return Chime{}, err
	}
	c.Schedule, err = decodeSchedule(cols)
	if err != nil {
		return Chime{}, fmt.Errorf("failed to decode chime %s: %w", c.ID, err)
	}
	c.NextFire = c.NextFire.UTC()
	return c, nil
}

func (r *PostgresChimeRepository) Save(ctx context.Context, c Chime) error {
	cols, err := encodeSchedule(c.Schedule)
	if err != nil {
		return fmt.Errorf("failed to encode schedule: %w", err)
	}

	const query = `
	INSERT INTO chime (` + chimeColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	ON CONFLICT (id) DO UPDATE SET
		channel_id = EXCLUDED.channel_id,
		message = EXCLUDED.message,
		enabled = EXCLUDED.enabled,
		kind = EXCLUDED.kind,
		once_at = EXCLUDED.once_at,
		interval_seconds = EXCLUDED.interval_seconds,
		at_hour = EXCLUDED.at_hour,
		at_minute = EXCLUDED.at_minute,
		weekday = EXCLUDED.weekday,
		month_day = EXCLUDED.month_day,
		cron_expr = EXCLUDED.cron_expr,
		timezone = EXCLUDED.timezone,
		next_fire = EXCLUDED.next_fire
	`

	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = r.db.Exec(ctx, query,
		c.ID, c.GuildID, c.ChannelID, c.Message, c.Enabled,
		cols.Kind, cols.OnceAt, cols.IntervalSeconds, cols.AtHour, cols.AtMinute,
		cols.Weekday, cols.MonthDay, cols.CronExpr, cols.Timezone,
		c.NextFire.UTC(), c.FireCount, createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save chime: %w", err)
	}
	return nil
}

// Due returns all enabled chimes whose next fire is at or before now,
// soonest first. Ordering by (next_fire, id) keeps it stable.
func (r *PostgresChimeRepository) Due(ctx context.Context, now time.Time) ([]Chime, error) {
	const query = `
	SELECT ` + chimeColumns + `
	FROM chime
	WHERE enabled AND next_fire <= $1
	ORDER BY next_fire, id
	`

	rows, err := r.db.Query(ctx, query, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query due chimes: %w", err)
	}
	defer rows.Close()

	var due []Chime
	for rows.Next() {
		c, err := scanChime(rows)
		if err != nil {
			return nil, err
		}
		due = append(due, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read due chimes: %w", err)
	}
	return due, nil
}

// EarliestNextFire returns the soonest next-fire instant among enabled
// chimes. The second return is false when no enabled chime exists.
func (r *PostgresChimeRepository) EarliestNextFire(ctx context.Context) (time.Time, bool, error) {
	const query = `SELECT min(next_fire) FROM chime WHERE enabled`

	var earliest *time.Time
	if err := r.db.QueryRow(ctx, query).Scan(&earliest); err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query earliest next fire: %w", err)
	}
	if earliest == nil {
		return time.Time{}, false, nil
	}
	return earliest.UTC(), true, nil
}

// MarkFired advances a chime to its next occurrence and counts the
// delivery. Both fields change in a single statement so concurrent readers
// never see one without the other.
func (r *PostgresChimeRepository) MarkFired(ctx context.Context, id string, next time.Time) error {
	const query = `UPDATE chime SET next_fire = $2, fire_count = fire_count + 1 WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, next.UTC())
	if err != nil {
		return fmt.Errorf("failed to mark chime fired: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrChimeNotFound
	}
	return nil
}

func (r *PostgresChimeRepository) Disable(ctx context.Context, id string) error {
	const query = `UPDATE chime SET enabled = FALSE WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to disable chime: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrChimeNotFound
	}
	return nil
}

func (r *PostgresChimeRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM chime WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete chime: %w", err)
	}
	return nil
}

// DeleteInGuild deletes a chime only if it belongs to the given guild, so
// one guild cannot remove another's entries.
func (r *PostgresChimeRepository) DeleteInGuild(ctx context.Context, id, guildID string) error {
	const query = `DELETE FROM chime WHERE id = $1 AND guild_id = $2`

	tag, err := r.db.Exec(ctx, query, id, guildID)
	if err != nil {
		return fmt.Errorf("failed to delete chime: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrChimeNotFound
	}
	return nil
}

func (r *PostgresChimeRepository) List(ctx context.Context, guildID string) ([]Chime, error) {
	const query = `
	SELECT ` + chimeColumns + `
	FROM chime
	WHERE guild_id = $1
	ORDER BY created_at, id
	`

	rows, err := r.db.Query(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chimes: %w", err)
	}
	defer rows.Close()

	var chimes []Chime
	for rows.Next() {
		c, err := scanChime(rows)
		if err != nil {
			return nil, err
		}
		chimes = append(chimes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chimes: %w", err)
	}
	return chimes, nil
}

func (r *PostgresChimeRepository) Get(ctx context.Context, id string) (Chime, error) {
	const query = `SELECT ` + chimeColumns + ` FROM chime WHERE id = $1`

	c, err := scanChime(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Chime{}, ErrChimeNotFound
	}
	if err != nil {
		return Chime{}, fmt.Errorf("failed to get chime: %w", err)
	}
	return c, nil
}
