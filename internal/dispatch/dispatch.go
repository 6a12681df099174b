// Package dispatch runs the loop that polls for due chimes, delivers them,
// and advances their schedules.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chimecord/chime/internal/delivery"
	"github.com/chimecord/chime/internal/repository"
	"github.com/chimecord/chime/internal/throttle"
)

// Store is the slice of the chime repository the dispatcher needs. Every
// mutation is atomic per entry, so administrative reads running alongside
// the loop never observe a half-applied update.
type Store interface {
	Due(ctx context.Context, now time.Time) ([]repository.Chime, error)
	EarliestNextFire(ctx context.Context) (time.Time, bool, error)
	MarkFired(ctx context.Context, id string, next time.Time) error
	Disable(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// Notifier reports failures to an operator. Implementations must not block
// the loop for long; delivery of the notification itself is best-effort.
type Notifier interface {
	Notify(ctx context.Context, subject string, err error)
}

// LogNotifier is the fallback Notifier when no ops channel is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, subject string, err error) {
	slog.Error("operator notification", slog.String("subject", subject), slog.Any("error", err))
}

type Config struct {
	// PollInterval is the base cadence when no entry is due sooner.
	PollInterval time.Duration
	// MinSleep and MaxSleep clamp the computed sleep so the loop neither
	// busy-spins on an imminent entry nor goes stale on an empty store.
	MinSleep time.Duration
	MaxSleep time.Duration
	// DeliveryTimeout bounds each delivery attempt. A hung destination is
	// treated as a transient failure, not a stalled loop.
	DeliveryTimeout time.Duration
	// FailureLimit is the number of consecutive transient failures after
	// which an entry is disabled instead of retried.
	FailureLimit int
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 30 * time.Second
	}
	if c.MinSleep <= 0 {
		c.MinSleep = time.Second
	}
	if c.MaxSleep <= 0 {
		c.MaxSleep = 5 * time.Minute
	}
	if c.DeliveryTimeout <= 0 {
		c.DeliveryTimeout = 15 * time.Second
	}
	if c.FailureLimit <= 0 {
		c.FailureLimit = 3
	}
	return c
}

// Dispatcher coordinates a single dispatch loop. It is not safe to run the
// same Dispatcher from multiple goroutines; a single active loop is
// assumed.
type Dispatcher struct {
	store     Store
	deliverer delivery.Deliverer
	throttle  *throttle.Throttle
	notifier  Notifier
	cfg       Config

	// consecutive transient failures per chime id
	failures map[string]int

	now func() time.Time
}

func New(store Store, deliverer delivery.Deliverer, th *throttle.Throttle, notifier Notifier, cfg Config) *Dispatcher {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Dispatcher{
		store:     store,
		deliverer: deliverer,
		throttle:  th,
		notifier:  notifier,
		cfg:       cfg.withDefaults(),
		failures:  make(map[string]int),
		now:       time.Now,
	}
}

// Run loops until ctx is canceled: one cycle, then sleep until the next
// known fire time or the poll interval, whichever comes first. Cycle
// failures (store errors) are logged and retried on the next tick.
func (d *Dispatcher) Run(ctx context.Context) error {
	slog.Info("dispatcher started",
		slog.Duration("pollInterval", d.cfg.PollInterval),
		slog.Duration("deliveryTimeout", d.cfg.DeliveryTimeout),
		slog.Int("failureLimit", d.cfg.FailureLimit),
	)
	for {
		if err := d.RunCycle(ctx, d.now().UTC()); err != nil {
			if ctx.Err() != nil {
				slog.Info("dispatcher stopped")
				return nil
			}
			slog.Error("dispatch cycle failed, retrying next tick", slog.Any("error", err))
		}

		timer := time.NewTimer(d.sleepInterval(ctx))
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Info("dispatcher stopped")
			return nil
		case <-timer.C:
		}
	}
}

func (d *Dispatcher) sleepInterval(ctx context.Context) time.Duration {
	sleep := d.cfg.PollInterval
	earliest, ok, err := d.store.EarliestNextFire(ctx)
	if err != nil {
		slog.Warn("failed to query earliest next fire, using poll interval", slog.Any("error", err))
	} else if ok {
		if until := earliest.Sub(d.now()); until < sleep {
			sleep = until
		}
	}
	if sleep < d.cfg.MinSleep {
		sleep = d.cfg.MinSleep
	}
	if sleep > d.cfg.MaxSleep {
		sleep = d.cfg.MaxSleep
	}
	return sleep
}

// RunCycle processes every chime due at now. Entries are handled
// independently: a failure in one never aborts the rest. The returned error
// is only for store-level failures fetching the due set.
func (d *Dispatcher) RunCycle(ctx context.Context, now time.Time) error {
	due, err := d.store.Due(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to fetch due chimes: %w", err)
	}

	for _, c := range due {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		d.process(ctx, c, now)
	}
	return nil
}

func (d *Dispatcher) process(ctx context.Context, c repository.Chime, now time.Time) {
	deliverCtx, cancel := context.WithTimeout(ctx, d.cfg.DeliveryTimeout)
	err := d.deliverer.Deliver(deliverCtx, c.ChannelID, c.Message)
	cancel()

	switch {
	case err == nil:
		d.advance(ctx, c, now)
	case errors.Is(err, delivery.ErrDestinationGone):
		// Expected steady-state event: the channel was deleted out from
		// under the entry. Prune silently.
		slog.Info("destination gone, removing chime",
			slog.String("chimeID", c.ID),
			slog.String("channelID", c.ChannelID),
		)
		if delErr := d.store.Delete(ctx, c.ID); delErr != nil {
			slog.Error("failed to remove chime with gone destination", slog.String("chimeID", c.ID), slog.Any("error", delErr))
			return
		}
		d.clear(c.ID)
	default:
		d.fail(ctx, c, err)
	}
}

// advance records a successful delivery: once entries are deleted, all
// others move to their next occurrence with the fire counted.
func (d *Dispatcher) advance(ctx context.Context, c repository.Chime, now time.Time) {
	d.clear(c.ID)

	next, ok := c.Schedule.NextFire(now)
	if !ok {
		if err := d.store.Delete(ctx, c.ID); err != nil {
			slog.Error("failed to delete fired once chime", slog.String("chimeID", c.ID), slog.Any("error", err))
		}
		slog.Info("chime fired and retired", slog.String("chimeID", c.ID))
		return
	}

	if err := d.store.MarkFired(ctx, c.ID, next); err != nil {
		slog.Error("failed to advance chime", slog.String("chimeID", c.ID), slog.Any("error", err))
		return
	}
	slog.Info("chime fired",
		slog.String("chimeID", c.ID),
		slog.String("channelID", c.ChannelID),
		slog.Time("nextFire", next),
	)
}

func (d *Dispatcher) fail(ctx context.Context, c repository.Chime, err error) {
	count := d.failures[c.ID] + 1
	d.failures[c.ID] = count

	slog.Warn("chime delivery failed",
		slog.String("chimeID", c.ID),
		slog.String("channelID", c.ChannelID),
		slog.Int("consecutiveFailures", count),
		slog.Any("error", err),
	)

	if count >= d.cfg.FailureLimit {
		if disableErr := d.store.Disable(ctx, c.ID); disableErr != nil {
			slog.Error("failed to disable failing chime", slog.String("chimeID", c.ID), slog.Any("error", disableErr))
			return
		}
		d.clear(c.ID)
		// Disabling is a distinct, higher-severity event; it bypasses the
		// throttle's dedup window.
		d.notifier.Notify(ctx, fmt.Sprintf("chime %s disabled after %d consecutive delivery failures", c.ID, count), err)
		return
	}

	if d.throttle.ShouldNotify(c.ID, err) {
		d.notifier.Notify(ctx, fmt.Sprintf("chime %s delivery failed", c.ID), err)
	}
}

// clear resets failure-tracking state for an entry that succeeded or no
// longer exists.
func (d *Dispatcher) clear(id string) {
	delete(d.failures, id)
	d.throttle.Forget(id)
}
