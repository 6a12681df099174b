// Package manager is the entry-management boundary: creating, listing, and
// deleting chimes on behalf of the command layer. Definitions are validated
// here, at creation, so the dispatch loop never sees a malformed entry.
package manager

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chimecord/chime/internal/generator"
	"github.com/chimecord/chime/internal/repository"
	"github.com/chimecord/chime/internal/schedule"
)

// Store is the slice of the chime repository the manager needs.
type Store interface {
	Save(ctx context.Context, c repository.Chime) error
	List(ctx context.Context, guildID string) ([]repository.Chime, error)
	DeleteInGuild(ctx context.Context, id, guildID string) error
}

type Service struct {
	store Store
	ids   generator.Generator[string]
	now   func() time.Time
}

func New(store Store, ids generator.Generator[string]) *Service {
	return &Service{
		store: store,
		ids:   ids,
		now:   time.Now,
	}
}

// Create validates the definition, computes the initial next-fire instant,
// and persists the chime. Invalid definitions come back as
// *schedule.InvalidScheduleError.
func (s *Service) Create(ctx context.Context, guildID, channelID, message string, sched schedule.Schedule) (repository.Chime, error) {
	if guildID == "" || channelID == "" {
		return repository.Chime{}, &schedule.InvalidScheduleError{Reason: "guild and channel are required"}
	}
	if message == "" {
		return repository.Chime{}, &schedule.InvalidScheduleError{Reason: "message must not be empty"}
	}
	if err := sched.Validate(); err != nil {
		return repository.Chime{}, err
	}

	now := s.now().UTC()
	next, ok := sched.NextFire(now)
	if !ok {
		return repository.Chime{}, &schedule.InvalidScheduleError{Reason: "schedule has no future occurrence"}
	}

	id, err := s.ids.Next()
	if err != nil {
		return repository.Chime{}, fmt.Errorf("failed to generate chime id: %w", err)
	}

	c := repository.Chime{
		ID:        id,
		GuildID:   guildID,
		ChannelID: channelID,
		Message:   message,
		Enabled:   true,
		Schedule:  sched,
		NextFire:  next,
		CreatedAt: now,
	}
	if err := s.store.Save(ctx, c); err != nil {
		return repository.Chime{}, fmt.Errorf("failed to save chime: %w", err)
	}

	slog.Info("chime created",
		slog.String("chimeID", c.ID),
		slog.String("guildID", guildID),
		slog.String("kind", string(sched.Kind())),
		slog.Time("nextFire", next),
	)
	return c, nil
}

func (s *Service) List(ctx context.Context, guildID string) ([]repository.Chime, error) {
	return s.store.List(ctx, guildID)
}

// Delete removes a chime, scoped to the guild that owns it. Returns
// repository.ErrChimeNotFound when no such chime exists in the guild.
func (s *Service) Delete(ctx context.Context, id, guildID string) error {
	if err := s.store.DeleteInGuild(ctx, id, guildID); err != nil {
		return err
	}
	slog.Info("chime deleted", slog.String("chimeID", id), slog.String("guildID", guildID))
	return nil
}
