package repository

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryChimeRepository is an in-memory store with the same contract as the
// Postgres repository. It backs unit tests and dry runs.
type MemoryChimeRepository struct {
	mu     sync.Mutex
	chimes map[string]Chime
}

func NewMemoryChimeRepository() *MemoryChimeRepository {
	return &MemoryChimeRepository{chimes: make(map[string]Chime)}
}

func (r *MemoryChimeRepository) Save(ctx context.Context, c Chime) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.chimes[c.ID]; ok {
		c.CreatedAt = existing.CreatedAt
	} else if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	r.chimes[c.ID] = c
	return nil
}

func (r *MemoryChimeRepository) Due(ctx context.Context, now time.Time) ([]Chime, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []Chime
	for _, c := range r.chimes {
		if c.Enabled && !c.NextFire.After(now) {
			due = append(due, c)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].NextFire.Equal(due[j].NextFire) {
			return due[i].ID < due[j].ID
		}
		return due[i].NextFire.Before(due[j].NextFire)
	})
	return due, nil
}

func (r *MemoryChimeRepository) EarliestNextFire(ctx context.Context) (time.Time, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var earliest time.Time
	found := false
	for _, c := range r.chimes {
		if !c.Enabled {
			continue
		}
		if !found || c.NextFire.Before(earliest) {
			earliest = c.NextFire
			found = true
		}
	}
	return earliest, found, nil
}

func (r *MemoryChimeRepository) MarkFired(ctx context.Context, id string, next time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chimes[id]
	if !ok {
		return ErrChimeNotFound
	}
	c.NextFire = next
	c.FireCount++
	r.chimes[id] = c
	return nil
}

func (r *MemoryChimeRepository) Disable(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chimes[id]
	if !ok {
		return ErrChimeNotFound
	}
	c.Enabled = false
	r.chimes[id] = c
	return nil
}

func (r *MemoryChimeRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.chimes, id)
	return nil
}

func (r *MemoryChimeRepository) DeleteInGuild(ctx context.Context, id, guildID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chimes[id]
	if !ok || c.GuildID != guildID {
		return ErrChimeNotFound
	}
	delete(r.chimes, id)
	return nil
}

func (r *MemoryChimeRepository) List(ctx context.Context, guildID string) ([]Chime, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var chimes []Chime
	for _, c := range r.chimes {
		if c.GuildID == guildID {
			chimes = append(chimes, c)
		}
	}
	sort.Slice(chimes, func(i, j int) bool {
		if chimes[i].CreatedAt.Equal(chimes[j].CreatedAt) {
			return chimes[i].ID < chimes[j].ID
		}
		return chimes[i].CreatedAt.Before(chimes[j].CreatedAt)
	})
	return chimes, nil
}

func (r *MemoryChimeRepository) Get(ctx context.Context, id string) (Chime, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chimes[id]
	if !ok {
		return Chime{}, ErrChimeNotFound
	}
	return c, nil
}
