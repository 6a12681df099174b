// Package throttle suppresses repeated operator notifications for the same
// failure so a flapping destination does not page on every poll cycle.
package throttle

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// KindFunc maps an error to the kind string used in the dedup key.
type KindFunc func(error) string

// DefaultKind classifies timeouts apart from other failures.
func DefaultKind(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "transient"
}

type bucketKey struct {
	Kind    string
	Context string
}

type bucket struct {
	lastNotified time.Time
	suppressed   int
}

// Throttle deduplicates notifications per (error kind, context) within a
// rolling window, and supports global suppression during planned outages.
type Throttle struct {
	mu            sync.Mutex
	window        time.Duration
	kindOf        KindFunc
	buckets       map[bucketKey]*bucket
	suppressUntil time.Time

	now func() time.Time
}

func New(window time.Duration, kindOf KindFunc) *Throttle {
	if kindOf == nil {
		kindOf = DefaultKind
	}
	return &Throttle{
		window:  window,
		kindOf:  kindOf,
		buckets: make(map[bucketKey]*bucket),
		now:     time.Now,
	}
}

// ShouldNotify reports whether a notification for this failure should go
// out: true on the first occurrence of a (kind, context) pair, or once the
// window has elapsed since the pair last notified. While globally
// suppressed it always returns false.
func (t *Throttle) ShouldNotify(contextID string, err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	key := bucketKey{Kind: t.kindOf(err), Context: contextID}

	b, ok := t.buckets[key]
	if !ok {
		b = &bucket{}
		t.buckets[key] = b
	}

	if now.Before(t.suppressUntil) {
		b.suppressed++
		return false
	}

	if ok && now.Sub(b.lastNotified) < t.window {
		b.suppressed++
		return false
	}

	b.lastNotified = now
	b.suppressed = 0
	return true
}

// Suppress silences all notifications for the given duration.
func (t *Throttle) Suppress(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.suppressUntil = t.now().Add(d)
}

// Resume lifts a global suppression immediately.
func (t *Throttle) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.suppressUntil = time.Time{}
}

// Forget drops all buckets for a context. Called when the entry behind the
// context recovers or is removed, so a later relapse notifies immediately.
func (t *Throttle) Forget(contextID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key := range t.buckets {
		if key.Context == contextID {
			delete(t.buckets, key)
		}
	}
}

// BucketStatus describes one (kind, context) suppression bucket.
type BucketStatus struct {
	Kind                  string
	Context               string
	SinceLastNotification time.Duration
	Suppressed            int
}

// Status is an operator-facing snapshot of the throttle state.
type Status struct {
	Buckets              []BucketStatus
	SuppressionRemaining time.Duration
}

func (t *Throttle) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	status := Status{}
	if now.Before(t.suppressUntil) {
		status.SuppressionRemaining = t.suppressUntil.Sub(now)
	}

	for key, b := range t.buckets {
		status.Buckets = append(status.Buckets, BucketStatus{
			Kind:                  key.Kind,
			Context:               key.Context,
			SinceLastNotification: now.Sub(b.lastNotified),
			Suppressed:            b.suppressed,
		})
	}
	sort.Slice(status.Buckets, func(i, j int) bool {
		if status.Buckets[i].Context == status.Buckets[j].Context {
			return status.Buckets[i].Kind < status.Buckets[j].Kind
		}
		return status.Buckets[i].Context < status.Buckets[j].Context
	})
	return status
}
