package throttle

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestThrottle(window time.Duration) (*Throttle, *time.Time) {
	t := New(window, nil)
	now := time.Date(2023, 10, 1, 12, 0, 0, 0, time.UTC)
	t.now = func() time.Time { return now }
	return t, &now
}

func TestShouldNotifyDedupesWithinWindow(t *testing.T) {
	th, now := newTestThrottle(15 * time.Minute)
	errSend := errors.New("send failed")

	if !th.ShouldNotify("chime-1", errSend) {
		t.Fatal("first occurrence should notify")
	}
	if th.ShouldNotify("chime-1", errSend) {
		t.Error("repeat within the window should be suppressed")
	}

	*now = now.Add(14 * time.Minute)
	if th.ShouldNotify("chime-1", errSend) {
		t.Error("repeat just inside the window should be suppressed")
	}

	*now = now.Add(2 * time.Minute)
	if !th.ShouldNotify("chime-1", errSend) {
		t.Error("repeat after the window should notify again")
	}
}

func TestShouldNotifyKeysOnKindAndContext(t *testing.T) {
	th, _ := newTestThrottle(15 * time.Minute)
	errSend := errors.New("send failed")

	if !th.ShouldNotify("chime-1", errSend) {
		t.Fatal("first occurrence should notify")
	}
	if !th.ShouldNotify("chime-2", errSend) {
		t.Error("same error for a different context should notify")
	}
	if !th.ShouldNotify("chime-1", context.DeadlineExceeded) {
		t.Error("different error kind for the same context should notify")
	}
}

func TestGlobalSuppression(t *testing.T) {
	th, now := newTestThrottle(time.Minute)
	errSend := errors.New("send failed")

	th.Suppress(10 * time.Minute)
	if th.ShouldNotify("chime-1", errSend) {
		t.Error("suppression should silence even first occurrences")
	}

	*now = now.Add(11 * time.Minute)
	if !th.ShouldNotify("chime-1", errSend) {
		t.Error("notifications should resume after the suppression expires")
	}

	th.Suppress(10 * time.Minute)
	th.Resume()
	if !th.ShouldNotify("chime-2", errSend) {
		t.Error("Resume should lift the suppression immediately")
	}
}

func TestStatus(t *testing.T) {
	th, now := newTestThrottle(15 * time.Minute)
	errSend := errors.New("send failed")

	th.ShouldNotify("chime-1", errSend)
	th.ShouldNotify("chime-1", errSend)
	th.ShouldNotify("chime-1", errSend)
	*now = now.Add(5 * time.Minute)
	th.Suppress(10 * time.Minute)

	status := th.Status()
	if status.SuppressionRemaining != 10*time.Minute {
		t.Errorf("SuppressionRemaining = %v; want 10m", status.SuppressionRemaining)
	}
	if len(status.Buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(status.Buckets))
	}
	b := status.Buckets[0]
	if b.Context != "chime-1" || b.Kind != "transient" {
		t.Errorf("unexpected bucket key: %+v", b)
	}
	if b.Suppressed != 2 {
		t.Errorf("Suppressed = %d; want 2", b.Suppressed)
	}
	if b.SinceLastNotification != 5*time.Minute {
		t.Errorf("SinceLastNotification = %v; want 5m", b.SinceLastNotification)
	}
}

func TestForget(t *testing.T) {
	th, _ := newTestThrottle(15 * time.Minute)
	errSend := errors.New("send failed")

	th.ShouldNotify("chime-1", errSend)
	if th.ShouldNotify("chime-1", errSend) {
		t.Fatal("repeat should be suppressed")
	}

	th.Forget("chime-1")
	if !th.ShouldNotify("chime-1", errSend) {
		t.Error("a forgotten context should notify immediately on relapse")
	}
}
