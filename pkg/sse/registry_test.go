package sse

import (
	"testing"
	"time"
)

func newRegistryWithGrace(grace time.Duration) *Registry {
	return &Registry{
		byTask:      make(map[string]*Broadcaster),
		timers:      make(map[string]*time.Timer),
		gracePeriod: grace,
	}
}

func TestGetOrCreateReusesBroadcaster(t *testing.T) {
	r := NewRegistry()

	b1 := r.GetOrCreate("task-1")
	b2 := r.GetOrCreate("task-1")

	if b1 != b2 {
		t.Fatal("expected GetOrCreate to return the same broadcaster for the same task")
	}
}

func TestGetReturnsFalseForUnknownTask(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Get("missing"); ok {
		t.Fatal("expected Get to report false for a task with no broadcaster")
	}
}

func TestCloseRemovesBroadcaster(t *testing.T) {
	r := NewRegistry()
	r.GetOrCreate("task-1")

	r.Close("task-1")

	if _, ok := r.Get("task-1"); ok {
		t.Fatal("expected broadcaster to be removed after Close")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	r := NewRegistry()
	r.GetOrCreate("task-1")

	r.Close("task-1")
	r.Close("task-1")
}

func TestScheduleEvictionIfIdleClosesBroadcasterAfterGracePeriod(t *testing.T) {
	r := newRegistryWithGrace(10 * time.Millisecond)
	r.GetOrCreate("task-1")

	r.ScheduleEvictionIfIdle("task-1")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := r.Get("task-1"); !ok {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("expected broadcaster to be evicted after the grace period elapsed")
}

func TestScheduleEvictionIfIdleSkipsClosingWhenSubscriberReconnects(t *testing.T) {
	r := newRegistryWithGrace(20 * time.Millisecond)
	b := r.GetOrCreate("task-1")

	r.ScheduleEvictionIfIdle("task-1")

	_, cancel := b.Subscribe(0)
	defer cancel()

	time.Sleep(50 * time.Millisecond)

	if _, ok := r.Get("task-1"); !ok {
		t.Fatal("expected broadcaster to survive eviction once a subscriber reconnected")
	}
}

func TestScheduleEvictionIfIdleNoopWhenSubscribersPresent(t *testing.T) {
	r := newRegistryWithGrace(10 * time.Millisecond)
	b := r.GetOrCreate("task-1")

	_, cancel := b.Subscribe(0)
	defer cancel()

	r.ScheduleEvictionIfIdle("task-1")

	time.Sleep(30 * time.Millisecond)

	if _, ok := r.Get("task-1"); !ok {
		t.Fatal("expected broadcaster with an active subscriber to not be evicted")
	}
}

func TestScheduleEvictionIfIdleIgnoresUnknownTask(t *testing.T) {
	r := newRegistryWithGrace(10 * time.Millisecond)

	r.ScheduleEvictionIfIdle("missing")

	if _, ok := r.Get("missing"); ok {
		t.Fatal("expected no broadcaster to be created for an unknown task")
	}
}
