package debounce

import (
	"testing"
	"time"

	"github.com/dshills/amptab/internal/editor"
)

func newManual() *ManualClock {
	return NewManualClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
}

func TestDebouncerRunsOnceAfterBurst(t *testing.T) {
	clock := newManual()
	calls := 0
	d := New(100*time.Millisecond, func() { calls++ }, WithClock(clock))

	for i := 0; i < 10; i++ {
		d.Call()
		clock.Advance(50 * time.Millisecond)
	}
	if calls != 0 {
		t.Fatalf("calls = %d before quiet period, want 0", calls)
	}

	clock.Advance(100 * time.Millisecond)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if d.Pending() {
		t.Error("Pending() = true after firing")
	}
	if clock.Pending() != 0 {
		t.Errorf("clock.Pending() = %d, want 0", clock.Pending())
	}
}

func TestDebouncerCancel(t *testing.T) {
	clock := newManual()
	calls := 0
	d := New(100*time.Millisecond, func() { calls++ }, WithClock(clock))

	d.Call()
	d.Cancel()
	clock.Advance(time.Second)

	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
}

func TestDebouncerPostsToLoop(t *testing.T) {
	clock := newManual()
	q := editor.NewQueue()
	calls := 0
	d := New(100*time.Millisecond, func() { calls++ }, WithClock(clock), WithLoop(q))

	d.Call()
	clock.Advance(100 * time.Millisecond)
	if calls != 0 {
		t.Fatalf("callback ran outside the loop")
	}
	if n := q.Drain(); n != 1 {
		t.Errorf("Drain() = %d, want 1", n)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDebouncerDropsSupersededPost(t *testing.T) {
	clock := newManual()
	q := editor.NewQueue()
	calls := 0
	d := New(100*time.Millisecond, func() { calls++ }, WithClock(clock), WithLoop(q))

	d.Call()
	clock.Advance(100 * time.Millisecond)
	// The first timer already posted; a new call supersedes it.
	d.Call()
	q.Drain()
	if calls != 0 {
		t.Fatalf("calls = %d after stale post, want 0", calls)
	}

	clock.Advance(100 * time.Millisecond)
	q.Drain()
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
