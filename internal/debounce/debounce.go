// Package debounce groups bursts of editor events into a single callback.
package debounce

import (
	"sync"
	"time"

	"github.com/dshills/amptab/internal/editor"
)

// Debouncer runs a callback once no new calls have arrived for a delay.
//
// The timer callback only posts onto the loop; the callback itself runs
// there. A sequence number discards timers that were superseded after they
// had already fired.
type Debouncer struct {
	mu       sync.Mutex
	delay    time.Duration
	clock    Clock
	loop     editor.Loop
	timer    Timer
	pending  bool
	seq      uint64
	callback func()
}

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithClock sets the clock.
func WithClock(c Clock) Option {
	return func(d *Debouncer) {
		if c != nil {
			d.clock = c
		}
	}
}

// WithLoop sets the loop the callback is posted to.
func WithLoop(l editor.Loop) Option {
	return func(d *Debouncer) {
		if l != nil {
			d.loop = l
		}
	}
}

// New creates a debouncer that runs callback after delay of quiet.
func New(delay time.Duration, callback func(), opts ...Option) *Debouncer {
	d := &Debouncer{
		delay:    delay,
		clock:    SystemClock,
		loop:     editor.Inline,
		callback: callback,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Call restarts the quiet period.
func (d *Debouncer) Call() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = true
	d.seq++
	seq := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.loop.Post(func() { d.fire(seq) })
	})
}

// Cancel drops a pending call.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	d.pending = false
}

// Pending reports whether a call is waiting for its quiet period.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if !d.pending || d.seq != seq || d.callback == nil {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.callback()
}
