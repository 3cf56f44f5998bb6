package editor

import (
	"context"
	"sync"
)

// Loop runs functions on the editor's event loop.
type Loop interface {
	Post(fn func())
}

// LoopFunc adapts a function to the Loop interface.
type LoopFunc func(fn func())

// Post calls f(fn).
func (f LoopFunc) Post(fn func()) {
	f(fn)
}

// Inline runs posted functions on the calling goroutine.
// It is only correct for hosts that are themselves single-threaded.
var Inline Loop = LoopFunc(func(fn func()) { fn() })

// Queue is a Loop backed by a FIFO of pending functions. Functions run only
// when the owner calls Run or Drain, so a single goroutine observes every
// callback.
type Queue struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Post enqueues fn. Safe for concurrent use.
func (q *Queue) Post(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Drain runs every queued function, including ones posted while draining,
// and returns how many ran.
func (q *Queue) Drain() int {
	ran := 0
	for {
		q.mu.Lock()
		batch := q.pending
		q.pending = nil
		q.mu.Unlock()

		if len(batch) == 0 {
			return ran
		}
		for _, fn := range batch {
			fn()
			ran++
		}
	}
}

// Run drains the queue whenever work arrives until ctx is done.
func (q *Queue) Run(ctx context.Context) {
	for {
		q.Drain()
		select {
		case <-ctx.Done():
			return
		case <-q.wake:
		}
	}
}

// RunUntil drains the queue until cond returns true or ctx is done.
// It reports whether cond was satisfied.
func (q *Queue) RunUntil(ctx context.Context, cond func() bool) bool {
	for {
		q.Drain()
		if cond() {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-q.wake:
		}
	}
}

// Len returns the number of queued functions.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
