// Package streamtest provides a scripted stream.Completer for tests.
package streamtest

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dshills/amptab/internal/markers"
	"github.com/dshills/amptab/internal/stream"
)

// Call is one recorded request.
type Call struct {
	Request  stream.Request
	Handlers stream.Handlers
	Task     *Task
}

// Respond delivers chunks then a terminal OnDone with their concatenation,
// unless the task was cancelled.
func (c *Call) Respond(chunks ...string) {
	full := ""
	for _, ch := range chunks {
		if c.Task.Cancelled() {
			return
		}
		full += ch
		if c.Handlers.OnChunk != nil {
			c.Handlers.OnChunk(ch)
		}
	}
	if c.Task.Cancelled() {
		return
	}
	c.Task.close()
	if c.Handlers.OnDone != nil {
		c.Handlers.OnDone(full)
	}
}

// Insert responds with the editable region rewritten to hold text at the
// user cursor.
func (c *Call) Insert(text string) {
	c.Respond(Rewrite(c.Request, text))
}

// Rewrite returns the editable region of req with text inserted where the
// prompt places the user cursor.
func Rewrite(req stream.Request, text string) string {
	start := strings.Index(req.Prompt, markers.EditableRegionStart)
	cursor := strings.Index(req.Prompt, markers.UserCursor)
	if start < 0 || cursor < start {
		return req.CodeToRewrite + text
	}
	prefix := req.Prompt[start+len(markers.EditableRegionStart)+1 : cursor]
	return prefix + text + req.CodeToRewrite[len(prefix):]
}

// Fail delivers OnError unless the task was cancelled.
func (c *Call) Fail(err error) {
	if c.Task.Cancelled() {
		return
	}
	c.Task.close()
	if c.Handlers.OnError != nil {
		c.Handlers.OnError(err)
	}
}

// Completer records requests and lets the test decide their outcome.
type Completer struct {
	mu    sync.Mutex
	calls []*Call
}

// NewCompleter creates an empty Completer.
func NewCompleter() *Completer {
	return &Completer{}
}

// Complete records the request and returns a pending task.
func (c *Completer) Complete(_ context.Context, req stream.Request, h stream.Handlers) stream.Task {
	call := &Call{Request: req, Handlers: h, Task: newTask()}
	c.mu.Lock()
	c.calls = append(c.calls, call)
	c.mu.Unlock()
	return call.Task
}

// Calls returns every recorded call in order.
func (c *Completer) Calls() []*Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Call, len(c.calls))
	copy(out, c.calls)
	return out
}

// Len returns the number of recorded calls.
func (c *Completer) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// Last returns the most recent call, or nil.
func (c *Completer) Last() *Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.calls) == 0 {
		return nil
	}
	return c.calls[len(c.calls)-1]
}

// Task is a stream.Task controlled by a Call.
type Task struct {
	cancelled atomic.Bool
	once      sync.Once
	done      chan struct{}
}

func newTask() *Task {
	return &Task{done: make(chan struct{})}
}

// Cancel marks the task cancelled.
func (t *Task) Cancel() {
	t.cancelled.Store(true)
	t.close()
}

// Cancelled reports whether Cancel was called.
func (t *Task) Cancelled() bool {
	return t.cancelled.Load()
}

// Done is closed once the task finished or was cancelled.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

func (t *Task) close() {
	t.once.Do(func() { close(t.done) })
}
