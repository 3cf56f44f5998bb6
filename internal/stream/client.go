// Package stream talks to the completion API over server-sent events.
//
// Every callback is delivered through an editor.Loop so handlers run on the
// editor's thread. A cancelled task delivers nothing further, including its
// terminal callback.
package stream

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dshills/amptab/internal/editor"
	"github.com/dshills/amptab/internal/markers"
)

const (
	// maxLineSize bounds a single event line.
	maxLineSize = 1 << 20

	// maxErrorBody bounds how much of an error response is kept.
	maxErrorBody = 4 << 10

	doneSentinel = "[DONE]"
)

// Request is one completion request.
type Request struct {
	Prompt        string
	CodeToRewrite string
	Model         string
	Temperature   float64
	MaxTokens     int
	User          string
}

// Handlers receive the outcome of a request. Exactly one of OnDone and
// OnError is called unless the task is cancelled first. Nil handlers are
// skipped.
type Handlers struct {
	OnChunk func(text string)
	OnDone  func(full string)
	OnError func(err error)
}

// Task is a running request.
type Task interface {
	// Cancel aborts the request. Called from the loop callbacks are
	// delivered on, no callback runs after it returns.
	Cancel()

	// Cancelled reports whether Cancel was called.
	Cancelled() bool

	// Done is closed once the request goroutine has exited.
	Done() <-chan struct{}
}

// Completer starts streaming completions.
type Completer interface {
	Complete(ctx context.Context, req Request, h Handlers) Task
}

// Client is the HTTP completion client.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	loop     editor.Loop
	limiter  *rate.Limiter
	timeout  time.Duration
	log      *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the bearer token.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLoop sets the loop callbacks are delivered on. Without it callbacks run
// on the request goroutine.
func WithLoop(loop editor.Loop) Option {
	return func(c *Client) {
		if loop != nil {
			c.loop = loop
		}
	}
}

// WithRateLimit limits how many requests start per second. Zero or less
// disables the limit.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithTimeout bounds each request. Zero means no bound beyond the caller's
// context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient creates a client for endpoint.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     http.DefaultClient,
		loop:     editor.Inline,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete starts req and returns immediately.
func (c *Client) Complete(ctx context.Context, req Request, h Handlers) Task {
	t := &task{loop: c.loop, done: make(chan struct{})}

	if c.apiKey == "" {
		t.cancelFn = func() {}
		close(t.done)
		t.deliver(func() { callError(h, ErrNoCredential) })
		return t
	}
	if req.Prompt == "" {
		t.cancelFn = func() {}
		close(t.done)
		t.deliver(func() { callError(h, ErrEmptyPrompt) })
		return t
	}

	var cancel context.CancelFunc
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	t.cancelFn = cancel

	go func() {
		defer close(t.done)
		defer cancel()
		full, err := c.run(ctx, req, t, h)
		if err != nil {
			if !t.Cancelled() {
				c.log.Error("completion request failed", zap.Error(err))
			}
			t.deliver(func() { callError(h, err) })
			return
		}
		c.log.Debug("completion finished", zap.Int("bytes", len(full)))
		t.deliver(func() {
			if h.OnDone != nil {
				h.OnDone(full)
			}
		})
	}()
	return t
}

func (c *Client) run(ctx context.Context, req Request, t *task, h Handlers) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	body, err := requestBody(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	return c.readEvents(resp.Body, t, h)
}

// readEvents consumes data lines until [DONE] or end of stream and returns
// the accumulated text.
func (c *Client) readEvents(r io.Reader, t *task, h Handlers) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineSize)

	var full strings.Builder
	for scanner.Scan() {
		if t.Cancelled() {
			return "", context.Canceled
		}

		line := bytes.TrimRight(scanner.Bytes(), "\r")
		payload, ok := bytes.CutPrefix(line, []byte("data:"))
		if !ok {
			continue
		}
		payload = bytes.TrimSpace(payload)
		if string(payload) == doneSentinel {
			return full.String(), nil
		}

		text, err := chunkText(payload)
		if err != nil {
			return "", err
		}
		if text == "" {
			continue
		}
		full.WriteString(text)
		t.deliver(func() {
			if h.OnChunk != nil {
				h.OnChunk(text)
			}
		})
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read stream: %w", err)
	}
	return full.String(), nil
}

// chunkText extracts the text of one event payload. Payloads that are not
// JSON are ignored.
func chunkText(payload []byte) (string, error) {
	if !gjson.ValidBytes(payload) {
		return "", nil
	}
	if msg := gjson.GetBytes(payload, "error.message"); msg.Exists() {
		return "", &APIError{Message: msg.String()}
	}
	if text := gjson.GetBytes(payload, "choices.0.text"); text.Exists() {
		return text.String(), nil
	}
	return gjson.GetBytes(payload, "choices.0.delta.content").String(), nil
}

type bodyField struct {
	path  string
	value any
}

// requestBody renders req as the API's JSON body.
func requestBody(req Request) (string, error) {
	fields := []bodyField{
		{"stream", true},
		{"model", req.Model},
		{"temperature", req.Temperature},
		{"max_tokens", req.MaxTokens},
		{"prediction.type", "content"},
		{"prediction.content", req.CodeToRewrite},
		{"stop", []string{markers.EditableRegionEnd}},
		{"prompt", req.Prompt},
	}
	if req.User != "" {
		fields = append(fields, bodyField{"user", req.User})
	}

	body := "{}"
	var err error
	for _, f := range fields {
		body, err = sjson.Set(body, f.path, f.value)
		if err != nil {
			return "", fmt.Errorf("encode %s: %w", f.path, err)
		}
	}
	return body, nil
}

func callError(h Handlers, err error) {
	if h.OnError != nil {
		h.OnError(err)
	}
}

type task struct {
	loop      editor.Loop
	cancelled atomic.Bool
	cancelFn  context.CancelFunc
	done      chan struct{}
}

func (t *task) Cancel() {
	t.cancelled.Store(true)
	t.cancelFn()
}

func (t *task) Cancelled() bool {
	return t.cancelled.Load()
}

func (t *task) Done() <-chan struct{} {
	return t.done
}

// deliver posts fn to the loop. The cancellation flag is checked when fn
// runs, not when it is posted.
func (t *task) deliver(fn func()) {
	t.loop.Post(func() {
		if t.cancelled.Load() {
			return
		}
		fn()
	})
}
