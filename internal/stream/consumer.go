// Package stream maintains one long-lived server-sent-event connection to
// the backend and republishes decoded payloads as discrete events.
package stream

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"safevision-console/internal/queue"
	"safevision-console/internal/schema"
)

// dataPrefix marks SSE lines that carry a payload. Every other line
// (comments, keep-alives, event names) is ignored.
const dataPrefix = "data: "

// maxLineSize bounds a single SSE line.
const maxLineSize = 1 << 20 // 1MB

// State is the consumer's connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateStreaming    State = "streaming"
)

// Subscriber receives stream deliveries. All callbacks fire on one dispatch
// goroutine, in wire order, so subscribers never need their own locking for
// state touched only from callbacks. Callbacks must not call back into the
// consumer. OnError and OnFinished are terminal: the consumer has already
// torn the connection down and a fresh Connect is allowed.
type Subscriber interface {
	OnEvent(ev *schema.StreamEvent)
	OnError(err error)
	OnFinished()
}

// Config holds configuration for the stream consumer.
type Config struct {
	// BufferSize caps how many decoded events may wait for dispatch.
	BufferSize int `yaml:"buffer_size"`

	// InsecureSkipVerifyHost disables TLS certificate verification when it
	// matches the stream URL's host. Same compatibility exception as the API
	// client.
	InsecureSkipVerifyHost string `yaml:"insecure_skip_verify_host"`
}

// DefaultConfig returns the default stream configuration.
func DefaultConfig() Config {
	return Config{BufferSize: 1024}
}

// Consumer is an explicit state machine over one SSE connection:
// disconnected -> connecting -> streaming -> disconnected. Connect while
// already connecting or streaming is a no-op, so at most one live stream
// exists. A stream-level error is terminal for that connection; reconnecting
// is the caller's choice, never automatic.
type Consumer struct {
	cfg    Config
	sub    Subscriber
	client *http.Client

	mu      sync.Mutex
	state   State
	cancel  context.CancelFunc
	buf     *queue.RingBuffer
	termErr error
	gen     uint64
}

// NewConsumer creates a stream consumer delivering to sub. The underlying
// HTTP client carries no overall timeout since the connection is expected to
// stay open indefinitely.
func NewConsumer(cfg Config, sub Subscriber) (*Consumer, error) {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()

	return &Consumer{
		cfg:    cfg,
		sub:    sub,
		client: &http.Client{Transport: transport},
		state:  StateDisconnected,
	}, nil
}

// State returns the current connection state.
func (c *Consumer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Metrics returns the delivery queue counters for the current connection, or
// a zero value when disconnected.
func (c *Consumer) Metrics() queue.QueueMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.buf == nil {
		return queue.QueueMetrics{}
	}
	return c.buf.Metrics()
}

// Connect opens the SSE stream at streamURL and begins delivering events.
// It is a no-op when a connection is already being established or is live,
// so at most one stream exists at a time.
func (c *Consumer) Connect(streamURL string) error {
	u, err := url.Parse(streamURL)
	if err != nil {
		return fmt.Errorf("invalid stream url %q: %w", streamURL, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateDisconnected {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	buf := queue.NewRingBuffer(c.cfg.BufferSize)

	c.state = StateConnecting
	c.cancel = cancel
	c.buf = buf
	c.termErr = nil
	c.gen++
	gen := c.gen

	if transport, ok := c.client.Transport.(*http.Transport); ok {
		skip := c.cfg.InsecureSkipVerifyHost != "" && u.Hostname() == c.cfg.InsecureSkipVerifyHost
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: skip}
	}

	go c.readLoop(ctx, gen, streamURL, buf)
	go c.dispatch(gen, buf)

	slog.Debug("event stream connecting", "url", streamURL)
	return nil
}

// Disconnect cancels any in-flight network activity and returns to the
// disconnected state. It is idempotent, and no subscriber callback fires
// after it returns.
func (c *Consumer) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateDisconnected {
		return
	}

	c.cancel()
	if c.buf != nil {
		c.buf.Close()
	}
	c.state = StateDisconnected

	slog.Debug("event stream disconnected")
}

// readLoop owns the network side of one connection: it issues the request,
// scans the response line by line, and pushes decoded events into buf. It
// never touches the subscriber directly.
func (c *Consumer) readLoop(ctx context.Context, gen uint64, streamURL string, buf *queue.RingBuffer) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		c.finish(gen, buf, err)
		return
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Connection", "keep-alive")

	resp, err := c.client.Do(req)
	if err != nil {
		c.finish(gen, buf, fmt.Errorf("stream connect: %w", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.finish(gen, buf, fmt.Errorf("stream returned %s", resp.Status))
		return
	}

	c.setStreaming(gen)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		payload, ok := strings.CutPrefix(scanner.Text(), dataPrefix)
		if !ok {
			continue
		}

		ev, err := schema.DecodeStreamEvent([]byte(payload))
		if err != nil {
			// A malformed payload never tears the stream down.
			slog.Warn("skipping undecodable stream payload", "error", err)
			continue
		}

		if err := buf.Push(ev); err != nil {
			slog.Warn("dropping stream event", "error", err, "alert_id", ev.AlertID)
		}
	}

	// nil scanner error means the server closed the stream cleanly.
	c.finish(gen, buf, scanner.Err())
}

// dispatch drains buf on a single goroutine so events reach the subscriber
// serially and in order, then delivers the terminal signal once the read
// loop is done.
func (c *Consumer) dispatch(gen uint64, buf *queue.RingBuffer) {
	for {
		ev, err := buf.PopBlocking()
		if err != nil {
			break
		}
		c.emit(gen, ev)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// A user Disconnect or a newer connection means no terminal callback.
	if c.gen != gen || c.state == StateDisconnected {
		return
	}

	c.cancel()
	c.state = StateDisconnected

	if c.termErr != nil {
		slog.Warn("event stream failed", "error", c.termErr)
		c.sub.OnError(c.termErr)
	} else {
		slog.Debug("event stream completed")
		c.sub.OnFinished()
	}
}

// emit forwards one event unless the connection was torn down since it was
// queued. Holding the state lock across the callback keeps the
// no-callback-after-Disconnect guarantee airtight.
func (c *Consumer) emit(gen uint64, ev *schema.StreamEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen || c.state == StateDisconnected {
		return
	}
	c.sub.OnEvent(ev)
}

func (c *Consumer) setStreaming(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen == gen && c.state == StateConnecting {
		c.state = StateStreaming
		slog.Debug("event stream established")
	}
}

// finish records the read loop's terminal outcome and closes the queue so
// the dispatcher drains remaining events and then signals the subscriber.
func (c *Consumer) finish(gen uint64, buf *queue.RingBuffer, err error) {
	c.mu.Lock()
	if c.gen == gen && c.state != StateDisconnected {
		c.termErr = err
	}
	c.mu.Unlock()

	buf.Close()
}
