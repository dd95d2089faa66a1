// Package poller drives fixed-interval alert fetches against the backend and
// forwards each result to a single subscriber.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"safevision-console/internal/schema"
)

// DefaultInterval is the poll interval used when none is configured.
const DefaultInterval = time.Second

// Fetcher fetches the current alert list. api.Client satisfies this.
type Fetcher interface {
	ListAlerts(ctx context.Context) ([]schema.Alert, error)
}

// Result is one poll outcome: either a full replacement alert list or a
// classified failure. Callers must treat the list as a replacement, never a
// delta; results are not guaranteed to arrive in issue order.
type Result struct {
	Alerts []schema.Alert
	Err    error
}

// Poller issues recurring alert fetches. It is an explicit two-state machine
// (idle, running): Start while running and Stop while idle are safe no-ops,
// and a stopped poller can be re-armed. Failed ticks are retried on the next
// interval with no backoff; a failure streak is visible to the subscriber
// only as repeated failure results.
type Poller struct {
	fetcher  Fetcher
	interval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	cancel  context.CancelFunc

	inFlight atomic.Bool

	// Metrics (accessed atomically)
	polls    uint64
	failures uint64
	skipped  uint64
}

// New creates a poller. A non-positive interval falls back to
// DefaultInterval.
func New(fetcher Fetcher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{fetcher: fetcher, interval: interval}
}

// Start transitions the poller to running and begins ticking. It is a no-op
// when already running, so a second Start never arms a second timer. Results
// are delivered to onResult serially; onResult must not call back into the
// poller.
func (p *Poller) Start(onResult func(Result)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	stopCh := make(chan struct{})
	p.running = true
	p.stopCh = stopCh
	p.cancel = cancel

	go p.run(ctx, stopCh, onResult)

	slog.Debug("alert poller started", "interval", p.interval)
}

// Stop cancels the timer and any in-flight fetch and transitions to idle.
// No result callback fires after Stop returns, even for a fetch that was
// already in flight. Stop is idempotent and a later Start re-arms the
// poller.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.cancel()
	p.running = false

	slog.Debug("alert poller stopped")
}

// Running reports whether the poller is in the running state.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller) run(ctx context.Context, stopCh chan struct{}, onResult func(Result)) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Initial fetch so subscribers see data before the first full interval.
	p.issue(ctx, stopCh, onResult)

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			p.issue(ctx, stopCh, onResult)
		}
	}
}

// issue starts one fetch unless a previous one is still in flight. Ticks are
// never queued: a slow fetch simply swallows the ticks it overlaps.
func (p *Poller) issue(ctx context.Context, stopCh chan struct{}, onResult func(Result)) {
	if !p.inFlight.CompareAndSwap(false, true) {
		atomic.AddUint64(&p.skipped, 1)
		return
	}

	go func() {
		defer p.inFlight.Store(false)

		alerts, err := p.fetcher.ListAlerts(ctx)
		atomic.AddUint64(&p.polls, 1)
		if err != nil {
			atomic.AddUint64(&p.failures, 1)
		}

		p.deliver(stopCh, onResult, Result{Alerts: alerts, Err: err})
	}()
}

// deliver forwards a result unless the poller was stopped since the fetch
// was issued. Holding the state lock across the callback is what makes the
// no-callback-after-Stop guarantee airtight.
func (p *Poller) deliver(stopCh chan struct{}, onResult func(Result), res Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running || p.stopCh != stopCh {
		return
	}
	onResult(res)
}

// Stats returns poller counters.
func (p *Poller) Stats() Stats {
	return Stats{
		Polls:    atomic.LoadUint64(&p.polls),
		Failures: atomic.LoadUint64(&p.failures),
		Skipped:  atomic.LoadUint64(&p.skipped),
		Running:  p.Running(),
	}
}

// Stats holds poller counters.
type Stats struct {
	Polls    uint64 `json:"polls"`
	Failures uint64 `json:"failures"`
	Skipped  uint64 `json:"skipped"`
	Running  bool   `json:"running"`
}
