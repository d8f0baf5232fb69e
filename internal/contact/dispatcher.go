package contact

import (
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	logx "github.com/whatsapp-bot/server/pkg/logger"
)

// Dispatcher hands submissions to a Notifier, either inline or on a goroutine
// pool. In async mode the caller never learns the outcome and never waits.
type Dispatcher struct {
	notifier Notifier
	async    bool
	timeout  time.Duration

	pool *pool.Pool
	// sem bounds concurrent deliveries. It is acquired inside the task so
	// Submit never blocks on busy workers.
	sem chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewDispatcher creates a dispatcher. workers bounds concurrent async deliveries.
func NewDispatcher(notifier Notifier, async bool, workers int, timeout time.Duration) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		notifier: notifier,
		async:    async,
		timeout:  timeout,
		pool:     pool.New(),
		sem:      make(chan struct{}, workers),
	}
}

// Async reports whether Submit returns before the notification is delivered.
func (d *Dispatcher) Async() bool {
	return d.async
}

// Submit delivers sub. Async dispatch always returns nil; the notification
// outlives the request, so it runs on a context detached from ctx's cancellation.
// Submissions arriving after Wait are logged and dropped.
func (d *Dispatcher) Submit(ctx context.Context, sub Submission) error {
	if !d.async {
		return d.notifier.Notify(ctx, sub)
	}

	detached := context.WithoutCancel(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		logx.Error().Str("from", sub.Email).Msg("dispatcher is shut down; dropping contact notification")
		return nil
	}
	// an unbounded pool starts a goroutine instead of waiting for a free one
	d.pool.Go(func() { d.deliver(detached, sub) })
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, sub Submission) {
	d.sem <- struct{}{}
	defer func() { <-d.sem }()

	nctx, cancel := d.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	if err := d.notifier.Notify(nctx, sub); err != nil {
		logx.Error().Err(err).Str("from", sub.Email).Msg("contact notification failed")
		return
	}
	logx.Info().Str("from", sub.Email).Dur("took", time.Since(start)).Msg("contact notification delivered")
}

// Wait stops accepting submissions and blocks until every in-flight
// notification finished. Calling it more than once is safe.
func (d *Dispatcher) Wait() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	d.pool.Wait()
}

func (d *Dispatcher) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.timeout)
}
