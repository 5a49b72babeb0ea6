// Package worker runs best-effort background jobs on a bounded pool.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Job is a unit of background work. The context carries the values of the
// submitting context but not its cancellation, and expires after the
// dispatcher's job timeout.
type Job func(ctx context.Context)

type task struct {
	ctx  context.Context
	name string
	job  Job
}

// Dispatcher feeds jobs from a bounded queue to a fixed set of workers.
// Submit never blocks: when the queue is full the job runs on its own
// goroutine, which Shutdown still waits for.
type Dispatcher struct {
	queue    chan task
	workers  *pool.Pool
	overflow conc.WaitGroup
	timeout  time.Duration
	log      *zap.Logger

	mu     sync.RWMutex
	closed bool

	stopOnce sync.Once
	stopped  chan struct{}
}

// NewDispatcher starts workers goroutines draining a queue of queueSize jobs.
func NewDispatcher(workers, queueSize int, timeout time.Duration, log *zap.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	if log == nil {
		log = zap.NewNop()
	}

	d := &Dispatcher{
		queue:   make(chan task, queueSize),
		workers: pool.New().WithMaxGoroutines(workers),
		timeout: timeout,
		log:     log,
		stopped: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		d.workers.Go(d.drain)
	}
	return d
}

// Submit schedules job. It returns immediately.
func (d *Dispatcher) Submit(ctx context.Context, name string, job Job) {
	t := task{ctx: context.WithoutCancel(ctx), name: name, job: job}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.log.Warn("dispatcher closed, running job detached", zap.String("job", name))
		go d.run(t)
		return
	}

	select {
	case d.queue <- t:
	default:
		d.log.Warn("job queue full, running job on overflow goroutine", zap.String("job", name))
		d.overflow.Go(func() { d.run(t) })
	}
}

// Shutdown stops accepting queued work and waits for pending jobs to finish
// or for ctx to expire. It may be called more than once.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()

		go func() {
			d.workers.Wait()
			d.overflow.Wait()
			close(d.stopped)
		}()
	})

	select {
	case <-d.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) drain() {
	for t := range d.queue {
		d.run(t)
	}
}

func (d *Dispatcher) run(t task) {
	ctx := t.ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	var catcher panics.Catcher
	catcher.Try(func() { t.job(ctx) })
	if r := catcher.Recovered(); r != nil {
		d.log.Error("background job panicked",
			zap.String("job", t.name),
			zap.Any("panic", r.Value),
			zap.ByteString("stack", r.Stack),
		)
	}
}
