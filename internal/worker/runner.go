package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"spiritus-backend/internal/domain"
)

// Task is a best-effort post-action. Its error never reaches the caller
// that submitted it.
type Task func(ctx context.Context) error

type job struct {
	name string
	task Task
}

// Runner executes post-actions one at a time on a single goroutine. At most
// one task waits behind the running one: submitting again replaces it.
type Runner struct {
	logger *slog.Logger

	mu      sync.Mutex
	pending *job
	wake    chan struct{}

	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	cancel   context.CancelFunc
	started  atomic.Bool

	completed  atomic.Int64
	failures   atomic.Int64
	superseded atomic.Int64
}

func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{
		logger:   logger,
		wake:     make(chan struct{}, 1),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the worker goroutine. Tasks receive a context derived from
// ctx that is cancelled by Stop.
func (r *Runner) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.started.Store(true)
	go r.worker(ctx)
	r.logger.Debug("post-action runner started")
}

// Stop cancels the running task, drops the waiting one and waits for the
// worker to exit.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopChan)
		if r.cancel != nil {
			r.cancel()
		}
	})
	if r.started.Load() {
		<-r.done
	}
}

// Submit queues task and reports whether it replaced one still waiting.
func (r *Runner) Submit(name string, task Task) bool {
	r.mu.Lock()
	replaced := r.pending != nil
	if replaced {
		r.superseded.Add(1)
		r.logger.Debug("post-action superseded", "task", r.pending.name, "by", name)
	}
	r.pending = &job{name: name, task: task}
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
	return replaced
}

func (r *Runner) Completed() int64  { return r.completed.Load() }
func (r *Runner) Failures() int64   { return r.failures.Load() }
func (r *Runner) Superseded() int64 { return r.superseded.Load() }

func (r *Runner) worker(ctx context.Context) {
	defer close(r.done)

	for {
		select {
		case <-r.stopChan:
			r.logger.Debug("post-action runner shutting down")
			return
		case <-r.wake:
		}

		r.mu.Lock()
		j := r.pending
		r.pending = nil
		r.mu.Unlock()

		if j == nil {
			continue
		}
		r.run(ctx, j)
	}
}

func (r *Runner) run(ctx context.Context, j *job) {
	err := safeRun(ctx, j.task)
	if err != nil {
		r.failures.Add(1)
		r.logger.Warn("post-action failed",
			"task", j.name,
			"error", fmt.Errorf("%w: %w", domain.ErrSecondaryEffect, err),
		)
		return
	}
	r.completed.Add(1)
}

func safeRun(ctx context.Context, task Task) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return task(ctx)
}
