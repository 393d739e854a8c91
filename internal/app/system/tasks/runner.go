// internal/app/system/tasks/runner.go
package tasks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds one run of a Job that sets no Timeout.
const DefaultTimeout = 30 * time.Second

// Job is a periodic maintenance task.
type Job struct {
	Name     string
	Interval time.Duration
	// Timeout bounds a single run. Zero means DefaultTimeout.
	Timeout time.Duration
	// Delay postpones the first run after Start. Zero runs it at once.
	Delay time.Duration
	Run   func(ctx context.Context) error
}

// Runner runs each registered Job on its own ticker.
type Runner struct {
	logger  *zap.Logger
	jobs    []Job
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	running atomic.Int32
	active  sync.Map // job name -> struct{}
	runs    sync.Map // job name -> *atomic.Int64
}

// New creates a new task runner.
func New(logger *zap.Logger) *Runner {
	return &Runner{logger: logger}
}

// Register adds a job. Call before Start.
func (r *Runner) Register(job Job) {
	if job.Timeout <= 0 {
		job.Timeout = DefaultTimeout
	}
	r.runs.Store(job.Name, new(atomic.Int64))
	r.jobs = append(r.jobs, job)
}

// Start launches every registered job. Call Stop to shut down.
func (r *Runner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	names := make([]string, 0, len(r.jobs))
	for _, job := range r.jobs {
		r.wg.Add(1)
		go r.loop(ctx, job)
		names = append(names, job.Name)
	}

	r.logger.Info("background task runner started", zap.Strings("jobs", names))
}

// Stop cancels all jobs and waits for running ones within ctx's deadline.
func (r *Runner) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("background task runner stopped gracefully")
		return nil
	case <-ctx.Done():
		var stillRunning []string
		r.active.Range(func(key, _ any) bool {
			stillRunning = append(stillRunning, key.(string))
			return true
		})
		r.logger.Warn("background task runner shutdown timed out",
			zap.Strings("jobs_still_running", stillRunning),
			zap.Int32("running_count", r.running.Load()))
		return ctx.Err()
	}
}

func (r *Runner) loop(ctx context.Context, job Job) {
	defer r.wg.Done()

	if job.Delay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(job.Delay):
		}
	}
	r.execute(ctx, job)

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.execute(ctx, job)
		}
	}
}

func (r *Runner) execute(ctx context.Context, job Job) {
	r.running.Add(1)
	r.active.Store(job.Name, struct{}{})
	defer func() {
		r.running.Add(-1)
		r.active.Delete(job.Name)
	}()
	if c, ok := r.runs.Load(job.Name); ok {
		c.(*atomic.Int64).Add(1)
	}

	start := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, job.Timeout)
	err := job.Run(runCtx)
	cancel()

	switch {
	case err == nil:
		r.logger.Debug("job completed",
			zap.String("job", job.Name),
			zap.Duration("duration", time.Since(start)))
	case ctx.Err() != nil:
		r.logger.Debug("job cancelled during shutdown", zap.String("job", job.Name))
	default:
		r.logger.Error("job failed",
			zap.String("job", job.Name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
	}
}

// RunOnce runs the named job immediately under its timeout.
func (r *Runner) RunOnce(ctx context.Context, name string) error {
	for _, job := range r.jobs {
		if job.Name == name {
			runCtx, cancel := context.WithTimeout(ctx, job.Timeout)
			defer cancel()
			return job.Run(runCtx)
		}
	}
	return fmt.Errorf("tasks: unknown job %q", name)
}

// Runs returns how many times the named job has started.
func (r *Runner) Runs(name string) int64 {
	if c, ok := r.runs.Load(name); ok {
		return c.(*atomic.Int64).Load()
	}
	return 0
}
