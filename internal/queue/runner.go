package queue

import (
	"context"
	"log/slog"
	"time"

	"amenpay/internal/pkg/clock"
	"amenpay/internal/pkg/errs"
)

// JobSpec is the retry contract a job declares: attempt budget, per-attempt
// deadline, exception budget and the attempt->delay backoff function. The
// runner owns enforcement so job logic stays broker-agnostic.
type JobSpec struct {
	Tries         int
	Timeout       time.Duration
	MaxExceptions int
	Backoff       func(attempt int) time.Duration
}

// Job is one task type's handler. Failed is the terminal hook: invoked
// exactly once after the retry budget is exhausted, and never allowed to
// propagate an error past the runner.
type Job interface {
	Spec() JobSpec
	Handle(ctx context.Context, task *Task) error
	Failed(ctx context.Context, task *Task, err error)
}

// Runner consumes one queue and drives registered jobs through their retry
// contracts. Re-delivery is modeled by publishing a delayed copy of the task
// with updated attempt counters, so the schedule holds across processes.
type Runner struct {
	queue   Queue
	jobs    map[string]Job
	clock   clock.Clock
	logger  *slog.Logger
	metrics *Metrics
}

func NewRunner(q Queue, c clock.Clock, logger *slog.Logger, metrics *Metrics) *Runner {
	return &Runner{
		queue:   q,
		jobs:    make(map[string]Job),
		clock:   c,
		logger:  logger,
		metrics: metrics,
	}
}

func (r *Runner) Register(taskType string, job Job) {
	r.jobs[taskType] = job
}

// Run blocks consuming the named queue until the context is cancelled.
func (r *Runner) Run(ctx context.Context, queueName string) error {
	r.logger.Info("worker started", "queue", queueName)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("worker stopped", "queue", queueName)
			return ctx.Err()
		default:
		}

		task, err := r.queue.Dequeue(ctx, queueName, 5*time.Second)
		if err != nil {
			r.logger.Error("dequeue failed", "queue", queueName, "error", err)
			time.Sleep(time.Second)
			continue
		}
		if task == nil {
			continue
		}

		r.Dispatch(ctx, task)
	}
}

// Dispatch runs one delivery of a task through its job's retry contract.
func (r *Runner) Dispatch(ctx context.Context, task *Task) {
	job, ok := r.jobs[task.Type]
	if !ok {
		r.logger.Error("no job registered for task type", "type", task.Type, "task_id", task.ID)
		r.ack(ctx, task)
		return
	}

	spec := job.Spec()
	task.Attempts++

	start := r.clock.Now()
	err := r.runAttempt(ctx, job, spec, task)
	if err == nil {
		r.logger.Info("task completed",
			"task_id", task.ID, "type", task.Type, "attempt", task.Attempts,
			"tags", task.Tags, "duration", time.Since(start))
		if r.metrics != nil {
			r.metrics.TaskProcessed(task.Queue, task.Type)
		}
		r.ack(ctx, task)
		return
	}

	task.Exceptions++
	if r.metrics != nil {
		r.metrics.TaskFailed(task.Queue, task.Type)
	}

	if task.Attempts >= spec.Tries || task.Exceptions >= spec.MaxExceptions {
		r.logger.Error("task failed permanently",
			"task_id", task.ID, "type", task.Type, "attempts", task.Attempts,
			"tags", task.Tags, "error", err)
		r.runTerminalHook(ctx, job, task, err)
		if r.metrics != nil {
			r.metrics.TaskFailedPermanently(task.Queue, task.Type)
		}
		r.ack(ctx, task)
		return
	}

	delay := spec.Backoff(task.Attempts)
	retry := *task
	retry.ExecuteAt = r.clock.Now().Add(delay)
	retry.receipt = ""

	r.logger.Warn("task failed, scheduling retry",
		"task_id", task.ID, "type", task.Type, "attempt", task.Attempts,
		"retry_in", delay, "error", err)

	if pubErr := r.queue.Publish(ctx, &retry); pubErr != nil {
		// Leaving the delivery unacked lets the broker's processing list
		// recovery redeliver it rather than losing the task.
		r.logger.Error("failed to schedule retry", "task_id", task.ID, "error", pubErr)
		return
	}
	if r.metrics != nil {
		r.metrics.TaskRetried(task.Queue, task.Type)
	}
	r.ack(ctx, task)
}

func (r *Runner) runAttempt(ctx context.Context, job Job, spec JobSpec, task *Task) (err error) {
	attemptCtx := ctx
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = errs.Newf("job panicked: %v", rec)
		}
	}()

	return job.Handle(attemptCtx, task)
}

// runTerminalHook shields the runner from anything the hook does; errors
// there are logged, never propagated.
func (r *Runner) runTerminalHook(ctx context.Context, job Job, task *Task, cause error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("terminal failure hook panicked",
				"task_id", task.ID, "type", task.Type, "panic", rec)
		}
	}()

	job.Failed(ctx, task, cause)
}

func (r *Runner) ack(ctx context.Context, task *Task) {
	if err := r.queue.Ack(ctx, task); err != nil {
		r.logger.Error("failed to ack task", "task_id", task.ID, "error", err)
	}
}
