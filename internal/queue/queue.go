package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"amenpay/internal/pkg/clock"
)

// Queue is the broker contract the runner and the command layer depend on.
// Delivery is at-least-once and unordered across tasks.
type Queue interface {
	Publish(ctx context.Context, task *Task) error
	// Dequeue returns the next ready task from the named queue, blocking up
	// to the given duration; (nil, nil) means nothing was ready.
	Dequeue(ctx context.Context, queueName string, block time.Duration) (*Task, error)
	Ack(ctx context.Context, task *Task) error
	Close() error
}

// MemoryQueue holds tasks in process. Used by tests and local development;
// ready-time arithmetic runs on the injected clock so backoff schedules are
// assertable without sleeping.
type MemoryQueue struct {
	mu    sync.Mutex
	tasks map[string][]*Task
	clock clock.Clock
}

func NewMemoryQueue(c clock.Clock) *MemoryQueue {
	return &MemoryQueue{
		tasks: make(map[string][]*Task),
		clock: c,
	}
}

func (q *MemoryQueue) Publish(_ context.Context, task *Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.tasks[task.Queue] = append(q.tasks[task.Queue], task)
	sort.SliceStable(q.tasks[task.Queue], func(i, j int) bool {
		return q.tasks[task.Queue][i].ExecuteAt.Before(q.tasks[task.Queue][j].ExecuteAt)
	})
	return nil
}

func (q *MemoryQueue) Dequeue(_ context.Context, queueName string, _ time.Duration) (*Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.clock.Now()
	pending := q.tasks[queueName]
	for i, task := range pending {
		if task.ExecuteAt.After(now) {
			continue
		}
		q.tasks[queueName] = append(pending[:i:i], pending[i+1:]...)
		return task, nil
	}
	return nil, nil
}

func (q *MemoryQueue) Ack(_ context.Context, _ *Task) error {
	return nil
}

func (q *MemoryQueue) Close() error {
	return nil
}

// Pending exposes queued tasks for test assertions.
func (q *MemoryQueue) Pending(queueName string) []*Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]*Task, len(q.tasks[queueName]))
	copy(out, q.tasks[queueName])
	return out
}
