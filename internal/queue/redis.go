package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"amenpay/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
)

const queuePrefix = "amenpay:queue:"

// RedisQueue moves tasks through three structures per logical queue: a main
// list (LPUSH/BRPOPLPUSH), a delayed sorted set scored by ready time, and a
// processing list that holds in-flight tasks until acked.
type RedisQueue struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisQueue(client *redis.Client, logger *slog.Logger) *RedisQueue {
	return &RedisQueue{
		client: client,
		logger: logger,
	}
}

func mainKey(name string) string       { return queuePrefix + name }
func delayedKey(name string) string    { return queuePrefix + name + ":delayed" }
func processingKey(name string) string { return queuePrefix + name + ":processing" }

func (q *RedisQueue) Publish(ctx context.Context, task *Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return errs.Wrap(err, "failed to marshal task")
	}

	if task.ExecuteAt.After(time.Now()) {
		score := float64(task.ExecuteAt.UnixNano()) / 1e9
		if err := q.client.ZAdd(ctx, delayedKey(task.Queue), redis.Z{Score: score, Member: data}).Err(); err != nil {
			return errs.Wrap(err, "failed to publish delayed task")
		}
		q.logger.Debug("task scheduled",
			"task_id", task.ID, "queue", task.Queue, "execute_at", task.ExecuteAt)
		return nil
	}

	if err := q.client.LPush(ctx, mainKey(task.Queue), data).Err(); err != nil {
		return errs.Wrap(err, "failed to publish task")
	}
	q.logger.Debug("task published", "task_id", task.ID, "queue", task.Queue)
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context, queueName string, block time.Duration) (*Task, error) {
	if err := q.promoteReady(ctx, queueName); err != nil {
		return nil, err
	}

	data, err := q.client.BRPopLPush(ctx, mainKey(queueName), processingKey(queueName), block).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(err, "failed to dequeue task")
	}

	var task Task
	if err := json.Unmarshal([]byte(data), &task); err != nil {
		// Corrupt payloads cannot be retried; drop from processing and move on.
		q.logger.Error("dropping malformed task", "queue", queueName, "error", err)
		q.client.LRem(ctx, processingKey(queueName), 1, data)
		return nil, nil
	}
	task.receipt = data
	return &task, nil
}

// promoteReady moves delayed tasks whose time has come onto the main list.
func (q *RedisQueue) promoteReady(ctx context.Context, queueName string) error {
	now := float64(time.Now().UnixNano()) / 1e9
	maxScore := fmt.Sprintf("%f", now)

	ready, err := q.client.ZRangeByScore(ctx, delayedKey(queueName), &redis.ZRangeBy{
		Min: "0",
		Max: maxScore,
	}).Result()
	if err != nil {
		return errs.Wrap(err, "failed to read delayed tasks")
	}
	if len(ready) == 0 {
		return nil
	}

	pipe := q.client.Pipeline()
	for _, data := range ready {
		pipe.LPush(ctx, mainKey(queueName), data)
	}
	pipe.ZRemRangeByScore(ctx, delayedKey(queueName), "0", maxScore)
	if _, err := pipe.Exec(ctx); err != nil {
		return errs.Wrap(err, "failed to promote delayed tasks")
	}

	q.logger.Debug("promoted delayed tasks", "queue", queueName, "count", len(ready))
	return nil
}

func (q *RedisQueue) Ack(ctx context.Context, task *Task) error {
	if task.receipt == "" {
		return nil
	}
	if err := q.client.LRem(ctx, processingKey(task.Queue), 1, task.receipt).Err(); err != nil {
		return errs.Wrap(err, "failed to ack task")
	}
	return nil
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}
