package bootstrap

import (
	"context"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"amenpay/internal/queue"
)

var QueueModule = fx.Module("queue",
	fx.Provide(
		fx.Annotate(
			NewQueue,
			fx.As(new(queue.Queue)),
		),
	),
)

func NewQueue(lc fx.Lifecycle, client *goredis.Client, logger *slog.Logger) *queue.RedisQueue {
	q := queue.NewRedisQueue(client, logger)

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return q.Close()
		},
	})

	return q
}
