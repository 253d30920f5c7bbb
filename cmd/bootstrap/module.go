package bootstrap

import (
	"go.uber.org/fx"

	"amenpay/cmd/bootstrap/components"
)

// Module wires the API server. The worker binary assembles its own set from
// the same building blocks.
var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	DBModule,
	RedisModule,
	QueueModule,
	JWTModule,
	components.RepositoryModule,
	components.UseCaseModule,
	components.HandlerModule,
)

// WorkerModule wires the queue worker binary.
var WorkerModule = fx.Options(
	ConfigModule,
	LoggerModule,
	DBModule,
	RedisModule,
	QueueModule,
	components.JobRepositoryModule,
	components.JobModule,
)
