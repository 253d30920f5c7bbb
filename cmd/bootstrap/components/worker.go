package components

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"amenpay/internal/infra/comms"
	"amenpay/internal/infra/gateway"
	"amenpay/internal/infra/outbox"
	repo_impl "amenpay/internal/infra/repository"
	"amenpay/internal/jobs"
	"amenpay/internal/pkg/clock"
	"amenpay/internal/pkg/config"
	"amenpay/internal/queue"
)

var JobRepositoryModule = fx.Module("job/repository",
	fx.Provide(
		fx.Annotate(
			repo_impl.NewTransactionRepository,
			fx.As(new(jobs.TransactionRepository)),
		),
		fx.Annotate(
			repo_impl.NewNotificationRepository,
			fx.As(new(jobs.NotificationRepository)),
		),
		fx.Annotate(
			repo_impl.NewUserRepository,
			fx.As(new(jobs.UserRepository)),
		),
		fx.Annotate(
			repo_impl.NewOutboxRepository,
			fx.As(new(outbox.BatchProcessor)),
		),
	),
)

var JobModule = fx.Module("job",
	fx.Provide(
		clock.NewRealClock,
		prometheus.NewRegistry,
		func(reg *prometheus.Registry) *queue.Metrics {
			return queue.NewMetrics(reg)
		},
		func(reg *prometheus.Registry) *outbox.Metrics {
			return outbox.NewMetrics(reg)
		},
		fx.Annotate(
			gateway.NewClient,
			fx.As(new(jobs.PaymentGateway)),
		),
		fx.Annotate(
			comms.NewProviders,
			fx.As(new(jobs.Communicator)),
		),
		jobs.NewProcessPaymentJob,
		jobs.NewSendNotificationJob,
		queue.NewRunner,
		fx.Annotate(
			outbox.NewKafkaPublisher,
			fx.As(new(outbox.Publisher)),
		),
		NewOutboxRelay,
	),
)

func NewOutboxRelay(
	repo outbox.BatchProcessor,
	publisher outbox.Publisher,
	cfg config.JobsConfig,
	logger *slog.Logger,
	metrics *outbox.Metrics,
) *outbox.Relay {
	return outbox.NewRelay(repo, publisher, cfg.OutboxPollInterval, cfg.OutboxBatchSize, logger, metrics)
}
