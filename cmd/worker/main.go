package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"amenpay/cmd/bootstrap"
	"amenpay/internal/infra/outbox"
	"amenpay/internal/jobs"
	"amenpay/internal/pkg/config"
	"amenpay/internal/queue"
)

type workerDeps struct {
	fx.In

	Runner          *queue.Runner
	PaymentJob      *jobs.ProcessPaymentJob
	NotificationJob *jobs.SendNotificationJob
	Relay           *outbox.Relay
	Publisher       outbox.Publisher
	Registry        *prometheus.Registry
	Config          config.Config
	Logger          *slog.Logger
}

func startWorkers(lc fx.Lifecycle, deps workerDeps) {
	deps.Runner.Register(jobs.TaskTypeProcessPayment, deps.PaymentJob)
	deps.Runner.Register(jobs.TaskTypeSendNotification, deps.NotificationJob)

	runCtx, cancel := context.WithCancel(context.Background())

	metricsSrv := &http.Server{
		Addr:              ":" + deps.Config.Jobs.WorkerMetricsPort,
		Handler:           promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			deps.Logger.Info("starting workers",
				"queues", []string{queue.QueuePayments, queue.QueueNotifications},
				"metrics_addr", metricsSrv.Addr)

			go func() {
				if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					deps.Logger.Error("metrics server failed", "error", err)
				}
			}()

			go func() { _ = deps.Runner.Run(runCtx, queue.QueuePayments) }()
			go func() { _ = deps.Runner.Run(runCtx, queue.QueueNotifications) }()
			go deps.Relay.Run(runCtx)

			return nil
		},
		OnStop: func(ctx context.Context) error {
			deps.Logger.Info("stopping workers")
			cancel()
			if err := deps.Publisher.Close(); err != nil {
				deps.Logger.Error("failed to close event publisher", "error", err)
			}
			return metricsSrv.Shutdown(ctx)
		},
	})
}

func main() {
	app := fx.New(
		bootstrap.WorkerModule,
		fx.Invoke(
			startWorkers,
		),
	)

	if err := app.Start(context.Background()); err != nil {
		slog.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	<-app.Done()

	if err := app.Stop(context.Background()); err != nil {
		slog.Error("failed to stop worker cleanly", "error", err)
	}

	slog.Info("worker stopped")
}
