package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"amenpay/internal/infra/repository"
)

// BatchProcessor is the slice of the outbox repository the relay needs.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, limit int32, publish func(ctx context.Context, msg repository.OutboxMessage) error) (int, error)
}

type Metrics struct {
	published       *prometheus.CounterVec
	publishFailures prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "amenpay_outbox_published_total",
			Help: "Outbox events shipped to the broker.",
		}, []string{"event_type"}),
		publishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "amenpay_outbox_publish_failures_total",
			Help: "Outbox publish attempts rejected by the broker.",
		}),
	}
	reg.MustRegister(m.published, m.publishFailures)
	return m
}

// Relay polls staged outbox rows and ships them to the broker. Delivery is
// at-least-once: a row is only stamped published after the broker accepted it.
type Relay struct {
	repo      BatchProcessor
	publisher Publisher
	interval  time.Duration
	batchSize int32
	logger    *slog.Logger
	metrics   *Metrics
}

func NewRelay(repo BatchProcessor, publisher Publisher, interval time.Duration, batchSize int32, logger *slog.Logger, metrics *Metrics) *Relay {
	return &Relay{
		repo:      repo,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
		metrics:   metrics,
	}
}

func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("outbox relay started", "interval", r.interval, "batch_size", r.batchSize)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return
		case <-ticker.C:
			if err := r.poll(ctx); err != nil {
				r.logger.Error("outbox poll failed", "error", err)
			}
		}
	}
}

func (r *Relay) poll(ctx context.Context) error {
	published, err := r.repo.ProcessBatch(ctx, r.batchSize, func(ctx context.Context, msg repository.OutboxMessage) error {
		key := fmt.Sprintf("%s:%d", msg.EntityType, msg.EntityID)
		if err := r.publisher.Publish(ctx, []byte(key), msg.Payload); err != nil {
			r.metrics.publishFailures.Inc()
			r.logger.Warn("outbox publish rejected", "message_id", msg.ID, "event_type", msg.EventType, "error", err)
			return err
		}
		r.metrics.published.WithLabelValues(msg.EventType).Inc()
		return nil
	})
	if err != nil {
		return err
	}
	if published > 0 {
		r.logger.Info("outbox batch published", "count", published)
	}
	return nil
}
