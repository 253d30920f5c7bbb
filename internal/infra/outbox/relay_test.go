//go:build unit

package outbox

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amenpay/internal/infra/repository"
	"amenpay/internal/pkg/errs"
)

type fakeProcessor struct {
	staged []repository.OutboxMessage
}

func (f *fakeProcessor) ProcessBatch(ctx context.Context, limit int32, publish func(ctx context.Context, msg repository.OutboxMessage) error) (int, error) {
	published := 0
	for _, msg := range f.staged {
		if err := publish(ctx, msg); err != nil {
			break
		}
		published++
	}
	f.staged = f.staged[published:]
	return published, nil
}

type fakePublisher struct {
	keys    []string
	values  [][]byte
	failMsg string
}

func (f *fakePublisher) Publish(_ context.Context, key, value []byte) error {
	if f.failMsg != "" {
		return errs.New(f.failMsg)
	}
	f.keys = append(f.keys, string(key))
	f.values = append(f.values, value)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func newTestRelay(proc BatchProcessor, pub Publisher) (*Relay, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRelay(proc, pub, time.Second, 100, logger, NewMetrics(reg)), reg
}

func TestPollPublishesStagedMessages(t *testing.T) {
	proc := &fakeProcessor{staged: []repository.OutboxMessage{
		{EntityType: repository.EntityTypeTransaction, EntityID: 101, EventType: "payment_created", Payload: []byte(`{"id":101}`)},
		{EntityType: repository.EntityTypeTransaction, EntityID: 101, EventType: "payment_processing", Payload: []byte(`{"id":101}`)},
	}}
	pub := &fakePublisher{}
	relay, _ := newTestRelay(proc, pub)

	require.NoError(t, relay.poll(context.Background()))

	assert.Empty(t, proc.staged)
	assert.Equal(t, []string{"transaction:101", "transaction:101"}, pub.keys)
	assert.Equal(t, float64(1), testutil.ToFloat64(relay.metrics.published.WithLabelValues("payment_created")))
	assert.Equal(t, float64(1), testutil.ToFloat64(relay.metrics.published.WithLabelValues("payment_processing")))
}

func TestPollKeepsUnpublishedMessagesOnBrokerFailure(t *testing.T) {
	proc := &fakeProcessor{staged: []repository.OutboxMessage{
		{EntityType: repository.EntityTypeTransaction, EntityID: 101, EventType: "payment_created", Payload: []byte(`{}`)},
	}}
	pub := &fakePublisher{failMsg: "broker unavailable"}
	relay, _ := newTestRelay(proc, pub)

	require.NoError(t, relay.poll(context.Background()))

	assert.Len(t, proc.staged, 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(relay.metrics.publishFailures))
}
