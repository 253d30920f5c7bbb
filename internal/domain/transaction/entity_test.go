//go:build unit

package transaction_test

import (
	"testing"
	"time"

	"amenpay/internal/domain/transaction"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tx, err := transaction.New(7, 150.50, "SAR", "mada", "AMN-2026-0001")
	require.NoError(t, err)

	assert.Equal(t, transaction.StatusPending, tx.Status)
	assert.True(t, tx.IsPending())
	assert.NotNil(t, tx.Metadata)
	assert.Nil(t, tx.ProcessedAt)
	assert.Nil(t, tx.FailedAt)

	_, err = transaction.New(7, 0, "SAR", "mada", "AMN-2026-0002")
	assert.ErrorIs(t, err, transaction.ErrInvalidAmount)

	_, err = transaction.New(7, -10, "SAR", "mada", "AMN-2026-0003")
	assert.ErrorIs(t, err, transaction.ErrInvalidAmount)
}

func TestStatusTransitions(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	t.Run("pending to processing", func(t *testing.T) {
		tx, _ := transaction.New(1, 10, "SAR", "mada", "r1")
		err := tx.MarkProcessing(now, transaction.Metadata{"gateway_response": "ok"})
		require.NoError(t, err)
		assert.Equal(t, transaction.StatusProcessing, tx.Status)
		require.NotNil(t, tx.ProcessedAt)
		assert.Equal(t, now, *tx.ProcessedAt)
		assert.Equal(t, "ok", tx.Metadata["gateway_response"])
	})

	t.Run("pending to failed", func(t *testing.T) {
		tx, _ := transaction.New(1, 10, "SAR", "mada", "r2")
		err := tx.MarkFailed(now, transaction.Metadata{"failure_reason": "declined"})
		require.NoError(t, err)
		assert.Equal(t, transaction.StatusFailed, tx.Status)
		require.NotNil(t, tx.FailedAt)
	})

	t.Run("processing cannot move again", func(t *testing.T) {
		tx, _ := transaction.New(1, 10, "SAR", "mada", "r3")
		require.NoError(t, tx.MarkProcessing(now, nil))
		assert.ErrorIs(t, tx.MarkFailed(now, nil), transaction.ErrInvalidTransition)
		assert.ErrorIs(t, tx.MarkProcessing(now, nil), transaction.ErrInvalidTransition)
	})
}

func TestMetadataMerge(t *testing.T) {
	base := transaction.Metadata{"a": 1, "b": "old"}
	merged := base.Merge(transaction.Metadata{"b": "new", "c": true})

	assert.Equal(t, transaction.Metadata{"a": 1, "b": "new", "c": true}, merged)
	// receiver untouched so CAS retries re-merge against fresh state
	assert.Equal(t, "old", base["b"])
}

func TestNewStatus(t *testing.T) {
	for _, valid := range []string{"pending", "processing", "failed"} {
		st, err := transaction.NewStatus(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, st.String())
	}

	_, err := transaction.NewStatus("settled")
	assert.ErrorIs(t, err, transaction.ErrInvalidStatus)
}
