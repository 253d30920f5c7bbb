package transaction

import (
	"errors"
	"time"
)

var (
	ErrInvalidStatus     = errors.New("invalid transaction status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidAmount     = errors.New("amount must be positive")
)

// Transaction is the payment record mutated exclusively by the payment
// processing job once created. Version backs the optimistic CAS used for
// metadata merges under concurrent workers.
type Transaction struct {
	ID          int64
	UserID      int64
	Amount      float64
	Currency    string
	Status      Status
	GatewayType string
	ReferenceID string
	Metadata    Metadata
	Version     int32
	ProcessedAt *time.Time
	FailedAt    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func New(userID int64, amount float64, currency, gatewayType, referenceID string) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return &Transaction{
		UserID:      userID,
		Amount:      amount,
		Currency:    currency,
		Status:      StatusPending,
		GatewayType: gatewayType,
		ReferenceID: referenceID,
		Metadata:    Metadata{},
	}, nil
}

func (t *Transaction) IsPending() bool {
	return t.Status == StatusPending
}

// MarkProcessing applies the success transition in memory. Persistence still
// guards with a conditional UPDATE, so a lost race surfaces as zero rows.
func (t *Transaction) MarkProcessing(now time.Time, extra Metadata) error {
	if !t.IsPending() {
		return ErrInvalidTransition
	}
	t.Status = StatusProcessing
	t.ProcessedAt = &now
	t.Metadata = t.Metadata.Merge(extra)
	return nil
}

func (t *Transaction) MarkFailed(now time.Time, extra Metadata) error {
	if !t.IsPending() {
		return ErrInvalidTransition
	}
	t.Status = StatusFailed
	t.FailedAt = &now
	t.Metadata = t.Metadata.Merge(extra)
	return nil
}
