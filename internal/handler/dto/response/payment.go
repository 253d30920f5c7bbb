package response

import (
	"time"

	"github.com/jinzhu/copier"

	"amenpay/internal/domain/transaction"
)

type TransactionResponse struct {
	ID          int64          `json:"id"`
	UserID      int64          `json:"user_id"`
	Amount      float64        `json:"amount"`
	Currency    string         `json:"currency"`
	Status      string         `json:"status"`
	GatewayType string         `json:"gateway_type"`
	ReferenceID string         `json:"reference_id"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	ProcessedAt *time.Time     `json:"processed_at,omitempty"`
	FailedAt    *time.Time     `json:"failed_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func FromTransaction(t *transaction.Transaction) *TransactionResponse {
	var resp TransactionResponse
	_ = copier.Copy(&resp, t)
	resp.Status = t.Status.String()
	resp.Metadata = t.Metadata
	return &resp
}

func FromTransactionList(items []*transaction.Transaction) []*TransactionResponse {
	out := make([]*TransactionResponse, len(items))
	for i, t := range items {
		out[i] = FromTransaction(t)
	}
	return out
}
