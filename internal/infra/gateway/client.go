// Package gateway talks to the payment processors. Each gateway type (mada,
// stc_pay, visa, ...) maps to an HTTP endpoint; a decline comes back as a
// soft result, only transport trouble surfaces as an error so the retry
// budget is spent on faults that can actually heal.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"amenpay/internal/domain/transaction"
	"amenpay/internal/jobs"
	"amenpay/internal/pkg/config"
	"amenpay/internal/pkg/errs"
)

type Client struct {
	cfg    config.GatewayConfig
	httpc  *http.Client
	logger *slog.Logger
}

func NewClient(cfg config.GatewayConfig, logger *slog.Logger) *Client {
	return &Client{
		cfg:    cfg,
		httpc:  &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type chargeRequest struct {
	TransactionID int64   `json:"transaction_id"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	ReferenceID   string  `json:"reference_id"`
}

type chargeResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

func (c *Client) ProcessPayment(ctx context.Context, tx *transaction.Transaction, gatewayType string) (jobs.GatewayResult, error) {
	endpoint, ok := c.cfg.Endpoints[gatewayType]
	if !ok || endpoint == "" {
		// No endpoint configured means dry-run: approve locally so the rest
		// of the pipeline can be exercised without a processor account.
		c.logger.Info("gateway dry-run", "transaction_id", tx.ID, "gateway", gatewayType)
		return jobs.GatewayResult{
			Success: true,
			Message: "approved (dry-run)",
			Data:    map[string]any{"gateway": gatewayType, "mode": "dry-run"},
		}, nil
	}

	body, err := json.Marshal(chargeRequest{
		TransactionID: tx.ID,
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		ReferenceID:   tx.ReferenceID,
	})
	if err != nil {
		return jobs.GatewayResult{}, errs.Wrap(err, "failed to marshal charge request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return jobs.GatewayResult{}, errs.Wrap(err, "failed to build charge request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return jobs.GatewayResult{}, errs.Wrap(err, "gateway unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return jobs.GatewayResult{}, errs.Newf("gateway returned %d", resp.StatusCode)
	}

	var out chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return jobs.GatewayResult{}, errs.Wrap(err, "failed to decode gateway response")
	}

	if !out.Success {
		c.logger.Warn("gateway declined charge",
			"transaction_id", tx.ID, "gateway", gatewayType, "message", out.Message)
	}
	return jobs.GatewayResult{
		Success: out.Success,
		Message: out.Message,
		Data:    mergeGatewayData(out.Data, gatewayType),
	}, nil
}

func mergeGatewayData(data map[string]any, gatewayType string) map[string]any {
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["gateway"]; !ok {
		data["gateway"] = gatewayType
	}
	return data
}
