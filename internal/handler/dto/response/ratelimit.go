package response

import "time"

type RateLimitInfoResponse struct {
	Key        string    `json:"key"`
	Category   string    `json:"category"`
	Remaining  int       `json:"remaining"`
	Max        int       `json:"max"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int64     `json:"retry_after_seconds"`
}
