package comms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"amenpay/internal/domain/user"
	"amenpay/internal/jobs"
	"amenpay/internal/pkg/errs"
)

type pushRequest struct {
	UserID  int64          `json:"user_id"`
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func (p *Providers) SendPush(ctx context.Context, u *user.User, title, message string, data map[string]any) (jobs.ChannelResult, error) {
	if p.cfg.PushEndpoint == "" {
		p.logger.Info("push dry-run", "user_id", u.ID, "title", title)
		return jobs.ChannelResult{Success: true, Message: "dry-run"}, nil
	}

	body, err := json.Marshal(pushRequest{UserID: u.ID, Title: title, Message: message, Data: data})
	if err != nil {
		return jobs.ChannelResult{}, errs.Wrap(err, "failed to marshal push request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.PushEndpoint, bytes.NewReader(body))
	if err != nil {
		return jobs.ChannelResult{}, errs.Wrap(err, "failed to build push request")
	}
	req.Header.Set("Content-Type", "application/json")
	if p.cfg.PushServerKey != "" {
		req.Header.Set("Authorization", "key="+p.cfg.PushServerKey)
	}

	resp, err := p.httpc.Do(req)
	if err != nil {
		return jobs.ChannelResult{}, errs.Wrap(err, "push relay unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return jobs.ChannelResult{Success: false, Message: fmt.Sprintf("push relay rejected: %d", resp.StatusCode)}, nil
	}
	return jobs.ChannelResult{Success: true, Message: "accepted"}, nil
}
