package comms

import (
	"context"
	"fmt"

	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"amenpay/internal/jobs"
	"amenpay/internal/pkg/errs"
)

func (p *Providers) SendSMS(ctx context.Context, phone, message string) (jobs.ChannelResult, error) {
	if p.twilio == nil {
		p.logger.Info("sms dry-run", "to", phone)
		return jobs.ChannelResult{Success: true, Message: "dry-run"}, nil
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetBody(message)
	params.SetFrom(p.cfg.TwilioFromNumber)
	params.SetTo(phone)

	resp, err := p.twilio.Api.CreateMessage(params)
	if err != nil {
		return jobs.ChannelResult{}, errs.Wrap(err, "twilio send failed")
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	return jobs.ChannelResult{Success: true, Message: fmt.Sprintf("sent (sid=%s)", sid)}, nil
}
