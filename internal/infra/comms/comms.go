// Package comms implements the delivery providers behind the notification
// channels: Twilio for SMS, SendGrid for email and an HTTP push relay.
// Providers without credentials run dry, logging instead of sending, so local
// stacks work without provider accounts.
package comms

import (
	"log/slog"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	"github.com/twilio/twilio-go"

	"amenpay/internal/pkg/config"
)

type Providers struct {
	cfg      config.CommsConfig
	twilio   *twilio.RestClient
	sendgrid *sendgrid.Client
	httpc    *http.Client
	logger   *slog.Logger
}

func NewProviders(cfg config.CommsConfig, logger *slog.Logger) *Providers {
	p := &Providers{
		cfg:    cfg,
		httpc:  &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
	if cfg.TwilioAccountSID != "" {
		p.twilio = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.TwilioAccountSID,
			Password: cfg.TwilioAuthToken,
		})
	}
	if cfg.SendgridAPIKey != "" {
		p.sendgrid = sendgrid.NewSendClient(cfg.SendgridAPIKey)
	}
	return p
}
