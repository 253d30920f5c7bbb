package comms

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"amenpay/internal/domain/user"
	"amenpay/internal/jobs"
	"amenpay/internal/pkg/errs"
)

func (p *Providers) SendEmail(ctx context.Context, u *user.User, subject, template string, templateData map[string]any) (jobs.ChannelResult, error) {
	body := renderTemplate(template, templateData)
	return p.sendEmail(ctx, u.Email, subject, body)
}

func (p *Providers) SendTransactionEmail(ctx context.Context, u *user.User, details map[string]any) (jobs.ChannelResult, error) {
	subject := fmt.Sprintf("Payment receipt %v", details["reference_id"])
	body := renderTemplate("transaction_receipt", details)
	return p.sendEmail(ctx, u.Email, subject, body)
}

func (p *Providers) sendEmail(_ context.Context, to, subject, body string) (jobs.ChannelResult, error) {
	if p.sendgrid == nil {
		p.logger.Info("email dry-run", "to", to, "subject", subject)
		return jobs.ChannelResult{Success: true, Message: "dry-run"}, nil
	}

	from := mail.NewEmail(p.cfg.SendgridFromName, p.cfg.SendgridFromMail)
	message := mail.NewSingleEmail(from, subject, mail.NewEmail("", to), body, "")

	resp, err := p.sendgrid.Send(message)
	if err != nil {
		return jobs.ChannelResult{}, errs.Wrap(err, "sendgrid send failed")
	}
	if resp.StatusCode >= 400 {
		return jobs.ChannelResult{Success: false, Message: fmt.Sprintf("sendgrid rejected: %d", resp.StatusCode)}, nil
	}
	return jobs.ChannelResult{Success: true, Message: "accepted"}, nil
}

// renderTemplate flattens the template data into a plain-text body. Rich HTML
// templates live on the provider side; the payload here is the fallback text.
func renderTemplate(template string, data map[string]any) string {
	switch template {
	case "transaction_receipt":
		return fmt.Sprintf("Amount: %v %v\nReference: %v\nStatus: %v",
			data["amount"], data["currency"], data["reference_id"], data["status"])
	default:
		return fmt.Sprintf("%v\n\n%v", data["title"], data["message"])
	}
}
