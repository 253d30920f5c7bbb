package jobs

import (
	"context"
	"time"

	"amenpay/internal/domain/notification"
	"amenpay/internal/domain/transaction"
	"amenpay/internal/domain/user"
)

//go:generate mockgen -source=ports.go -destination=../../tests/mock/jobs/ports.go -package=jobsmock

// GatewayResult is what a payment gateway reports back. Success=false is a
// soft business failure (declined, insufficient funds); infrastructure
// trouble surfaces as an error from ProcessPayment instead.
type GatewayResult struct {
	Success bool
	Message string
	Data    map[string]any
}

// PaymentGateway fronts Mada, STC Pay and friends; the wire format behind it
// is out of scope here.
type PaymentGateway interface {
	ProcessPayment(ctx context.Context, tx *transaction.Transaction, gatewayType string) (GatewayResult, error)
}

// ChannelResult is the typed outcome of one delivery attempt. Channel
// failures are data, not errors: the caller aggregates without propagating.
type ChannelResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Communicator fronts the SMS/email/push providers. A returned error is
// treated as that channel's failure by callers, never as a job failure.
type Communicator interface {
	SendSMS(ctx context.Context, phone, message string) (ChannelResult, error)
	SendPush(ctx context.Context, u *user.User, title, message string, data map[string]any) (ChannelResult, error)
	SendEmail(ctx context.Context, u *user.User, subject, template string, templateData map[string]any) (ChannelResult, error)
	SendTransactionEmail(ctx context.Context, u *user.User, details map[string]any) (ChannelResult, error)
}

// TransactionRepository is the slice of persistence the payment job needs.
// The Mark* methods apply the transition with a conditional UPDATE guarded
// on status='pending'; claimed=false means another delivery won the race.
type TransactionRepository interface {
	FindByID(ctx context.Context, id int64) (*transaction.Transaction, error)
	MarkProcessing(ctx context.Context, id int64, processedAt time.Time, meta transaction.Metadata) (claimed bool, err error)
	MarkFailed(ctx context.Context, id int64, failedAt time.Time, meta transaction.Metadata) (claimed bool, err error)
}

type NotificationRepository interface {
	FindByID(ctx context.Context, id int64) (*notification.Notification, error)
	SettleDelivery(ctx context.Context, id int64, status notification.DeliveryStatus, sentAt time.Time, meta notification.Metadata) error
	MarkFailed(ctx context.Context, id int64, meta notification.Metadata) error
}

type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*user.User, error)
}
