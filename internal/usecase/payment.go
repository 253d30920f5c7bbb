package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"amenpay/internal/domain/transaction"
	"amenpay/internal/infra"
	"amenpay/internal/jobs"
	"amenpay/internal/pkg/config"
	"amenpay/internal/pkg/errs"
	"amenpay/internal/queue"
)

type TransactionRepository interface {
	Create(ctx context.Context, t *transaction.Transaction) (*transaction.Transaction, error)
	FindByID(ctx context.Context, id int64) (*transaction.Transaction, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int32) ([]*transaction.Transaction, error)
}

type CreatePaymentInput struct {
	Amount   float64
	Currency string
	Gateway  string
}

type PaymentUseCase interface {
	CreatePayment(ctx context.Context, userID int64, input CreatePaymentInput) (*transaction.Transaction, error)
	GetPayment(ctx context.Context, userID, transactionID int64) (*transaction.Transaction, error)
	ListPayments(ctx context.Context, userID int64, limit, offset int32) ([]*transaction.Transaction, error)
}

type paymentUseCaseImpl struct {
	transactions TransactionRepository
	queue        queue.Queue
	cfg          config.JobsConfig
	logger       *slog.Logger
}

func NewPaymentUseCase(transactions TransactionRepository, q queue.Queue, cfg config.JobsConfig, logger *slog.Logger) PaymentUseCase {
	return &paymentUseCaseImpl{
		transactions: transactions,
		queue:        q,
		cfg:          cfg,
		logger:       logger,
	}
}

// CreatePayment stores a pending transaction and enqueues its processing
// task. The API returns immediately; settlement happens on the worker.
func (p *paymentUseCaseImpl) CreatePayment(ctx context.Context, userID int64, input CreatePaymentInput) (*transaction.Transaction, error) {
	gatewayType := input.Gateway
	if gatewayType == "" {
		gatewayType = p.cfg.PaymentDefaultGateway
	}
	currency := strings.ToUpper(input.Currency)
	if currency == "" {
		currency = "SAR"
	}

	t, err := transaction.New(userID, input.Amount, currency, gatewayType, newReferenceID())
	if err != nil {
		return nil, err
	}

	created, err := p.transactions.Create(ctx, t)
	if err != nil {
		return nil, errs.Wrap(err, "failed to create transaction")
	}

	task, err := jobs.NewPaymentTask(created.ID, gatewayType)
	if err != nil {
		return nil, errs.Wrap(err, "failed to build payment task")
	}
	if err := p.queue.Publish(ctx, task); err != nil {
		// The transaction stays pending; surface the broker fault so the
		// client can retry instead of silently dropping the charge.
		return nil, errs.Wrap(err, "failed to enqueue payment task")
	}

	p.logger.Info("payment accepted",
		"transaction_id", created.ID, "user_id", userID, "gateway", gatewayType, "amount", input.Amount)
	return created, nil
}

func (p *paymentUseCaseImpl) GetPayment(ctx context.Context, userID, transactionID int64) (*transaction.Transaction, error) {
	t, err := p.transactions.FindByID(ctx, transactionID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrTransactionNotFound
		}
		return nil, err
	}
	// Ownership check; admins go through their own surface.
	if t.UserID != userID {
		return nil, errs.ErrTransactionNotFound
	}
	return t, nil
}

func (p *paymentUseCaseImpl) ListPayments(ctx context.Context, userID int64, limit, offset int32) ([]*transaction.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return p.transactions.ListByUser(ctx, userID, limit, offset)
}

func newReferenceID() string {
	return fmt.Sprintf("PAY-%s", strings.ToUpper(uuid.NewString()[:13]))
}
