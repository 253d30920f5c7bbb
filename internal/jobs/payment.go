package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"amenpay/internal/domain/transaction"
	"amenpay/internal/pkg/clock"
	"amenpay/internal/pkg/config"
	"amenpay/internal/pkg/errs"
	"amenpay/internal/queue"
)

const TaskTypeProcessPayment = "process_payment"

type ProcessPaymentPayload struct {
	TransactionID int64  `json:"transaction_id"`
	Gateway       string `json:"gateway"`
}

// NewPaymentTask builds the queue task for one transaction, tagged for
// operational dashboards.
func NewPaymentTask(transactionID int64, gateway string) (*queue.Task, error) {
	return queue.NewTask(queue.QueuePayments, TaskTypeProcessPayment,
		ProcessPaymentPayload{TransactionID: transactionID, Gateway: gateway},
		"payment",
		fmt.Sprintf("transaction:%d", transactionID),
		fmt.Sprintf("gateway:%s", gateway),
	)
}

// ProcessPaymentJob drives one transaction through the gateway and settles
// its status. Status only ever moves pending->processing or pending->failed
// here; anything already settled is skipped as a duplicate delivery.
type ProcessPaymentJob struct {
	transactions TransactionRepository
	users        UserRepository
	gateway      PaymentGateway
	comms        Communicator
	cfg          config.JobsConfig
	clock        clock.Clock
	logger       *slog.Logger
}

func NewProcessPaymentJob(
	transactions TransactionRepository,
	users UserRepository,
	gateway PaymentGateway,
	comms Communicator,
	cfg config.JobsConfig,
	c clock.Clock,
	logger *slog.Logger,
) *ProcessPaymentJob {
	return &ProcessPaymentJob{
		transactions: transactions,
		users:        users,
		gateway:      gateway,
		comms:        comms,
		cfg:          cfg,
		clock:        c,
		logger:       logger,
	}
}

func (j *ProcessPaymentJob) Spec() queue.JobSpec {
	return queue.JobSpec{
		Tries:         j.cfg.PaymentTries,
		Timeout:       j.cfg.PaymentTimeout,
		MaxExceptions: j.cfg.PaymentMaxExceptions,
		Backoff: func(attempt int) time.Duration {
			return time.Duration(attempt) * 60 * time.Second
		},
	}
}

func (j *ProcessPaymentJob) Handle(ctx context.Context, task *queue.Task) error {
	var payload ProcessPaymentPayload
	if err := task.DecodePayload(&payload); err != nil {
		return err
	}
	if payload.Gateway == "" {
		payload.Gateway = j.cfg.PaymentDefaultGateway
	}

	j.logger.Info("processing payment",
		"transaction_id", payload.TransactionID, "gateway", payload.Gateway, "attempt", task.Attempts)

	// A missing transaction is a hard fault; the retry mechanism owns it.
	tx, err := j.transactions.FindByID(ctx, payload.TransactionID)
	if err != nil {
		return errs.Wrap(err, "failed to load transaction")
	}

	// Duplicate-delivery guard: the job is a no-op once the status left pending.
	if !tx.IsPending() {
		j.logger.Info("transaction already settled, skipping",
			"transaction_id", tx.ID, "status", tx.Status.String())
		return nil
	}

	if err := j.process(ctx, tx, payload.Gateway); err != nil {
		j.markFailedQuietly(ctx, tx.ID, transaction.Metadata{
			"failure_reason":   err.Error(),
			"failed_by_job_at": j.clock.Now().UTC().Format(time.RFC3339),
		})
		return err
	}
	return nil
}

func (j *ProcessPaymentJob) process(ctx context.Context, tx *transaction.Transaction, gatewayType string) error {
	result, err := j.gateway.ProcessPayment(ctx, tx, gatewayType)
	if err != nil {
		return errs.Wrap(err, "payment gateway call failed")
	}

	now := j.clock.Now()

	if result.Success {
		meta := transaction.Metadata{
			"gateway_response":    result.Data,
			"gateway_message":     result.Message,
			"processed_by_job_at": now.UTC().Format(time.RFC3339),
		}
		claimed, err := j.transactions.MarkProcessing(ctx, tx.ID, now, meta)
		if err != nil {
			return errs.Wrap(err, "failed to mark transaction processing")
		}
		if !claimed {
			j.logger.Info("transaction claimed by concurrent delivery, skipping",
				"transaction_id", tx.ID)
			return nil
		}

		j.logger.Info("payment succeeded",
			"transaction_id", tx.ID, "gateway", gatewayType, "reference_id", tx.ReferenceID)
		j.notifySuccess(ctx, tx)
		return nil
	}

	meta := transaction.Metadata{
		"failure_reason":   result.Message,
		"gateway_response": result.Data,
		"failed_by_job_at": now.UTC().Format(time.RFC3339),
	}
	claimed, err := j.transactions.MarkFailed(ctx, tx.ID, now, meta)
	if err != nil {
		return errs.Wrap(err, "failed to mark transaction failed")
	}
	if !claimed {
		j.logger.Info("transaction claimed by concurrent delivery, skipping",
			"transaction_id", tx.ID)
		return nil
	}

	j.logger.Warn("payment declined by gateway",
		"transaction_id", tx.ID, "gateway", gatewayType, "reason", result.Message)
	j.notifyFailure(ctx, tx)
	return nil
}

// Failed is the terminal hook after the retry budget is gone. It reloads
// independently (the original fault may have been a missing row) and must
// swallow every error it meets.
func (j *ProcessPaymentJob) Failed(ctx context.Context, task *queue.Task, cause error) {
	var payload ProcessPaymentPayload
	if err := task.DecodePayload(&payload); err != nil {
		j.logger.Error("terminal hook could not decode payload", "task_id", task.ID, "error", err)
		return
	}

	j.logger.Error("payment job failed permanently",
		"transaction_id", payload.TransactionID, "attempts", task.Attempts, "error", cause)

	if _, err := j.transactions.FindByID(ctx, payload.TransactionID); err != nil {
		j.logger.Warn("transaction missing during terminal failure handling",
			"transaction_id", payload.TransactionID, "error", err)
		return
	}

	j.markFailedQuietly(ctx, payload.TransactionID, transaction.Metadata{
		"failure_reason":     "Payment processing failed permanently: " + cause.Error(),
		"failed_permanently": true,
		"failed_by_job_at":   j.clock.Now().UTC().Format(time.RFC3339),
	})
}

// markFailedQuietly is best-effort: used on the exception path and in the
// terminal hook where a marking error must not mask the original fault.
func (j *ProcessPaymentJob) markFailedQuietly(ctx context.Context, id int64, meta transaction.Metadata) {
	if _, err := j.transactions.MarkFailed(ctx, id, j.clock.Now(), meta); err != nil {
		j.logger.Error("failed to mark transaction failed", "transaction_id", id, "error", err)
	}
}

// notifySuccess fans out to sms, push and email. Every path in here is
// best-effort: a broken channel never fails the payment.
func (j *ProcessPaymentJob) notifySuccess(ctx context.Context, tx *transaction.Transaction) {
	defer j.recoverNotify(tx.ID)

	u, err := j.users.FindByID(ctx, tx.UserID)
	if err != nil {
		j.logger.Warn("could not resolve user for payment notification",
			"transaction_id", tx.ID, "user_id", tx.UserID, "error", err)
		return
	}

	body := i18nPaymentSuccess(u.Language, tx)

	if u.HasPhone() {
		if res, err := j.comms.SendSMS(ctx, u.Phone, body); err != nil || !res.Success {
			j.logger.Warn("payment success sms failed", "transaction_id", tx.ID, "error", err)
		}
	}

	title := i18nPaymentSuccessTitle(u.Language)
	if res, err := j.comms.SendPush(ctx, u, title, body, map[string]any{
		"transaction_id": tx.ID,
		"reference_id":   tx.ReferenceID,
		"type":           "payment_success",
	}); err != nil || !res.Success {
		j.logger.Warn("payment success push failed", "transaction_id", tx.ID, "error", err)
	}

	if u.HasEmail() {
		if res, err := j.comms.SendTransactionEmail(ctx, u, map[string]any{
			"amount":       tx.Amount,
			"currency":     tx.Currency,
			"reference_id": tx.ReferenceID,
			"status":       tx.Status.String(),
		}); err != nil || !res.Success {
			j.logger.Warn("payment success email failed", "transaction_id", tx.ID, "error", err)
		}
	}
}

// notifyFailure mirrors notifySuccess on sms and push only.
func (j *ProcessPaymentJob) notifyFailure(ctx context.Context, tx *transaction.Transaction) {
	defer j.recoverNotify(tx.ID)

	u, err := j.users.FindByID(ctx, tx.UserID)
	if err != nil {
		j.logger.Warn("could not resolve user for payment notification",
			"transaction_id", tx.ID, "user_id", tx.UserID, "error", err)
		return
	}

	body := i18nPaymentFailure(u.Language, tx)

	if u.HasPhone() {
		if res, err := j.comms.SendSMS(ctx, u.Phone, body); err != nil || !res.Success {
			j.logger.Warn("payment failure sms failed", "transaction_id", tx.ID, "error", err)
		}
	}

	title := i18nPaymentFailureTitle(u.Language)
	if res, err := j.comms.SendPush(ctx, u, title, body, map[string]any{
		"transaction_id": tx.ID,
		"reference_id":   tx.ReferenceID,
		"type":           "payment_failed",
	}); err != nil || !res.Success {
		j.logger.Warn("payment failure push failed", "transaction_id", tx.ID, "error", err)
	}
}

func (j *ProcessPaymentJob) recoverNotify(transactionID int64) {
	if rec := recover(); rec != nil {
		j.logger.Error("panic during payment notification",
			"transaction_id", transactionID, "panic", rec)
	}
}
