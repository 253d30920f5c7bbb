//go:build unit

package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"amenpay/internal/domain/transaction"
	"amenpay/internal/infra"
	"amenpay/internal/jobs"
	"amenpay/internal/pkg/clock"
	"amenpay/internal/pkg/config"
	"amenpay/internal/pkg/errs"
	"amenpay/internal/queue"
	"amenpay/internal/usecase"
)

type fakeTransactionRepo struct {
	nextID  int64
	stored  map[int64]*transaction.Transaction
	failure error
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{nextID: 1, stored: map[int64]*transaction.Transaction{}}
}

func (f *fakeTransactionRepo) Create(_ context.Context, t *transaction.Transaction) (*transaction.Transaction, error) {
	if f.failure != nil {
		return nil, f.failure
	}
	created := *t
	created.ID = f.nextID
	f.nextID++
	f.stored[created.ID] = &created
	return &created, nil
}

func (f *fakeTransactionRepo) FindByID(_ context.Context, id int64) (*transaction.Transaction, error) {
	t, ok := f.stored[id]
	if !ok {
		return nil, infra.WrapRepoErr("transaction not found", errs.ErrTransactionNotFound, infra.KindNotFound)
	}
	return t, nil
}

func (f *fakeTransactionRepo) ListByUser(_ context.Context, userID int64, _, _ int32) ([]*transaction.Transaction, error) {
	var out []*transaction.Transaction
	for _, t := range f.stored {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

type PaymentUseCaseSuite struct {
	suite.Suite
	repo *fakeTransactionRepo
	q    *queue.MemoryQueue
	uc   usecase.PaymentUseCase
}

func TestPaymentUseCaseSuite(t *testing.T) {
	suite.Run(t, new(PaymentUseCaseSuite))
}

func (s *PaymentUseCaseSuite) SetupTest() {
	s.repo = newFakeTransactionRepo()
	s.q = queue.NewMemoryQueue(clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.uc = usecase.NewPaymentUseCase(s.repo, s.q, config.NewTestConfig().Jobs, logger)
}

func (s *PaymentUseCaseSuite) TestCreatePaymentStoresPendingAndEnqueues() {
	created, err := s.uc.CreatePayment(context.Background(), 7, usecase.CreatePaymentInput{
		Amount:   250.00,
		Currency: "sar",
		Gateway:  "stc_pay",
	})
	s.Require().NoError(err)

	s.Equal(transaction.StatusPending, created.Status)
	s.Equal("SAR", created.Currency)
	s.Equal("stc_pay", created.GatewayType)
	s.NotEmpty(created.ReferenceID)

	pending := s.q.Pending(queue.QueuePayments)
	s.Require().Len(pending, 1)
	s.Equal(jobs.TaskTypeProcessPayment, pending[0].Type)

	var payload jobs.ProcessPaymentPayload
	s.Require().NoError(pending[0].DecodePayload(&payload))
	s.Equal(created.ID, payload.TransactionID)
	s.Equal("stc_pay", payload.Gateway)
}

func (s *PaymentUseCaseSuite) TestCreatePaymentDefaultsGatewayAndCurrency() {
	created, err := s.uc.CreatePayment(context.Background(), 7, usecase.CreatePaymentInput{Amount: 10})
	s.Require().NoError(err)
	s.Equal("mada", created.GatewayType)
	s.Equal("SAR", created.Currency)
}

func (s *PaymentUseCaseSuite) TestCreatePaymentRejectsNonPositiveAmount() {
	_, err := s.uc.CreatePayment(context.Background(), 7, usecase.CreatePaymentInput{Amount: 0})
	s.ErrorIs(err, transaction.ErrInvalidAmount)
	s.Empty(s.q.Pending(queue.QueuePayments))
}

func (s *PaymentUseCaseSuite) TestCreatePaymentRepoFailureDoesNotEnqueue() {
	s.repo.failure = errs.New("db unavailable")
	_, err := s.uc.CreatePayment(context.Background(), 7, usecase.CreatePaymentInput{Amount: 10})
	s.Error(err)
	s.Empty(s.q.Pending(queue.QueuePayments))
}

func (s *PaymentUseCaseSuite) TestGetPaymentEnforcesOwnership() {
	created, err := s.uc.CreatePayment(context.Background(), 7, usecase.CreatePaymentInput{Amount: 10})
	s.Require().NoError(err)

	got, err := s.uc.GetPayment(context.Background(), 7, created.ID)
	s.Require().NoError(err)
	s.Equal(created.ID, got.ID)

	_, err = s.uc.GetPayment(context.Background(), 8, created.ID)
	s.ErrorIs(err, errs.ErrTransactionNotFound)
}

func (s *PaymentUseCaseSuite) TestGetPaymentMissing() {
	_, err := s.uc.GetPayment(context.Background(), 7, 404)
	s.ErrorIs(err, errs.ErrTransactionNotFound)
}
