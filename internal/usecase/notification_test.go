//go:build unit

package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"amenpay/internal/domain/notification"
	"amenpay/internal/domain/user"
	"amenpay/internal/infra"
	"amenpay/internal/jobs"
	"amenpay/internal/pkg/clock"
	"amenpay/internal/pkg/config"
	"amenpay/internal/pkg/errs"
	"amenpay/internal/pkg/i18n"
	"amenpay/internal/queue"
	"amenpay/internal/usecase"
)

type fakeNotificationRepo struct {
	nextID int64
	stored map[int64]*notification.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{nextID: 1, stored: map[int64]*notification.Notification{}}
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *notification.Notification) (*notification.Notification, error) {
	created := *n
	created.ID = f.nextID
	f.nextID++
	f.stored[created.ID] = &created
	return &created, nil
}

func (f *fakeNotificationRepo) FindByID(_ context.Context, id int64) (*notification.Notification, error) {
	n, ok := f.stored[id]
	if !ok {
		return nil, infra.WrapRepoErr("notification not found", errs.ErrNotificationNotFound, infra.KindNotFound)
	}
	return n, nil
}

func (f *fakeNotificationRepo) ListByUser(_ context.Context, userID int64, _, _ int32) ([]*notification.Notification, error) {
	var out []*notification.Notification
	for _, n := range f.stored {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	users map[int64]*user.User
}

func (f *fakeUserRepo) FindByID(_ context.Context, id int64) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, infra.WrapRepoErr("user not found", errs.ErrUserNotFound, infra.KindNotFound)
	}
	return u, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, infra.WrapRepoErr("user not found", errs.ErrUserNotFound, infra.KindNotFound)
}

type NotificationUseCaseSuite struct {
	suite.Suite
	repo  *fakeNotificationRepo
	users *fakeUserRepo
	q     *queue.MemoryQueue
	uc    usecase.NotificationUseCase
}

func TestNotificationUseCaseSuite(t *testing.T) {
	suite.Run(t, new(NotificationUseCaseSuite))
}

func (s *NotificationUseCaseSuite) SetupTest() {
	s.repo = newFakeNotificationRepo()
	s.users = &fakeUserRepo{users: map[int64]*user.User{
		7: {ID: 7, Email: "fatimah@example.com", Language: i18n.LocaleArabic, Role: user.RoleCustomer, IsActive: true},
	}}
	s.q = queue.NewMemoryQueue(clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.uc = usecase.NewNotificationUseCase(s.repo, s.users, s.q, config.NewTestConfig().Jobs, logger)
}

func (s *NotificationUseCaseSuite) TestCreateNotificationEnqueuesTask() {
	created, err := s.uc.CreateNotification(context.Background(), usecase.CreateNotificationInput{
		UserID:    7,
		Type:      "promo",
		TitleAR:   "عرض جديد",
		TitleEN:   "New offer",
		MessageAR: "تفاصيل العرض",
		MessageEN: "Offer details",
		Channels:  []string{"sms", "push"},
		Priority:  "high",
	})
	s.Require().NoError(err)

	pending := s.q.Pending(queue.QueueNotifications)
	s.Require().Len(pending, 1)
	s.Equal(jobs.TaskTypeSendNotification, pending[0].Type)

	var payload jobs.SendNotificationPayload
	s.Require().NoError(pending[0].DecodePayload(&payload))
	s.Equal(created.ID, payload.NotificationID)
	s.Equal([]string{"sms", "push"}, payload.Channels)
	s.Equal("high", payload.Priority)
}

func (s *NotificationUseCaseSuite) TestCreateNotificationDefaultsChannelsAndPriority() {
	_, err := s.uc.CreateNotification(context.Background(), usecase.CreateNotificationInput{
		UserID:  7,
		Type:    "promo",
		TitleEN: "New offer",
	})
	s.Require().NoError(err)

	var payload jobs.SendNotificationPayload
	pending := s.q.Pending(queue.QueueNotifications)
	s.Require().Len(pending, 1)
	s.Require().NoError(pending[0].DecodePayload(&payload))
	s.Equal([]string{"push", "email"}, payload.Channels)
	s.Equal("normal", payload.Priority)
}

func (s *NotificationUseCaseSuite) TestCreateNotificationRejectsUnknownChannel() {
	_, err := s.uc.CreateNotification(context.Background(), usecase.CreateNotificationInput{
		UserID:   7,
		Type:     "promo",
		TitleEN:  "New offer",
		Channels: []string{"carrier_pigeon"},
	})
	s.ErrorIs(err, errs.ErrUnknownChannel)
	s.Empty(s.q.Pending(queue.QueueNotifications))
}

func (s *NotificationUseCaseSuite) TestCreateNotificationRejectsMissingUser() {
	_, err := s.uc.CreateNotification(context.Background(), usecase.CreateNotificationInput{
		UserID:  404,
		Type:    "promo",
		TitleEN: "New offer",
	})
	s.ErrorIs(err, errs.ErrUserNotFound)
}

func (s *NotificationUseCaseSuite) TestCreateNotificationRequiresTitle() {
	_, err := s.uc.CreateNotification(context.Background(), usecase.CreateNotificationInput{
		UserID: 7,
		Type:   "promo",
	})
	s.ErrorIs(err, notification.ErrEmptyTitle)
}
