//go:build unit

package jobs_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"amenpay/internal/domain/notification"
	"amenpay/internal/domain/user"
	"amenpay/internal/jobs"
	"amenpay/internal/pkg/clock"
	"amenpay/internal/pkg/config"
	"amenpay/internal/pkg/errs"
	"amenpay/internal/pkg/i18n"
	"amenpay/internal/queue"
	jobsmock "amenpay/tests/mock/jobs"
)

type SendNotificationJobSuite struct {
	suite.Suite
	ctrl          *gomock.Controller
	notifications *jobsmock.MockNotificationRepository
	users         *jobsmock.MockUserRepository
	comms         *jobsmock.MockCommunicator
	clock         *clock.MockClock
	job           *jobs.SendNotificationJob
}

func TestSendNotificationJobSuite(t *testing.T) {
	suite.Run(t, new(SendNotificationJobSuite))
}

func (s *SendNotificationJobSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.notifications = jobsmock.NewMockNotificationRepository(s.ctrl)
	s.users = jobsmock.NewMockUserRepository(s.ctrl)
	s.comms = jobsmock.NewMockCommunicator(s.ctrl)
	s.clock = clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.job = jobs.NewSendNotificationJob(
		s.notifications, s.users, s.comms,
		config.NewTestConfig().Jobs, s.clock, logger,
	)
}

func (s *SendNotificationJobSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *SendNotificationJobSuite) pendingNotification() *notification.Notification {
	return &notification.Notification{
		ID:        55,
		UserID:    7,
		Type:      "payment_success",
		TitleAR:   "تمت عملية الدفع",
		TitleEN:   "Payment completed",
		MessageAR: "تم استلام دفعتك",
		MessageEN: "Your payment was received",
		Data:      map[string]any{"transaction_id": 101},
		Metadata:  notification.Metadata{},
	}
}

func (s *SendNotificationJobSuite) customer() *user.User {
	return &user.User{
		ID:       7,
		Email:    "fatimah@example.com",
		Phone:    "+966500000001",
		Language: i18n.LocaleArabic,
		Role:     user.RoleCustomer,
		IsActive: true,
	}
}

func (s *SendNotificationJobSuite) notificationTask(id int64, channels []string) *queue.Task {
	task, err := jobs.NewNotificationTask(id, channels, "normal")
	s.Require().NoError(err)
	task.Attempts = 1
	return task
}

func (s *SendNotificationJobSuite) TestSpecMatchesRetryContract() {
	spec := s.job.Spec()
	s.Equal(3, spec.Tries)
	s.Equal(120*time.Second, spec.Timeout)
	s.Equal(3, spec.MaxExceptions)
	s.Equal(30*time.Second, spec.Backoff(1))
	s.Equal(60*time.Second, spec.Backoff(2))
}

func (s *SendNotificationJobSuite) TestHandlePartialSuccessSettlesDelivered() {
	s.notifications.EXPECT().FindByID(gomock.Any(), int64(55)).
		Return(s.pendingNotification(), nil)
	s.users.EXPECT().FindByID(gomock.Any(), int64(7)).Return(s.customer(), nil)

	s.comms.EXPECT().SendSMS(gomock.Any(), "+966500000001", gomock.Any()).
		Return(jobs.ChannelResult{Success: false, Message: "provider rejected"}, nil)
	s.comms.EXPECT().SendEmail(gomock.Any(), gomock.Any(), gomock.Any(), "notification", gomock.Any()).
		Return(jobs.ChannelResult{Success: true, Message: "queued"}, nil)
	s.comms.EXPECT().SendPush(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(jobs.ChannelResult{Success: true, Message: "sent"}, nil)

	var capturedStatus notification.DeliveryStatus
	var capturedMeta notification.Metadata
	s.notifications.EXPECT().SettleDelivery(gomock.Any(), int64(55), gomock.Any(), s.clock.Now(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, status notification.DeliveryStatus, _ time.Time, meta notification.Metadata) error {
			capturedStatus = status
			capturedMeta = meta
			return nil
		})

	err := s.job.Handle(context.Background(), s.notificationTask(55, []string{"sms", "email", "push"}))
	s.NoError(err)
	s.Equal(notification.DeliveryDelivered, capturedStatus)
	s.Equal(2, capturedMeta["successful_channels"])

	results, ok := capturedMeta["channel_results"].(map[string]jobs.ChannelResult)
	s.Require().True(ok)
	s.False(results["sms"].Success)
	s.True(results["email"].Success)
	s.True(results["push"].Success)
}

func (s *SendNotificationJobSuite) TestHandleAllChannelsFailSettlesFailed() {
	s.notifications.EXPECT().FindByID(gomock.Any(), int64(55)).
		Return(s.pendingNotification(), nil)
	s.users.EXPECT().FindByID(gomock.Any(), int64(7)).Return(s.customer(), nil)

	s.comms.EXPECT().SendSMS(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(jobs.ChannelResult{}, errs.New("sms gateway down"))
	s.comms.EXPECT().SendPush(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(jobs.ChannelResult{Success: false, Message: "token expired"}, nil)

	var capturedStatus notification.DeliveryStatus
	s.notifications.EXPECT().SettleDelivery(gomock.Any(), int64(55), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, status notification.DeliveryStatus, _ time.Time, _ notification.Metadata) error {
			capturedStatus = status
			return nil
		})

	err := s.job.Handle(context.Background(), s.notificationTask(55, []string{"sms", "push"}))
	s.NoError(err)
	s.Equal(notification.DeliveryFailed, capturedStatus)
}

func (s *SendNotificationJobSuite) TestHandleUnknownChannelRecordedAsFailure() {
	s.notifications.EXPECT().FindByID(gomock.Any(), int64(55)).
		Return(s.pendingNotification(), nil)
	s.users.EXPECT().FindByID(gomock.Any(), int64(7)).Return(s.customer(), nil)

	s.comms.EXPECT().SendPush(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(jobs.ChannelResult{Success: true}, nil)

	var capturedMeta notification.Metadata
	s.notifications.EXPECT().SettleDelivery(gomock.Any(), int64(55), notification.DeliveryDelivered, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, _ notification.DeliveryStatus, _ time.Time, meta notification.Metadata) error {
			capturedMeta = meta
			return nil
		})

	err := s.job.Handle(context.Background(), s.notificationTask(55, []string{"push", "carrier_pigeon"}))
	s.NoError(err)

	results, ok := capturedMeta["channel_results"].(map[string]jobs.ChannelResult)
	s.Require().True(ok)
	s.False(results["carrier_pigeon"].Success)
	s.Contains(results["carrier_pigeon"].Message, "unknown channel")
}

func (s *SendNotificationJobSuite) TestHandleMissingContactDetailsFailChannels() {
	u := s.customer()
	u.Phone = ""
	u.Email = ""

	s.notifications.EXPECT().FindByID(gomock.Any(), int64(55)).
		Return(s.pendingNotification(), nil)
	s.users.EXPECT().FindByID(gomock.Any(), int64(7)).Return(u, nil)

	var capturedMeta notification.Metadata
	s.notifications.EXPECT().SettleDelivery(gomock.Any(), int64(55), notification.DeliveryFailed, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, _ notification.DeliveryStatus, _ time.Time, meta notification.Metadata) error {
			capturedMeta = meta
			return nil
		})

	err := s.job.Handle(context.Background(), s.notificationTask(55, []string{"sms", "email"}))
	s.NoError(err)

	results, ok := capturedMeta["channel_results"].(map[string]jobs.ChannelResult)
	s.Require().True(ok)
	s.Equal("no phone number", results["sms"].Message)
	s.Equal("no email address", results["email"].Message)
}

func (s *SendNotificationJobSuite) TestHandleMissingOwnerSkipsWithoutRetry() {
	s.notifications.EXPECT().FindByID(gomock.Any(), int64(55)).
		Return(s.pendingNotification(), nil)
	s.users.EXPECT().FindByID(gomock.Any(), int64(7)).
		Return(nil, errs.ErrUserNotFound)

	err := s.job.Handle(context.Background(), s.notificationTask(55, []string{"push"}))
	s.NoError(err)
}

func (s *SendNotificationJobSuite) TestHandleMissingNotificationIsHardFault() {
	s.notifications.EXPECT().FindByID(gomock.Any(), int64(404)).
		Return(nil, errs.ErrNotificationNotFound)

	err := s.job.Handle(context.Background(), s.notificationTask(404, []string{"push"}))
	s.Error(err)
}

func (s *SendNotificationJobSuite) TestHandleDefaultsChannelsFromConfig() {
	s.notifications.EXPECT().FindByID(gomock.Any(), int64(55)).
		Return(s.pendingNotification(), nil)
	s.users.EXPECT().FindByID(gomock.Any(), int64(7)).Return(s.customer(), nil)

	s.comms.EXPECT().SendPush(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(jobs.ChannelResult{Success: true}, nil)
	s.comms.EXPECT().SendEmail(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(jobs.ChannelResult{Success: true}, nil)

	var capturedMeta notification.Metadata
	s.notifications.EXPECT().SettleDelivery(gomock.Any(), int64(55), notification.DeliveryDelivered, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, _ notification.DeliveryStatus, _ time.Time, meta notification.Metadata) error {
			capturedMeta = meta
			return nil
		})

	err := s.job.Handle(context.Background(), s.notificationTask(55, nil))
	s.NoError(err)
	s.ElementsMatch([]string{"push", "email"}, capturedMeta["channels_attempted"])
}

func (s *SendNotificationJobSuite) TestHandleSettleErrorMarksAndPropagates() {
	s.notifications.EXPECT().FindByID(gomock.Any(), int64(55)).
		Return(s.pendingNotification(), nil)
	s.users.EXPECT().FindByID(gomock.Any(), int64(7)).Return(s.customer(), nil)
	s.comms.EXPECT().SendPush(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(jobs.ChannelResult{Success: true}, nil)
	s.notifications.EXPECT().SettleDelivery(gomock.Any(), int64(55), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errs.New("db unavailable"))

	var capturedMeta notification.Metadata
	s.notifications.EXPECT().MarkFailed(gomock.Any(), int64(55), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, meta notification.Metadata) error {
			capturedMeta = meta
			return nil
		})

	err := s.job.Handle(context.Background(), s.notificationTask(55, []string{"push"}))
	s.Error(err)
	s.Contains(capturedMeta["failure_reason"], "db unavailable")
}

func (s *SendNotificationJobSuite) TestFailedMarksPermanentFailure() {
	task := s.notificationTask(55, []string{"push"})
	task.Attempts = 3

	s.notifications.EXPECT().FindByID(gomock.Any(), int64(55)).
		Return(s.pendingNotification(), nil)

	var captured notification.Metadata
	s.notifications.EXPECT().MarkFailed(gomock.Any(), int64(55), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, meta notification.Metadata) error {
			captured = meta
			return nil
		})

	s.job.Failed(context.Background(), task, errs.New("push provider outage"))

	s.Equal(true, captured["failed_permanently"])
	s.Contains(captured["failure_reason"], "Notification delivery failed permanently")
}

func (s *SendNotificationJobSuite) TestFailedToleratesMissingNotification() {
	task := s.notificationTask(404, []string{"push"})
	task.Attempts = 3

	s.notifications.EXPECT().FindByID(gomock.Any(), int64(404)).
		Return(nil, errs.ErrNotificationNotFound)

	s.NotPanics(func() {
		s.job.Failed(context.Background(), task, errs.New("push provider outage"))
	})
}
