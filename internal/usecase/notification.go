package usecase

import (
	"context"
	"log/slog"

	"amenpay/internal/domain/notification"
	"amenpay/internal/infra"
	"amenpay/internal/jobs"
	"amenpay/internal/pkg/config"
	"amenpay/internal/pkg/errs"
	"amenpay/internal/queue"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *notification.Notification) (*notification.Notification, error)
	FindByID(ctx context.Context, id int64) (*notification.Notification, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int32) ([]*notification.Notification, error)
}

type CreateNotificationInput struct {
	UserID    int64
	Type      string
	TitleAR   string
	TitleEN   string
	MessageAR string
	MessageEN string
	Data      map[string]any
	Channels  []string
	Priority  string
}

type NotificationUseCase interface {
	CreateNotification(ctx context.Context, input CreateNotificationInput) (*notification.Notification, error)
	ListNotifications(ctx context.Context, userID int64, limit, offset int32) ([]*notification.Notification, error)
}

type notificationUseCaseImpl struct {
	notifications NotificationRepository
	users         UserRepository
	queue         queue.Queue
	cfg           config.JobsConfig
	logger        *slog.Logger
}

func NewNotificationUseCase(notifications NotificationRepository, users UserRepository, q queue.Queue, cfg config.JobsConfig, logger *slog.Logger) NotificationUseCase {
	return &notificationUseCaseImpl{
		notifications: notifications,
		users:         users,
		queue:         q,
		cfg:           cfg,
		logger:        logger,
	}
}

func (n *notificationUseCaseImpl) CreateNotification(ctx context.Context, input CreateNotificationInput) (*notification.Notification, error) {
	if _, err := n.users.FindByID(ctx, input.UserID); err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrUserNotFound
		}
		return nil, err
	}

	channels := input.Channels
	if len(channels) == 0 {
		channels = n.cfg.NotifyDefaultChannels
	}
	for _, name := range channels {
		if !notification.Channel(name).IsValid() {
			return nil, errs.ErrUnknownChannel
		}
	}
	priority := input.Priority
	if priority == "" {
		priority = n.cfg.NotifyDefaultPriority
	}

	entity, err := notification.New(input.UserID, input.Type, input.TitleAR, input.TitleEN, input.MessageAR, input.MessageEN, input.Data)
	if err != nil {
		return nil, err
	}

	created, err := n.notifications.Create(ctx, entity)
	if err != nil {
		return nil, errs.Wrap(err, "failed to create notification")
	}

	task, err := jobs.NewNotificationTask(created.ID, channels, priority)
	if err != nil {
		return nil, errs.Wrap(err, "failed to build notification task")
	}
	if err := n.queue.Publish(ctx, task); err != nil {
		return nil, errs.Wrap(err, "failed to enqueue notification task")
	}

	n.logger.Info("notification accepted",
		"notification_id", created.ID, "user_id", input.UserID, "channels", channels, "priority", priority)
	return created, nil
}

func (n *notificationUseCaseImpl) ListNotifications(ctx context.Context, userID int64, limit, offset int32) ([]*notification.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return n.notifications.ListByUser(ctx, userID, limit, offset)
}
