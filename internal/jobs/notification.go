package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"amenpay/internal/domain/notification"
	"amenpay/internal/domain/user"
	"amenpay/internal/pkg/clock"
	"amenpay/internal/pkg/config"
	"amenpay/internal/pkg/errs"
	"amenpay/internal/queue"
)

const TaskTypeSendNotification = "send_notification"

// Fixed template name handed to the email provider for generic notifications.
const notificationEmailTemplate = "notification"

type SendNotificationPayload struct {
	NotificationID int64    `json:"notification_id"`
	Channels       []string `json:"channels"`
	Priority       string   `json:"priority"`
}

func NewNotificationTask(notificationID int64, channels []string, priority string) (*queue.Task, error) {
	return queue.NewTask(queue.QueueNotifications, TaskTypeSendNotification,
		SendNotificationPayload{NotificationID: notificationID, Channels: channels, Priority: priority},
		"notification",
		fmt.Sprintf("notification_id:%d", notificationID),
		"channels:"+strings.Join(channels, ","),
	)
}

// SendNotificationJob fans one notification out across the requested
// channels and aggregates the results: one success is enough for delivered,
// a clean sweep of failures settles as failed.
type SendNotificationJob struct {
	notifications NotificationRepository
	users         UserRepository
	comms         Communicator
	cfg           config.JobsConfig
	clock         clock.Clock
	logger        *slog.Logger
}

func NewSendNotificationJob(
	notifications NotificationRepository,
	users UserRepository,
	comms Communicator,
	cfg config.JobsConfig,
	c clock.Clock,
	logger *slog.Logger,
) *SendNotificationJob {
	return &SendNotificationJob{
		notifications: notifications,
		users:         users,
		comms:         comms,
		cfg:           cfg,
		clock:         c,
		logger:        logger,
	}
}

func (j *SendNotificationJob) Spec() queue.JobSpec {
	return queue.JobSpec{
		Tries:         j.cfg.NotifyTries,
		Timeout:       j.cfg.NotifyTimeout,
		MaxExceptions: j.cfg.NotifyMaxExceptions,
		Backoff: func(attempt int) time.Duration {
			return time.Duration(attempt) * 30 * time.Second
		},
	}
}

func (j *SendNotificationJob) Handle(ctx context.Context, task *queue.Task) error {
	var payload SendNotificationPayload
	if err := task.DecodePayload(&payload); err != nil {
		return err
	}
	if len(payload.Channels) == 0 {
		payload.Channels = j.cfg.NotifyDefaultChannels
	}

	j.logger.Info("dispatching notification",
		"notification_id", payload.NotificationID, "channels", payload.Channels,
		"priority", payload.Priority, "attempt", task.Attempts)

	n, err := j.notifications.FindByID(ctx, payload.NotificationID)
	if err != nil {
		return errs.Wrap(err, "failed to load notification")
	}

	if err := j.dispatch(ctx, n, payload.Channels); err != nil {
		j.markFailedQuietly(ctx, n.ID, notification.Metadata{
			"failure_reason":   err.Error(),
			"failed_by_job_at": j.clock.Now().UTC().Format(time.RFC3339),
		})
		return err
	}
	return nil
}

func (j *SendNotificationJob) dispatch(ctx context.Context, n *notification.Notification, channels []string) error {
	u, err := j.users.FindByID(ctx, n.UserID)
	if err != nil {
		// A vanished owner is a permanent data problem; retrying cannot fix it.
		j.logger.Warn("notification owner not found, skipping",
			"notification_id", n.ID, "user_id", n.UserID, "error", err)
		return nil
	}

	results := make(map[string]ChannelResult, len(channels))
	successCount := 0
	for _, name := range channels {
		result := j.dispatchChannel(ctx, n, u, name)
		results[name] = result
		if result.Success {
			successCount++
		}
	}

	status := notification.DeliveryFailed
	if successCount >= 1 {
		status = notification.DeliveryDelivered
	}

	now := j.clock.Now()
	meta := notification.Metadata{
		"channel_results":     results,
		"channels_attempted":  channels,
		"successful_channels": successCount,
		"completed_at":        now.UTC().Format(time.RFC3339),
	}
	if err := j.notifications.SettleDelivery(ctx, n.ID, status, now, meta); err != nil {
		return errs.Wrap(err, "failed to settle notification delivery")
	}

	j.logger.Info("notification settled",
		"notification_id", n.ID, "status", status.String(), "successful_channels", successCount)
	return nil
}

// dispatchChannel never lets one channel's failure touch the others: errors
// and panics both collapse into that channel's failure result.
func (j *SendNotificationJob) dispatchChannel(ctx context.Context, n *notification.Notification, u *user.User, name string) (result ChannelResult) {
	defer func() {
		if rec := recover(); rec != nil {
			j.logger.Error("panic dispatching channel",
				"notification_id", n.ID, "channel", name, "panic", rec)
			result = ChannelResult{Success: false, Message: fmt.Sprintf("channel panicked: %v", rec)}
		}
	}()

	var err error
	switch notification.Channel(name) {
	case notification.ChannelSMS:
		if !u.HasPhone() {
			return ChannelResult{Success: false, Message: "no phone number"}
		}
		result, err = j.comms.SendSMS(ctx, u.Phone, n.Message(u.Language))

	case notification.ChannelEmail:
		if !u.HasEmail() {
			return ChannelResult{Success: false, Message: "no email address"}
		}
		result, err = j.comms.SendEmail(ctx, u, n.Title(u.Language), notificationEmailTemplate, map[string]any{
			"title":   n.Title(u.Language),
			"message": n.Message(u.Language),
		})

	case notification.ChannelPush:
		result, err = j.comms.SendPush(ctx, u, n.Title(u.Language), n.Message(u.Language), map[string]any{
			"notification_id": n.ID,
			"type":            n.Type,
			"data":            n.Data,
		})

	default:
		// Fail closed on unrecognized channels without aborting the fan-out.
		j.logger.Warn("unknown notification channel",
			"notification_id", n.ID, "channel", name)
		return ChannelResult{Success: false, Message: "unknown channel: " + name}
	}

	if err != nil {
		j.logger.Warn("channel dispatch failed",
			"notification_id", n.ID, "channel", name, "error", err)
		return ChannelResult{Success: false, Message: err.Error()}
	}
	return result
}

func (j *SendNotificationJob) Failed(ctx context.Context, task *queue.Task, cause error) {
	var payload SendNotificationPayload
	if err := task.DecodePayload(&payload); err != nil {
		j.logger.Error("terminal hook could not decode payload", "task_id", task.ID, "error", err)
		return
	}

	j.logger.Error("notification job failed permanently",
		"notification_id", payload.NotificationID, "attempts", task.Attempts, "error", cause)

	if _, err := j.notifications.FindByID(ctx, payload.NotificationID); err != nil {
		j.logger.Warn("notification missing during terminal failure handling",
			"notification_id", payload.NotificationID, "error", err)
		return
	}

	j.markFailedQuietly(ctx, payload.NotificationID, notification.Metadata{
		"failure_reason":     "Notification delivery failed permanently: " + cause.Error(),
		"failed_permanently": true,
		"failed_by_job_at":   j.clock.Now().UTC().Format(time.RFC3339),
	})
}

func (j *SendNotificationJob) markFailedQuietly(ctx context.Context, id int64, meta notification.Metadata) {
	if err := j.notifications.MarkFailed(ctx, id, meta); err != nil {
		j.logger.Error("failed to mark notification failed", "notification_id", id, "error", err)
	}
}
