package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"amenpay/internal/domain/notification"
	"amenpay/internal/infra"
)

const notificationColumns = `
	id, user_id, type, title_ar, title_en, message_ar, message_en,
	data, delivery_status, sent_at, metadata, version, created_at, updated_at`

type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) (*notification.Notification, error) {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to marshal notification data", err)
	}
	meta, err := json.Marshal(n.Metadata)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to marshal notification metadata", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO notifications (user_id, type, title_ar, title_en, message_ar, message_en, data, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+notificationColumns,
		n.UserID, n.Type, n.TitleAR, n.TitleEN, n.MessageAR, n.MessageEN, data, meta,
	)
	created, err := scanNotification(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to create notification", err)
	}
	return created, nil
}

func (r *NotificationRepository) FindByID(ctx context.Context, id int64) (*notification.Notification, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)

	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("notification not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find notification by ID", err)
	}
	return n, nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64, limit, offset int32) ([]*notification.Notification, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+notificationColumns+`
		 FROM notifications
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list notifications", err)
	}
	defer rows.Close()

	var result []*notification.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan notification", err)
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read notifications", err)
	}
	return result, nil
}

// SettleDelivery records the fan-out outcome and stamps sent_at regardless of
// which way it went.
func (r *NotificationRepository) SettleDelivery(ctx context.Context, id int64, status notification.DeliveryStatus, sentAt time.Time, meta notification.Metadata) error {
	body, err := json.Marshal(meta)
	if err != nil {
		return infra.WrapRepoErr("failed to marshal notification metadata", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET delivery_status = $2, sent_at = $3, metadata = metadata || $4::jsonb,
		    version = version + 1, updated_at = now()
		WHERE id = $1`,
		id, status.String(), sentAt, body,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to settle notification delivery", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("notification not found", nil, infra.KindNotFound)
	}
	return nil
}

// MarkFailed records a delivery failure without overwriting a settled
// delivered status; terminal metadata still lands either way.
func (r *NotificationRepository) MarkFailed(ctx context.Context, id int64, meta notification.Metadata) error {
	body, err := json.Marshal(meta)
	if err != nil {
		return infra.WrapRepoErr("failed to marshal notification metadata", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET delivery_status = CASE WHEN delivery_status = 'delivered' THEN delivery_status ELSE 'failed' END,
		    metadata = metadata || $2::jsonb, version = version + 1, updated_at = now()
		WHERE id = $1`,
		id, body,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to mark notification failed", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("notification not found", nil, infra.KindNotFound)
	}
	return nil
}

func scanNotification(row pgx.Row) (*notification.Notification, error) {
	var (
		n    notification.Notification
		data []byte
		meta []byte
	)
	err := row.Scan(
		&n.ID, &n.UserID, &n.Type, &n.TitleAR, &n.TitleEN, &n.MessageAR,
		&n.MessageEN, &data, &n.DeliveryStatus, &n.SentAt, &meta, &n.Version,
		&n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &n.Data); err != nil {
			return nil, err
		}
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &n.Metadata); err != nil {
			return nil, err
		}
	}
	return &n, nil
}
