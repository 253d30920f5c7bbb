package response

import (
	"time"

	"github.com/jinzhu/copier"

	"amenpay/internal/domain/notification"
)

type NotificationResponse struct {
	ID             int64          `json:"id"`
	UserID         int64          `json:"user_id"`
	Type           string         `json:"type"`
	TitleAR        string         `json:"title_ar"`
	TitleEN        string         `json:"title_en"`
	MessageAR      string         `json:"message_ar,omitempty"`
	MessageEN      string         `json:"message_en,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
	DeliveryStatus string         `json:"delivery_status"`
	SentAt         *time.Time     `json:"sent_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

func FromNotification(n *notification.Notification) *NotificationResponse {
	var resp NotificationResponse
	_ = copier.Copy(&resp, n)
	resp.DeliveryStatus = n.DeliveryStatus.String()
	resp.Data = n.Data
	return &resp
}

func FromNotificationList(items []*notification.Notification) []*NotificationResponse {
	out := make([]*NotificationResponse, len(items))
	for i, n := range items {
		out[i] = FromNotification(n)
	}
	return out
}
