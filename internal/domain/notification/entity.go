package notification

import (
	"time"

	"amenpay/internal/pkg/i18n"
)

// Notification carries bilingual content; the user's preferred language
// selects which side goes out on each channel.
type Notification struct {
	ID             int64
	UserID         int64
	Type           string
	TitleAR        string
	TitleEN        string
	MessageAR      string
	MessageEN      string
	Data           map[string]any
	DeliveryStatus DeliveryStatus
	SentAt         *time.Time
	Metadata       Metadata
	Version        int32
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func New(userID int64, kind, titleAR, titleEN, messageAR, messageEN string, data map[string]any) (*Notification, error) {
	if titleAR == "" && titleEN == "" {
		return nil, ErrEmptyTitle
	}
	return &Notification{
		UserID:    userID,
		Type:      kind,
		TitleAR:   titleAR,
		TitleEN:   titleEN,
		MessageAR: messageAR,
		MessageEN: messageEN,
		Data:      data,
		Metadata:  Metadata{},
	}, nil
}

func (n *Notification) Title(l i18n.Locale) string {
	return i18n.Message{AR: n.TitleAR, EN: n.TitleEN}.Resolve(l)
}

func (n *Notification) Message(l i18n.Locale) string {
	return i18n.Message{AR: n.MessageAR, EN: n.MessageEN}.Resolve(l)
}

// Settle aggregates the fan-out outcome: one successful channel is enough
// for delivered, sent_at is stamped either way.
func (n *Notification) Settle(now time.Time, successCount int, extra Metadata) {
	if successCount >= 1 {
		n.DeliveryStatus = DeliveryDelivered
	} else {
		n.DeliveryStatus = DeliveryFailed
	}
	n.SentAt = &now
	n.Metadata = n.Metadata.Merge(extra)
}
