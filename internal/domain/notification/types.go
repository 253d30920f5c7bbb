package notification

import "errors"

var (
	ErrInvalidChannel = errors.New("invalid notification channel")
	ErrEmptyTitle     = errors.New("notification title is required")
)

// Channel is a delivery transport. Unknown channel names are rejected at the
// edge but recorded as per-channel failures inside the dispatch job (fail
// closed without aborting the fan-out).
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
)

func (c Channel) String() string {
	return string(c)
}

func (c Channel) IsValid() bool {
	switch c {
	case ChannelSMS, ChannelEmail, ChannelPush:
		return true
	default:
		return false
	}
}

// DeliveryStatus is empty until the dispatch job settles the notification.
type DeliveryStatus string

const (
	DeliveryUnset     DeliveryStatus = ""
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
)

func (s DeliveryStatus) String() string {
	return string(s)
}

type Metadata map[string]any

func (m Metadata) Merge(other Metadata) Metadata {
	merged := make(Metadata, len(m)+len(other))
	for k, v := range m {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}
