package request

import "amenpay/internal/usecase"

type CreateNotificationRequest struct {
	UserID    int64          `json:"user_id" binding:"required"`
	Type      string         `json:"type" binding:"required"`
	TitleAR   string         `json:"title_ar" binding:"required_without=TitleEN"`
	TitleEN   string         `json:"title_en" binding:"required_without=TitleAR"`
	MessageAR string         `json:"message_ar"`
	MessageEN string         `json:"message_en"`
	Data      map[string]any `json:"data"`
	Channels  []string       `json:"channels" binding:"omitempty,dive,oneof=sms email push"`
	Priority  string         `json:"priority" binding:"omitempty,oneof=low normal high"`
}

func (r *CreateNotificationRequest) ToInput() usecase.CreateNotificationInput {
	return usecase.CreateNotificationInput{
		UserID:    r.UserID,
		Type:      r.Type,
		TitleAR:   r.TitleAR,
		TitleEN:   r.TitleEN,
		MessageAR: r.MessageAR,
		MessageEN: r.MessageEN,
		Data:      r.Data,
		Channels:  r.Channels,
		Priority:  r.Priority,
	}
}
