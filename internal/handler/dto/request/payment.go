package request

import "amenpay/internal/usecase"

type CreatePaymentRequest struct {
	Amount   float64 `json:"amount" binding:"required,gt=0"`
	Currency string  `json:"currency" binding:"omitempty,len=3"`
	Gateway  string  `json:"gateway" binding:"omitempty,oneof=mada stc_pay visa mastercard apple_pay"`
}

func (r *CreatePaymentRequest) ToInput() usecase.CreatePaymentInput {
	return usecase.CreatePaymentInput{
		Amount:   r.Amount,
		Currency: r.Currency,
		Gateway:  r.Gateway,
	}
}
