package ratelimit

import (
	"time"

	"amenpay/internal/pkg/config"
	"amenpay/internal/pkg/i18n"
)

// Category selects the quota, the identifier source and the rejection
// message. A tagged enum instead of string keys so the dispatch tables below
// stay exhaustive under the compiler's eye.
type Category int

const (
	CategoryDefault Category = iota
	CategoryAuth
	CategoryOTP
	CategoryPayment
	CategoryAPI
	CategorySMS
	CategoryFileUpload
)

func ParseCategory(s string) Category {
	switch s {
	case "auth":
		return CategoryAuth
	case "otp":
		return CategoryOTP
	case "payment":
		return CategoryPayment
	case "api":
		return CategoryAPI
	case "sms":
		return CategorySMS
	case "file_upload":
		return CategoryFileUpload
	default:
		return CategoryDefault
	}
}

func (c Category) String() string {
	switch c {
	case CategoryAuth:
		return "auth"
	case CategoryOTP:
		return "otp"
	case CategoryPayment:
		return "payment"
	case CategoryAPI:
		return "api"
	case CategorySMS:
		return "sms"
	case CategoryFileUpload:
		return "file_upload"
	default:
		return "default"
	}
}

// Quota is the per-category (max attempts, decay window) pair.
type Quota struct {
	MaxAttempts int
	Decay       time.Duration
}

func (c Category) Quota(cfg config.RateLimitConfig) Quota {
	switch c {
	case CategoryAuth:
		return Quota{cfg.AuthMaxAttempts, time.Duration(cfg.AuthDecayMinutes) * time.Minute}
	case CategoryOTP:
		return Quota{cfg.OTPMaxAttempts, time.Duration(cfg.OTPDecayMinutes) * time.Minute}
	case CategoryPayment:
		return Quota{cfg.PaymentMaxAttempts, time.Duration(cfg.PaymentDecayMinutes) * time.Minute}
	case CategoryAPI:
		return Quota{cfg.APIMaxAttempts, time.Duration(cfg.APIDecayMinutes) * time.Minute}
	case CategorySMS:
		return Quota{cfg.SMSMaxAttempts, time.Duration(cfg.SMSDecayMinutes) * time.Minute}
	case CategoryFileUpload:
		return Quota{cfg.FileUploadMaxAttempts, time.Duration(cfg.FileUploadDecayMin) * time.Minute}
	default:
		return Quota{cfg.DefaultMaxAttempts, time.Duration(cfg.DefaultDecayMinutes) * time.Minute}
	}
}

func (c Category) Message() i18n.Message {
	switch c {
	case CategoryAuth:
		return i18n.Message{
			AR: "محاولات تسجيل دخول كثيرة. يرجى المحاولة لاحقاً.",
			EN: "Too many login attempts. Please try again later.",
		}
	case CategoryOTP:
		return i18n.Message{
			AR: "لقد تجاوزت عدد طلبات رمز التحقق المسموح. يرجى الانتظار.",
			EN: "Too many verification code requests. Please wait before retrying.",
		}
	case CategoryPayment:
		return i18n.Message{
			AR: "عمليات دفع كثيرة في وقت قصير. يرجى المحاولة بعد قليل.",
			EN: "Too many payment attempts. Please try again shortly.",
		}
	case CategorySMS:
		return i18n.Message{
			AR: "لقد تجاوزت عدد الرسائل النصية المسموح. يرجى الانتظار.",
			EN: "Too many SMS requests. Please wait before retrying.",
		}
	case CategoryFileUpload:
		return i18n.Message{
			AR: "عمليات رفع ملفات كثيرة. يرجى المحاولة لاحقاً.",
			EN: "Too many file uploads. Please try again later.",
		}
	case CategoryAPI:
		fallthrough
	default:
		return i18n.Message{
			AR: "عدد كبير من الطلبات. يرجى المحاولة لاحقاً.",
			EN: "Too many requests. Please try again later.",
		}
	}
}
