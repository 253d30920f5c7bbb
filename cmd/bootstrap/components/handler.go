package components

import (
	"go.uber.org/fx"

	"amenpay/internal/handler"
	"amenpay/internal/handler/api"
	"amenpay/internal/handler/middleware"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewAuthHandler,
		api.NewPaymentHandler,
		api.NewNotificationHandler,
		api.NewRateLimitAdminHandler,
		middleware.NewAuthMiddleware,
		middleware.NewRateLimitMiddleware,
		func(
			auth *api.AuthHandler,
			payment *api.PaymentHandler,
			notification *api.NotificationHandler,
			rateLimitAdmin *api.RateLimitAdminHandler,
		) handler.Handlers {
			return handler.Handlers{
				Auth:           auth,
				Payment:        payment,
				Notification:   notification,
				RateLimitAdmin: rateLimitAdmin,
			}
		},
	),
	fx.Invoke(handler.NewRouter),
)
