package components

import (
	"go.uber.org/fx"

	"amenpay/internal/pkg/clock"
	"amenpay/internal/pkg/ratelimit"
	"amenpay/internal/usecase"
)

var UseCaseModule = fx.Module("usecase",
	fx.Provide(
		clock.NewRealClock,
		fx.Annotate(
			ratelimit.NewRedisStore,
			fx.As(new(ratelimit.Store)),
		),
		ratelimit.NewLimiter,
		usecase.NewAuthUseCase,
		usecase.NewPaymentUseCase,
		usecase.NewNotificationUseCase,
	),
)
