package bootstrap

import (
	"log/slog"

	"go.uber.org/fx"

	"amenpay/internal/handler/middleware"
	"amenpay/internal/pkg/config"
)

var LoggerModule = fx.Module("logger",
	fx.Provide(
		NewSlogLogger,
	),
)

func NewSlogLogger(cfg config.Config) *slog.Logger {
	return middleware.NewLogger(cfg.Log).GetSlogLogger()
}
