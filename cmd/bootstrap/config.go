package bootstrap

import (
	"amenpay/internal/pkg/config"

	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		config.LoadConfig,
		// Sub-configs so constructors depend on the slice they actually use.
		func(cfg config.Config) config.JWTConfig { return cfg.JWT },
		func(cfg config.Config) config.CookieConfig { return cfg.Cookie },
		func(cfg config.Config) config.RateLimitConfig { return cfg.RateLimit },
		func(cfg config.Config) config.JobsConfig { return cfg.Jobs },
		func(cfg config.Config) config.CommsConfig { return cfg.Comms },
		func(cfg config.Config) config.GatewayConfig { return cfg.Gateway },
		func(cfg config.Config) config.KafkaConfig { return cfg.Kafka },
	),
)
