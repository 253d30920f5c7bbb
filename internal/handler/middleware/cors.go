package middleware

import (
	"log/slog"
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"amenpay/internal/pkg/config"
)

func NewCORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	// Retry-After must stay readable from browsers so clients can back off
	// when the limiter rejects them, regardless of what the env provides.
	exposed := cfg.ExposeHeaders
	if !slices.Contains(exposed, "Retry-After") {
		exposed = append(slices.Clone(exposed), "Retry-After")
	}

	corsCfg := cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     cfg.AllowHeaders,
		ExposeHeaders:    exposed,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}
	slog.Info("CORS middleware initialized", "AllowOrigins", cfg.AllowOrigins)
	return cors.New(corsCfg)
}
