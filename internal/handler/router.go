package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"amenpay/internal/domain/user"
	"amenpay/internal/handler/api"
	"amenpay/internal/handler/middleware"
	"amenpay/internal/pkg/config"
	"amenpay/internal/pkg/ratelimit"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

type Handlers struct {
	Auth           *api.AuthHandler
	Payment        *api.PaymentHandler
	Notification   *api.NotificationHandler
	RateLimitAdmin *api.RateLimitAdminHandler
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	handlers Handlers,
	authMiddleware *middleware.AuthMiddleware,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
) {
	setupMiddleware(engine, cfg)
	setupRoutes(engine, handlers, authMiddleware, rateLimitMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LocaleMiddleware())
	engine.Use(middleware.NewLogger(cfg.Log).LoggingMiddleware())
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(
	engine *gin.Engine,
	handlers Handlers,
	authMiddleware *middleware.AuthMiddleware,
	rl *middleware.RateLimitMiddleware,
) {
	engine.GET("/health", healthCheck)
	engine.GET("/ping", ping)

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	apiGroup := engine.Group("/api")
	// OptionalAuth runs before the limiter so authenticated traffic is keyed
	// per user instead of per IP.
	apiGroup.Use(authMiddleware.OptionalAuth())
	{
		auth := apiGroup.Group("/auth")
		{
			addRoutes(auth, []route{
				{Method: http.MethodPost, Path: "/login", Handler: handlers.Auth.Login,
					Mw: []gin.HandlerFunc{rl.Limit(ratelimit.CategoryAuth)}},
			})

			authRequired := auth.Group("")
			authRequired.Use(rl.Limit(ratelimit.CategoryAPI), authMiddleware.RequireAuth())
			addRoutes(authRequired, []route{
				{Method: http.MethodPost, Path: "/logout", Handler: handlers.Auth.Logout},
				{Method: http.MethodGet, Path: "/me", Handler: handlers.Auth.Me},
			})
		}

		payments := apiGroup.Group("/payments")
		payments.Use(rl.Limit(ratelimit.CategoryPayment), authMiddleware.RequireAuth())
		{
			addRoutes(payments, []route{
				{Method: http.MethodPost, Path: "", Handler: handlers.Payment.CreatePayment},
				{Method: http.MethodGet, Path: "", Handler: handlers.Payment.ListPayments},
				{Method: http.MethodGet, Path: "/:id", Handler: handlers.Payment.GetPayment},
			})
		}

		notifications := apiGroup.Group("/notifications")
		notifications.Use(rl.Limit(ratelimit.CategoryAPI), authMiddleware.RequireAuth())
		{
			addRoutes(notifications, []route{
				{Method: http.MethodPost, Path: "", Handler: handlers.Notification.CreateNotification},
				{Method: http.MethodGet, Path: "", Handler: handlers.Notification.ListNotifications},
			})
		}

		admin := apiGroup.Group("/admin")
		admin.Use(rl.Limit(ratelimit.CategoryAPI), authMiddleware.RequireAuth(), authMiddleware.RequireRoleAtLeast(user.RoleSupport))
		{
			addRoutes(admin, []route{
				{Method: http.MethodGet, Path: "/rate-limits/:key", Handler: handlers.RateLimitAdmin.GetInfo},
				{Method: http.MethodDelete, Path: "/rate-limits/:key", Handler: handlers.RateLimitAdmin.Clear},
			})
		}
	}
}

func addRoutes(group *gin.RouterGroup, routes []route) {
	for _, r := range routes {
		chain := append(r.Mw, r.Handler) //nolint:gocritic
		group.Handle(r.Method, r.Path, chain...)
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func ping(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}
