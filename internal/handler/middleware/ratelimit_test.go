//go:build unit

package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"

	"amenpay/internal/domain/user"
	"amenpay/internal/handler/middleware"
	"amenpay/internal/pkg/clock"
	"amenpay/internal/pkg/config"
	"amenpay/internal/pkg/ratelimit"
	commonhttp "amenpay/tests/common/httptest"
)

type RateLimitMiddlewareSuite struct {
	suite.Suite
	cfg    config.RateLimitConfig
	clock  *clock.MockClock
	store  *ratelimit.MemoryStore
	logger *slog.Logger
}

func (s *RateLimitMiddlewareSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.cfg = config.NewTestConfig().RateLimit
	s.clock = clock.NewMockClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	s.store = ratelimit.NewMemoryStore(s.clock)
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRateLimitMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(RateLimitMiddlewareSuite))
}

func (s *RateLimitMiddlewareSuite) newRouter(category ratelimit.Category, cfg config.RateLimitConfig, store ratelimit.Store, pre ...gin.HandlerFunc) *gin.Engine {
	limiter := ratelimit.NewLimiter(store, cfg, s.clock)
	mw := middleware.NewRateLimitMiddleware(limiter, cfg, s.logger)

	router := gin.New()
	router.Use(middleware.LocaleMiddleware())
	router.Use(pre...)

	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
	router.POST("/guarded", mw.Limit(category), handler)
	router.GET("/guarded", mw.Limit(category), handler)
	router.GET("/health", mw.Limit(category), handler)
	return router
}

func (s *RateLimitMiddlewareSuite) TestQuotaHeadersOnAllowedRequest() {
	router := s.newRouter(ratelimit.CategoryAuth, s.cfg, s.store)

	rec := commonhttp.PerformRequest(s.T(), router, http.MethodPost, "/guarded", nil, "")

	s.Equal(http.StatusOK, rec.Code)
	resetAt := s.clock.Now().Add(time.Duration(s.cfg.AuthDecayMinutes) * time.Minute)
	commonhttp.AssertHeaders(s.T(), rec, map[string]string{
		"X-RateLimit-Limit":     strconv.Itoa(s.cfg.AuthMaxAttempts),
		"X-RateLimit-Remaining": strconv.Itoa(s.cfg.AuthMaxAttempts - 1),
		"X-RateLimit-Reset":     strconv.FormatInt(resetAt.Unix(), 10),
	})
}

func (s *RateLimitMiddlewareSuite) TestRejectsWhenQuotaExhausted() {
	router := s.newRouter(ratelimit.CategoryAuth, s.cfg, s.store)

	for range s.cfg.AuthMaxAttempts {
		rec := commonhttp.PerformRequest(s.T(), router, http.MethodPost, "/guarded", nil, "")
		s.Equal(http.StatusOK, rec.Code)
	}

	rec := commonhttp.PerformRequest(s.T(), router, http.MethodPost, "/guarded", nil, "")
	s.Equal(http.StatusTooManyRequests, rec.Code)
	s.NotEmpty(rec.Header().Get("Retry-After"))
	s.NotEmpty(rec.Header().Get("X-RateLimit-Reset"))

	var body struct {
		Success             bool   `json:"success"`
		Message             string `json:"message"`
		Error               string `json:"error"`
		RetryAfter          int64  `json:"retry_after"`
		RetryAfterFormatted string `json:"retry_after_formatted"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.False(body.Success)
	s.Equal("rate_limit_exceeded", body.Error)
	s.Equal("محاولات تسجيل دخول كثيرة. يرجى المحاولة لاحقاً.", body.Message, "Arabic is the default locale")
	s.Positive(body.RetryAfter)
	s.NotEmpty(body.RetryAfterFormatted)
}

func (s *RateLimitMiddlewareSuite) TestRejectionMessageFollowsLocale() {
	router := s.newRouter(ratelimit.CategoryAuth, s.cfg, s.store)

	for range s.cfg.AuthMaxAttempts {
		commonhttp.PerformRequest(s.T(), router, http.MethodPost, "/guarded", nil, "")
	}

	rec := commonhttp.PerformLocalizedRequest(s.T(), router, http.MethodPost, "/guarded", nil, "", "en")
	s.Equal(http.StatusTooManyRequests, rec.Code)

	var body struct {
		Message string `json:"message"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal("Too many login attempts. Please try again later.", body.Message)
}

func (s *RateLimitMiddlewareSuite) TestExemptPathBypassesQuota() {
	router := s.newRouter(ratelimit.CategoryAuth, s.cfg, s.store)

	for i := 0; i < s.cfg.AuthMaxAttempts*2; i++ {
		rec := commonhttp.PerformRequest(s.T(), router, http.MethodGet, "/health", nil, "")
		s.Equal(http.StatusOK, rec.Code)
		s.Empty(rec.Header().Get("X-RateLimit-Limit"), "exempt requests consume nothing")
	}
}

type brokenStore struct{}

func (brokenStore) Increment(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("store down")
}

func (brokenStore) Count(context.Context, string) (int64, time.Duration, error) {
	return 0, 0, errors.New("store down")
}

func (brokenStore) Clear(context.Context, string) error {
	return errors.New("store down")
}

func (s *RateLimitMiddlewareSuite) TestFailOpenOnStoreOutage() {
	cfg := s.cfg
	cfg.FailOpen = true
	router := s.newRouter(ratelimit.CategoryAuth, cfg, brokenStore{})

	rec := commonhttp.PerformRequest(s.T(), router, http.MethodPost, "/guarded", nil, "")

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("true", rec.Header().Get("X-RateLimit-Degraded"))
}

func (s *RateLimitMiddlewareSuite) TestFailClosedOnStoreOutage() {
	cfg := s.cfg
	cfg.FailOpen = false
	router := s.newRouter(ratelimit.CategoryAuth, cfg, brokenStore{})

	rec := commonhttp.PerformRequest(s.T(), router, http.MethodPost, "/guarded", nil, "")

	s.Equal(http.StatusServiceUnavailable, rec.Code)
}

func setUser(userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

func (s *RateLimitMiddlewareSuite) TestAdminRoleBypassesQuota() {
	setAdmin := func(c *gin.Context) {
		c.Set("user_id", int64(99))
		c.Set("user_role", user.RoleAdmin)
		c.Next()
	}
	router := s.newRouter(ratelimit.CategoryAuth, s.cfg, s.store, setAdmin)

	for i := 0; i < s.cfg.AuthMaxAttempts*2; i++ {
		rec := commonhttp.PerformRequest(s.T(), router, http.MethodPost, "/guarded", nil, "")
		s.Equal(http.StatusOK, rec.Code)
	}
}

func (s *RateLimitMiddlewareSuite) TestDefaultCategoryKeysPerUser() {
	routerA := s.newRouter(ratelimit.CategoryPayment, s.cfg, s.store, setUser(1))
	routerB := s.newRouter(ratelimit.CategoryPayment, s.cfg, s.store, setUser(2))

	for range s.cfg.PaymentMaxAttempts {
		rec := commonhttp.PerformRequest(s.T(), routerA, http.MethodPost, "/guarded", nil, "")
		s.Equal(http.StatusOK, rec.Code)
	}
	rec := commonhttp.PerformRequest(s.T(), routerA, http.MethodPost, "/guarded", nil, "")
	s.Equal(http.StatusTooManyRequests, rec.Code)

	// Same IP, different account: separate bucket.
	rec = commonhttp.PerformRequest(s.T(), routerB, http.MethodPost, "/guarded", nil, "")
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RateLimitMiddlewareSuite) TestAuthCategoryIgnoresUserIdentity() {
	routerA := s.newRouter(ratelimit.CategoryAuth, s.cfg, s.store, setUser(1))
	routerB := s.newRouter(ratelimit.CategoryAuth, s.cfg, s.store, setUser(2))

	for range s.cfg.AuthMaxAttempts {
		rec := commonhttp.PerformRequest(s.T(), routerA, http.MethodPost, "/guarded", nil, "")
		s.Equal(http.StatusOK, rec.Code)
	}

	// Login attempts are keyed by IP, so switching accounts buys nothing.
	rec := commonhttp.PerformRequest(s.T(), routerB, http.MethodPost, "/guarded", nil, "")
	s.Equal(http.StatusTooManyRequests, rec.Code)
}

func (s *RateLimitMiddlewareSuite) TestSMSCategoryKeysByPhoneAndPreservesBody() {
	limiter := ratelimit.NewLimiter(s.store, s.cfg, s.clock)
	mw := middleware.NewRateLimitMiddleware(limiter, s.cfg, s.logger)

	var seenPhone string
	router := gin.New()
	router.Use(middleware.LocaleMiddleware())
	router.POST("/sms", mw.Limit(ratelimit.CategorySMS), func(c *gin.Context) {
		var req struct {
			Phone string `json:"phone"`
		}
		s.Require().NoError(c.ShouldBindJSON(&req), "body must survive the limiter's peek")
		seenPhone = req.Phone
		c.Status(http.StatusOK)
	})

	first := map[string]any{"phone": "+966500000001"}
	for range s.cfg.SMSMaxAttempts {
		rec := commonhttp.PerformRequest(s.T(), router, http.MethodPost, "/sms", first, "")
		s.Equal(http.StatusOK, rec.Code)
	}
	s.Equal("+966500000001", seenPhone)

	rec := commonhttp.PerformRequest(s.T(), router, http.MethodPost, "/sms", first, "")
	s.Equal(http.StatusTooManyRequests, rec.Code)

	// A different number from the same IP still goes through.
	rec = commonhttp.PerformRequest(s.T(), router, http.MethodPost, "/sms", map[string]any{"phone": "+966500000002"}, "")
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RateLimitMiddlewareSuite) TestWindowResetsAfterDecay() {
	router := s.newRouter(ratelimit.CategoryAuth, s.cfg, s.store)

	for range s.cfg.AuthMaxAttempts {
		commonhttp.PerformRequest(s.T(), router, http.MethodPost, "/guarded", nil, "")
	}
	rec := commonhttp.PerformRequest(s.T(), router, http.MethodPost, "/guarded", nil, "")
	s.Equal(http.StatusTooManyRequests, rec.Code)

	s.clock.Advance(time.Duration(s.cfg.AuthDecayMinutes)*time.Minute + time.Second)

	rec = commonhttp.PerformRequest(s.T(), router, http.MethodPost, "/guarded", nil, "")
	s.Equal(http.StatusOK, rec.Code)
}
