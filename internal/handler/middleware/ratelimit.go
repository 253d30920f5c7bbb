package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"amenpay/internal/domain/user"
	"amenpay/internal/pkg/config"
	"amenpay/internal/pkg/i18n"
	"amenpay/internal/pkg/ratelimit"
)

// RateLimitMiddleware enforces per-category quotas keyed by a hashed
// fingerprint of the caller. Category selection happens at route wiring; the
// identifier inside the fingerprint depends on the category:
//
//   - auth: client IP (the account under attack is not the caller's)
//   - otp, sms: phone number from the request body, IP when absent
//   - everything else: authenticated user ID, IP when anonymous
type RateLimitMiddleware struct {
	limiter *ratelimit.Limiter
	cfg     config.RateLimitConfig
	logger  *slog.Logger
}

func NewRateLimitMiddleware(limiter *ratelimit.Limiter, cfg config.RateLimitConfig, logger *slog.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		cfg:     cfg,
		logger:  logger,
	}
}

type rateLimitExceededBody struct {
	Success             bool   `json:"success"`
	Message             string `json:"message"`
	Error               string `json:"error"`
	RetryAfter          int64  `json:"retry_after"`
	RetryAfterFormatted string `json:"retry_after_formatted"`
}

func (m *RateLimitMiddleware) Limit(category ratelimit.Category) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.exempt(c) {
			c.Next()
			return
		}

		identifier := m.identifier(c, category)
		fingerprint := ratelimit.Fingerprint(identifier, c.ClientIP(), c.Request.UserAgent())
		key := category.String() + ":" + fingerprint

		result, err := m.limiter.Hit(c.Request.Context(), category, key)
		if err != nil {
			if m.cfg.FailOpen {
				// Degraded mode: a broken limiter store must not take the
				// API down with it.
				m.logger.Warn("rate limiter unavailable, failing open",
					"category", category.String(), "path", c.Request.URL.Path, "error", err)
				c.Header("X-RateLimit-Degraded", "true")
				c.Next()
				return
			}
			m.logger.Error("rate limiter unavailable, failing closed",
				"category", category.String(), "path", c.Request.URL.Path, "error", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"error":   "service_unavailable",
			})
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			m.reject(c, category, result)
			return
		}
		c.Next()
	}
}

func (m *RateLimitMiddleware) reject(c *gin.Context, category ratelimit.Category, result ratelimit.Result) {
	locale := GetLocale(c)
	retryAfter := int64(result.RetryAfter / time.Second)
	if retryAfter < 1 {
		retryAfter = 1
	}

	m.logger.Warn("rate limit exceeded",
		"category", category.String(), "path", c.Request.URL.Path,
		"client_ip", c.ClientIP(), "retry_after", retryAfter)

	c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))

	c.AbortWithStatusJSON(http.StatusTooManyRequests, rateLimitExceededBody{
		Success:             false,
		Message:             category.Message().Resolve(locale),
		Error:               "rate_limit_exceeded",
		RetryAfter:          retryAfter,
		RetryAfterFormatted: i18n.FormatRetryAfter(int(retryAfter), locale),
	})
}

func (m *RateLimitMiddleware) exempt(c *gin.Context) bool {
	if slices.Contains(m.cfg.ExemptPaths, c.Request.URL.Path) {
		return true
	}
	if role, ok := GetUserRole(c); ok && role == user.RoleAdmin {
		return true
	}
	return slices.Contains(m.cfg.WhitelistedIPs, c.ClientIP())
}

func (m *RateLimitMiddleware) identifier(c *gin.Context, category ratelimit.Category) string {
	switch category {
	case ratelimit.CategoryAuth:
		return c.ClientIP()
	case ratelimit.CategoryOTP, ratelimit.CategorySMS:
		if phone := phoneFromBody(c); phone != "" {
			return phone
		}
		return c.ClientIP()
	default:
		if userID, ok := GetUserID(c); ok {
			return "user:" + strconv.FormatInt(userID, 10)
		}
		return c.ClientIP()
	}
}

// phoneFromBody peeks at the JSON body for a phone field and restores the
// body so binding downstream still works.
func phoneFromBody(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))

	var body struct {
		Phone string `json:"phone"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return body.Phone
}
