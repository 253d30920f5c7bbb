package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	resdto "amenpay/internal/handler/dto/response"
	"amenpay/internal/handler/httperr"
	"amenpay/internal/pkg/ratelimit"
)

// RateLimitAdminHandler lets support staff inspect and clear limiter keys
// when a legitimate customer gets wedged behind a quota.
type RateLimitAdminHandler struct {
	limiter *ratelimit.Limiter
}

func NewRateLimitAdminHandler(limiter *ratelimit.Limiter) *RateLimitAdminHandler {
	return &RateLimitAdminHandler{limiter: limiter}
}

// @Summary Inspect rate limit key
// @Description Remaining attempts and reset time for one limiter key
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param key path string true "Limiter key"
// @Param category query string false "Quota category" default(default)
// @Success 200 {object} resdto.RateLimitInfoResponse
// @Router /admin/rate-limits/{key} [get]
func (h *RateLimitAdminHandler) GetInfo(c *gin.Context) {
	key := c.Param("key")
	category := ratelimit.ParseCategory(c.DefaultQuery("category", "default"))

	info, err := h.limiter.Info(c.Request.Context(), category, key)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to read rate limit state", nil)
		return
	}

	c.JSON(http.StatusOK, resdto.RateLimitInfoResponse{
		Key:        key,
		Category:   category.String(),
		Remaining:  info.Remaining,
		Max:        info.Max,
		ResetAt:    info.ResetAt,
		RetryAfter: int64(info.RetryAfter / time.Second),
	})
}

// @Summary Clear rate limit key
// @Description Reset the counter for one limiter key
// @Tags admin
// @Security BearerAuth
// @Success 204 "No Content"
// @Param key path string true "Limiter key"
// @Router /admin/rate-limits/{key} [delete]
func (h *RateLimitAdminHandler) Clear(c *gin.Context) {
	key := c.Param("key")
	if err := h.limiter.Clear(c.Request.Context(), key); err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to clear rate limit key", nil)
		return
	}
	c.Status(http.StatusNoContent)
}
