package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	reqdto "amenpay/internal/handler/dto/request"
	resdto "amenpay/internal/handler/dto/response"
	"amenpay/internal/handler/httperr"
	"amenpay/internal/handler/middleware"
	"amenpay/internal/pkg/errs"
	"amenpay/internal/usecase"
)

type NotificationHandler struct {
	notifications usecase.NotificationUseCase
}

func NewNotificationHandler(notifications usecase.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// @Summary Create notification
// @Description Accept a notification for asynchronous delivery
// @Tags notifications
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body reqdto.CreateNotificationRequest true "Notification request"
// @Success 202 {object} resdto.NotificationResponse
// @Failure 400 {object} httperr.Response
// @Router /notifications [post]
func (h *NotificationHandler) CreateNotification(c *gin.Context) {
	var req reqdto.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	created, err := h.notifications.CreateNotification(c.Request.Context(), req.ToInput())
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrUserNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "User not found", nil)
		case errors.Is(err, errs.ErrUnknownChannel):
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Unknown notification channel", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to accept notification", nil)
		}
		return
	}
	c.JSON(http.StatusAccepted, resdto.FromNotification(created))
}

// @Summary List notifications
// @Description List the caller's notifications, newest first
// @Tags notifications
// @Security BearerAuth
// @Produce json
// @Success 200 {array} resdto.NotificationResponse
// @Router /notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errs.ErrTokenRequired, "User not authenticated", nil)
		return
	}

	limit := queryInt32(c, "limit", 20)
	offset := queryInt32(c, "offset", 0)

	items, err := h.notifications.ListNotifications(c.Request.Context(), userID, limit, offset)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, resdto.FromNotificationList(items))
}
