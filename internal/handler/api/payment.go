package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	reqdto "amenpay/internal/handler/dto/request"
	resdto "amenpay/internal/handler/dto/response"
	"amenpay/internal/handler/httperr"
	"amenpay/internal/handler/middleware"
	"amenpay/internal/pkg/errs"
	"amenpay/internal/usecase"
)

type PaymentHandler struct {
	payments usecase.PaymentUseCase
}

func NewPaymentHandler(payments usecase.PaymentUseCase) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// @Summary Create payment
// @Description Accept a payment for asynchronous processing
// @Tags payments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body reqdto.CreatePaymentRequest true "Payment request"
// @Success 202 {object} resdto.TransactionResponse
// @Failure 400 {object} httperr.Response
// @Router /payments [post]
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errs.ErrTokenRequired, "User not authenticated", nil)
		return
	}

	var req reqdto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	created, err := h.payments.CreatePayment(c.Request.Context(), userID, req.ToInput())
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to accept payment", nil)
		return
	}

	// Processing is asynchronous; the transaction comes back pending.
	c.JSON(http.StatusAccepted, resdto.FromTransaction(created))
}

// @Summary Get payment
// @Description Get one of the caller's transactions
// @Tags payments
// @Security BearerAuth
// @Produce json
// @Param id path int true "Transaction ID"
// @Success 200 {object} resdto.TransactionResponse
// @Failure 404 {object} httperr.Response
// @Router /payments/{id} [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errs.ErrTokenRequired, "User not authenticated", nil)
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid transaction ID", nil)
		return
	}

	t, err := h.payments.GetPayment(c.Request.Context(), userID, id)
	if err != nil {
		if errors.Is(err, errs.ErrTransactionNotFound) {
			httperr.AbortWithError(c, http.StatusNotFound, err, "Transaction not found", nil)
			return
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, resdto.FromTransaction(t))
}

// @Summary List payments
// @Description List the caller's transactions, newest first
// @Tags payments
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} resdto.TransactionResponse
// @Router /payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errs.ErrTokenRequired, "User not authenticated", nil)
		return
	}

	limit := queryInt32(c, "limit", 20)
	offset := queryInt32(c, "offset", 0)

	items, err := h.payments.ListPayments(c.Request.Context(), userID, limit, offset)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, resdto.FromTransactionList(items))
}

func queryInt32(c *gin.Context, name string, fallback int32) int32 {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return fallback
	}
	return int32(v)
}
