package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	reqdto "amenpay/internal/handler/dto/request"
	resdto "amenpay/internal/handler/dto/response"
	"amenpay/internal/handler/httperr"
	"amenpay/internal/handler/middleware"
	"amenpay/internal/pkg/config"
	"amenpay/internal/pkg/cookie"
	"amenpay/internal/pkg/errs"
	"amenpay/internal/usecase"
)

type AuthHandler struct {
	auth      usecase.AuthUseCase
	cookieCfg config.CookieConfig
	jwtCfg    config.JWTConfig
}

func NewAuthHandler(auth usecase.AuthUseCase, cookieCfg config.CookieConfig, jwtCfg config.JWTConfig) *AuthHandler {
	return &AuthHandler{
		auth:      auth,
		cookieCfg: cookieCfg,
		jwtCfg:    jwtCfg,
	}
}

// @Summary User login
// @Description Login with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body reqdto.LoginRequest true "Login request"
// @Success 200 {object} resdto.LoginResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req reqdto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	token, u, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrInvalidCredential):
			httperr.AbortWithError(c, http.StatusUnauthorized, err, "Invalid email or password", nil)
		case errors.Is(err, errs.ErrUserInactive):
			httperr.AbortWithError(c, http.StatusForbidden, err, "Account is inactive", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}

	expiry, err := time.ParseDuration(h.jwtCfg.Duration)
	if err != nil {
		expiry = 24 * time.Hour
	}
	cookie.SetTokenCookie(c, h.cookieCfg, token, expiry)

	c.JSON(http.StatusOK, resdto.LoginResponse{
		AccessToken: token,
		User:        resdto.FromUser(u),
	})
}

// @Summary User logout
// @Description Clear the session cookie
// @Tags auth
// @Security BearerAuth
// @Success 204 "No Content"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	cookie.ClearTokenCookie(c, h.cookieCfg)
	c.Status(http.StatusNoContent)
}

// @Summary Get current user
// @Description Get current authenticated user information
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} resdto.UserResponse
// @Failure 401 {object} httperr.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errs.ErrTokenRequired, "User not authenticated", nil)
		return
	}

	u, err := h.auth.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		httperr.AbortWithError(c, http.StatusUnauthorized, err, "User not found", nil)
		return
	}
	c.JSON(http.StatusOK, resdto.FromUser(u))
}
