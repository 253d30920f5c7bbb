package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"amenpay/internal/domain/user"
	"amenpay/internal/handler/httperr"
	"amenpay/internal/pkg/cookie"
	"amenpay/internal/pkg/errs"
	"amenpay/internal/usecase"
)

type AuthMiddleware struct {
	auth usecase.AuthUseCase
}

const (
	ctxUserIDKey   = "user_id"
	ctxUserRoleKey = "user_role"
)

var roleHierarchy = map[user.Role]int{
	user.RoleCustomer: 1,
	user.RoleSupport:  2,
	user.RoleAdmin:    3,
}

func NewAuthMiddleware(auth usecase.AuthUseCase) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

func extractToken(c *gin.Context) string {
	if token := cookie.GetAccessToken(c); token != "" {
		return token
	}
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(authHeader[len("Bearer "):])
	}
	return ""
}

// RequireAuth rejects with 401 only when no token was presented at all. A
// token that fails validation, or one whose principal has been deactivated,
// is a 403: the caller identified itself and was refused.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			httperr.AbortWithError(c, http.StatusUnauthorized, errs.ErrTokenRequired, "Access token required", nil)
			return
		}

		userID, role, err := m.auth.ValidateToken(c.Request.Context(), token)
		if err != nil {
			slog.Warn("token validation failed", "error", err.Error())
			if errors.Is(err, errs.ErrUserInactive) {
				httperr.AbortWithError(c, http.StatusForbidden, err, "Account is inactive", nil)
				return
			}
			httperr.AbortWithError(c, http.StatusForbidden, errs.ErrTokenInvalid, "Invalid or expired token", nil)
			return
		}

		c.Set(ctxUserIDKey, userID)
		c.Set(ctxUserRoleKey, role)
		c.Next()
	}
}

// OptionalAuth sets the user context when a valid token is present but never
// rejects. The rate limiter runs before RequireAuth and uses this to key
// per-user quotas.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.Next()
			return
		}
		userID, role, err := m.auth.ValidateToken(c.Request.Context(), token)
		if err != nil {
			c.Next()
			return
		}
		c.Set(ctxUserIDKey, userID)
		c.Set(ctxUserRoleKey, role)
		c.Next()
	}
}

func (m *AuthMiddleware) RequireRoleAtLeast(minRole user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetUserRole(c)
		if !ok {
			// Must run after RequireAuth()
			httperr.AbortWithError(c, http.StatusInternalServerError, errs.ErrTokenInvalid, "Internal server error", nil)
			return
		}
		if roleHierarchy[role] < roleHierarchy[minRole] {
			httperr.AbortWithError(c, http.StatusForbidden, errs.ErrTokenInvalid, "Insufficient permissions", nil)
			return
		}
		c.Next()
	}
}

func GetUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(ctxUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func GetUserRole(c *gin.Context) (user.Role, bool) {
	v, exists := c.Get(ctxUserRoleKey)
	if !exists {
		return "", false
	}
	role, ok := v.(user.Role)
	return role, ok
}
