package middleware

import (
	"net/http"
	"strings"

	"github.com/freshroots/harvest-backend/internal/core/access"
	"github.com/freshroots/harvest-backend/utils"
	"github.com/gin-gonic/gin"
)

const (
	UserIDKey = "userId"
	RoleKey   = "role"
)

type TokenVerifier interface {
	VerifyToken(token string) (*utils.Claims, error)
}

func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, utils.ErrorResponse("Authorization header is required"))
			c.Abort()
			return
		}

		scheme, tokenString, ok := strings.Cut(authHeader, " ")
		if !ok || scheme != "Bearer" || tokenString == "" {
			c.JSON(http.StatusUnauthorized, utils.ErrorResponse("Authorization header must be Bearer token"))
			c.Abort()
			return
		}

		claims, err := verifier.VerifyToken(tokenString)
		if err != nil {
			// 401 lets the storefront refresh its token
			c.JSON(http.StatusUnauthorized, utils.ErrorResponse(err.Error()))
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(RoleKey, access.ParseRole(claims.Role))
		c.Next()
	}
}

// RequireCapability aborts with 403 unless the caller's role grants action.
func RequireCapability(action access.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(RoleKey)
		if !exists {
			c.JSON(http.StatusUnauthorized, utils.ErrorResponse("Role not found in context"))
			c.Abort()
			return
		}

		r, _ := role.(access.Role)
		if !access.Allowed(r, action) {
			c.JSON(http.StatusForbidden, utils.ErrorResponse("You do not have permission to access this resource"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// Caller returns the authenticated user id and role.
func Caller(c *gin.Context) (string, access.Role) {
	uid := c.GetString(UserIDKey)
	role, _ := c.Get(RoleKey)
	r, _ := role.(access.Role)
	return uid, r
}
