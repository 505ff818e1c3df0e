package middlewares

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"civicsync-workflow/models"
	authUtils "civicsync-workflow/utils"

	"github.com/gin-gonic/gin"
)

// AuthCookie is the cookie login sets and the middleware falls back to.
const AuthCookie = "auth_token"

// AuthMiddleware verifies the bearer token (or auth_token cookie) and stores
// the caller's user id and role on the context.
func AuthMiddleware(tokens authUtils.TokenConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if tokenString == "" {
			tokenString, _ = c.Cookie(AuthCookie)
		}
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No authorization token provided"})
			c.Abort()
			return
		}

		claims, err := tokens.ParseToken(tokenString)
		if err != nil {
			slog.Debug("token validation failed", "error", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization token"})
			c.Abort()
			return
		}

		c.Set(authUtils.UserIDKey, claims.UserID.Hex())
		c.Set(authUtils.RoleKey, string(claims.Role))
		c.Next()
	}
}

// RequireRoles rejects callers whose role is not listed. It must run after
// AuthMiddleware.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !slices.Contains(roles, authUtils.CurrentRole(c)) {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			c.Abort()
			return
		}
		c.Next()
	}
}
