package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"crew-recruitment-backend/internal/delivery/http/response"
	"crew-recruitment-backend/internal/domain"
	"crew-recruitment-backend/pkg/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// RoleAdmin may trigger syncs manually and operate the retry queue.
	RoleAdmin = "admin"
	// RoleCandidate is the role of every user without an explicit claim.
	RoleCandidate = auth.DefaultRole
)

func AuthMiddleware(verifier *auth.Verifier, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string

		// 1. Try to get token from Header
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			tokenString = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		} else if cookie, err := c.Cookie("auth_token"); err == nil && cookie != "" {
			// 2. Try to get token from Cookie
			tokenString = cookie
		}

		if tokenString == "" {
			response.Error(c, http.StatusUnauthorized, "Authorization header or auth_token cookie required", nil)
			c.Abort()
			return
		}

		claims, err := verifier.Verify(c.Request.Context(), tokenString)
		if err != nil {
			log.Debug("token validation failed", zap.Error(err))
			response.Error(c, http.StatusUnauthorized, "Invalid token", nil)
			c.Abort()
			return
		}

		c.Set(string(domain.KeyUserID), claims.Subject)
		c.Set(string(domain.KeyUserEmail), claims.Email)
		c.Set(string(domain.KeyUserRole), claims.Role)

		// Usecases read identity from the request context.
		ctx := context.WithValue(c.Request.Context(), domain.KeyUserID, claims.Subject)
		ctx = context.WithValue(ctx, domain.KeyUserRole, claims.Role)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRole rejects users whose role is not one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(string(domain.KeyUserRole))
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		response.Error(c, http.StatusForbidden, "Insufficient permissions", nil)
		c.Abort()
	}
}

// CronAuth guards scheduler endpoints with a shared secret sent as a bearer
// token. An empty secret disables the endpoints.
func CronAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			response.Error(c, http.StatusServiceUnavailable, "Cron endpoints are disabled", nil)
			c.Abort()
			return
		}
		got := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			response.Error(c, http.StatusUnauthorized, "Invalid cron secret", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
