package middleware

import (
	"net/http"
	"strings"

	jwtsvc "fixhub/internal/pkg/jwt"
	"fixhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// SessionCookie is the http-only cookie the auth handler sets on login.
const SessionCookie = "fixhub_session"

func tokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if strings.HasPrefix(h, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		}
		return ""
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}

// Auth requires a valid session token (Authorization header or cookie) and
// populates user_id and role in the gin context.
func Auth(jwt *jwtsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := tokenFromRequest(c)
		if tokenStr == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing session token")
			c.Abort()
			return
		}

		claims, err := jwt.ValidateToken(tokenStr)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)

		c.Next()
	}
}

// OptionalAuth populates identity when a valid token is present but lets
// anonymous requests through. Used by the public job-browsing endpoint,
// which behaves differently for repairers.
func OptionalAuth(jwt *jwtsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr := tokenFromRequest(c); tokenStr != "" {
			if claims, err := jwt.ValidateToken(tokenStr); err == nil {
				c.Set("user_id", claims.UserID)
				c.Set("role", claims.Role)
			}
		}
		c.Next()
	}
}
