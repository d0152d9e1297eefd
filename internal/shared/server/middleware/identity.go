package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hospup-backend/internal/shared/server/respond"
)

const userIDKey = "userId"

// Identity resolves the caller from gateway-provided headers and stores it
// in context. Session management lives upstream; this service only scopes
// data by the forwarded identity. Guests get a namespaced synthetic ID.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		if userID := strings.TrimSpace(c.GetHeader("X-User-Id")); userID != "" {
			c.Set(userIDKey, userID)
			c.Next()
			return
		}

		if guestID := strings.TrimSpace(c.GetHeader("X-Guest-Id")); guestID != "" {
			c.Set(userIDKey, "guest:"+guestID)
			c.Set("isGuest", true)
			c.Next()
			return
		}

		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity headers", nil)
	}
}

// UserIDFromContext returns the caller identity stored by Identity middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
