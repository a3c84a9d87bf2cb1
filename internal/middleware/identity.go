// Package middleware carries the request-scoped plumbing shared by
// every route. Authentication is out of scope; callers identify
// themselves with a plain header so history and documents stay
// per-user separated.
package middleware

import "github.com/gin-gonic/gin"

const (
	// UserIDHeader names the caller. Absent, everything lands under
	// DefaultUserID, which keeps single-user deployments zero-config.
	UserIDHeader  = "X-User-ID"
	DefaultUserID = "default"

	userIDKey = "cs_user_id"
)

func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(UserIDHeader)
		if userID == "" {
			userID = DefaultUserID
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID reads the identity set by Identity(); empty before it ran.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
