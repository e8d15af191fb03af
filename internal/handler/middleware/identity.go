package middleware

import (
	"net/http"

	"labbook/internal/domain/booking"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	userIDKey   = "identity_user_id"
	userRoleKey = "identity_user_role"
)

// RequireIdentity reads the caller identity the authenticating proxy injects
// via X-User-ID and X-User-Role. Authentication itself happens upstream.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := uuid.Parse(c.GetHeader("X-User-ID"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing or invalid X-User-ID header",
			})
			return
		}

		role := booking.Role(c.GetHeader("X-User-Role"))
		if !role.IsValid() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing or invalid X-User-Role header",
			})
			return
		}

		c.Set(userIDKey, userID)
		c.Set(userRoleKey, role)
		c.Next()
	}
}

// RequirePrivileged gates admin endpoints on a privileged role. Must run
// after RequireIdentity.
func RequirePrivileged() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetUserRole(c)
		if !ok || !role.Privileged() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Privileged role required",
			})
			return
		}
		c.Next()
	}
}

func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(userIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func GetUserRole(c *gin.Context) (booking.Role, bool) {
	v, exists := c.Get(userRoleKey)
	if !exists {
		return "", false
	}
	role, ok := v.(booking.Role)
	return role, ok
}
