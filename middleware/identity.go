package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"visitor-backend/models"
	"visitor-backend/utils"
)

const userContextKey = "currentUser"

// Identity resolves the acting user from the X-User-ID header set by the
// kiosk frontend after PIN login, and stores it in the request context.
// Session management is a frontend concern; the backend only needs the actor
// for commands and the role for capability checks.
func Identity(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-ID")
		if raw == "" {
			utils.JSONError(c, http.StatusUnauthorized, "missing X-User-ID header")
			c.Abort()
			return
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, "invalid X-User-ID header")
			c.Abort()
			return
		}

		var user models.User
		if err := db.First(&user, uint(id)).Error; err != nil {
			utils.JSONError(c, http.StatusUnauthorized, "unknown user")
			c.Abort()
			return
		}
		if !user.IsActive {
			utils.JSONError(c, http.StatusForbidden, "user is deactivated")
			c.Abort()
			return
		}

		c.Set(userContextKey, &user)
		c.Next()
	}
}

// RequireMinRole gates a route group on the role hierarchy. Plain ordinal
// check; workflow state never feeds into it.
func RequireMinRole(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			utils.JSONError(c, http.StatusUnauthorized, "not authenticated")
			c.Abort()
			return
		}
		if !models.HasMinRole(user.Role, required) {
			utils.JSONError(c, http.StatusForbidden, "insufficient role")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user resolved by Identity, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, ok := v.(*models.User)
	if !ok {
		return nil
	}
	return user
}
