package middleware

import (
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework
)

// RequireLogin redirects anonymous callers to the login page
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check if userID exists in context
		if _, exists := c.Get(UserIDKey); !exists {
			c.Redirect(http.StatusFound, "/login") // Send to login form
			c.Abort()
			return
		}
		c.Next() // Logged in, proceed
	}
}

// CurrentUserID returns the logged-in user's ID from the context
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
