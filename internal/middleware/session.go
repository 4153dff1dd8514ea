package middleware

import (
	"errors"   // errors.Is for session lookups
	"net/http" // HTTP status codes

	"book_catalog/internal/session" // Session store

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// UserIDKey is the context key holding the logged-in user's ID
const UserIDKey = "userID"

// SessionMiddleware loads the caller's session from the cookie and stores it in the context
func SessionMiddleware(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := m.New() // Anonymous session unless the cookie names a live one
		// Check the session cookie
		if token, err := c.Cookie(session.CookieName); err == nil && token != "" {
			loaded, err := m.Load(c.Request.Context(), token)
			switch {
			case err == nil:
				sess = loaded // Use the stored session
			case errors.Is(err, session.ErrNotFound):
				// Expired or tampered cookie, continue anonymously
			default:
				// Session store unreachable
				logrus.WithFields(logrus.Fields{
					"request_id": c.GetString(RequestIDKey), // Request ID
					"error":      err.Error(),               // Error message
				}).Error("Failed to load session")
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
		}
		c.Set(session.ContextKey, sess) // Store session in context
		// Expose the user ID the same way for every handler
		if sess.Authenticated() {
			c.Set(UserIDKey, sess.UserID)
		}
		c.Next() // Proceed to the next handler
	}
}
