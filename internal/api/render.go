package api

import (
	"net/http" // HTTP status codes

	"book_catalog/internal/middleware" // Request ID lookup
	"book_catalog/internal/session"    // Session store

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// render executes a page template, adding the login state and any pending flash notices
func render(c *gin.Context, sessions *session.Manager, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	sess := session.FromContext(c)
	data["LoggedIn"] = sess != nil && sess.Authenticated()
	// Flashes are shown once, so consuming them must be persisted
	if sess != nil && len(sess.Flashes) > 0 {
		data["Flashes"] = sess.PopFlashes()
		if err := sessions.Commit(c, sess); err != nil {
			logrus.WithFields(logrus.Fields{
				"request_id": c.GetString(middleware.RequestIDKey), // Request ID
				"error":      err.Error(),                          // Error message
			}).Error("Failed to save session")
		}
	}
	c.HTML(status, name, data)
}

// redirectWithFlash queues a notice on the session and redirects
func redirectWithFlash(c *gin.Context, sessions *session.Manager, location, msg string) {
	sess := session.FromContext(c)
	sess.AddFlash(msg)
	if err := sessions.Commit(c, sess); err != nil {
		internalError(c, err, "Failed to save session")
		return
	}
	c.Redirect(http.StatusFound, location)
}

// internalError logs err and answers with a generic 500
func internalError(c *gin.Context, err error, msg string) {
	logrus.WithFields(logrus.Fields{
		"request_id": c.GetString(middleware.RequestIDKey), // Request ID
		"path":       c.Request.URL.Path,                   // Request path
		"error":      err.Error(),                          // Error message
	}).Error(msg)
	_ = c.Error(err) // Attach for the request logger
	c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	c.Abort()
}

// notFoundPage renders the not-found page with a message
func notFoundPage(c *gin.Context, sessions *session.Manager, msg string) {
	render(c, sessions, http.StatusNotFound, "not_found.html", gin.H{
		"Title":   "Not found", // Page title
		"Message": msg,         // Explanation
	})
}
