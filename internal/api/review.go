package api

import (
	"errors"   // errors.Is for store lookups
	"net/http" // HTTP status codes
	"net/url"  // Path escaping

	"book_catalog/internal/domain"     // Importing domain models
	"book_catalog/internal/metrics"    // Review counter
	"book_catalog/internal/middleware" // Request ID and user ID lookup
	"book_catalog/internal/session"    // Session store
	"book_catalog/internal/store"      // Catalog store
	"book_catalog/internal/validation" // Binding error messages

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// ReviewForm is the review submission form
type ReviewForm struct {
	BookID string `form:"book_id" binding:"required"`            // ISBN being reviewed
	Review string `form:"review" binding:"required,max=2000"`    // Review text
	Rating int    `form:"rating" binding:"required,min=1,max=5"` // Score from 1 to 5
}

// ReviewHandler stores the logged-in user's review of a book
func ReviewHandler(st *store.Store, sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		bookID := c.PostForm("book_id")
		if bookID == "" {
			c.String(http.StatusBadRequest, "missing book_id")
			return
		}
		if _, err := st.BookByISBN(ctx, bookID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				notFoundPage(c, sessions, "No book with ISBN "+bookID)
				return
			}
			internalError(c, err, "Failed to fetch book")
			return
		}
		bookPage := "/books/" + url.PathEscape(bookID)

		var form ReviewForm // Bind form to struct
		if err := c.ShouldBind(&form); err != nil {
			sess := session.FromContext(c)
			for _, msg := range validation.BindingMessages(err) {
				sess.AddFlash(msg)
			}
			if err := sessions.Commit(c, sess); err != nil {
				internalError(c, err, "Failed to save session")
				return
			}
			c.Redirect(http.StatusFound, bookPage)
			return
		}

		userID, _ := middleware.CurrentUserID(c)
		review := domain.Review{
			UserID: userID,      // Author
			BookID: form.BookID, // Book
			Review: form.Review, // Text
			Rating: form.Rating, // Score
		}
		// The unique index rejects a second review atomically
		err := st.CreateReview(ctx, &review)
		if errors.Is(err, store.ErrDuplicate) {
			redirectWithFlash(c, sessions, bookPage, "you have already reviewed this book")
			return
		}
		if err != nil {
			internalError(c, err, "Failed to create review")
			return
		}
		metrics.RecordReviewCreated()
		logrus.WithFields(logrus.Fields{
			"request_id": c.GetString(middleware.RequestIDKey), // Request ID
			"user_id":    userID,                               // Author
			"isbn":       bookID,                               // Book
			"rating":     form.Rating,                          // Score
		}).Info("Review created")
		c.Redirect(http.StatusFound, bookPage)
	}
}
