package api

import (
	"errors"   // errors.Is for store lookups
	"net/http" // HTTP status codes

	"book_catalog/internal/middleware" // Request ID lookup
	"book_catalog/internal/store"      // Catalog store

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// BookResponse is the public JSON view of a book
type BookResponse struct {
	Title         string   `json:"title"`          // Book title
	Author        string   `json:"author"`         // Book author
	Year          int      `json:"year"`           // Publication year
	ISBN          string   `json:"isbn"`           // ISBN
	RatingsCount  *int64   `json:"ratings_count"`  // Null when unrated
	AverageRating *float64 `json:"average_rating"` // Null when unrated
}

// BookAPIHandler returns a book and its external rating as JSON; no login needed
func BookAPIHandler(st *store.Store, rl RatingLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		isbn := c.Param("isbn")
		book, err := st.BookByISBN(ctx, isbn)
		if errors.Is(err, store.ErrNotFound) {
			c.String(http.StatusNotFound, "Page not found")
			return
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"request_id": c.GetString(middleware.RequestIDKey), // Request ID
				"isbn":       isbn,                                 // Book
				"error":      err.Error(),                          // Error message
			}).Error("Failed to fetch book")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch book"})
			return
		}
		summary, err := rl.Lookup(ctx, isbn)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"request_id": c.GetString(middleware.RequestIDKey), // Request ID
				"isbn":       isbn,                                 // Book
				"error":      err.Error(),                          // Error message
			}).Error("Rating lookup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Rating lookup failed"})
			return
		}
		c.JSON(http.StatusOK, BookResponse{
			Title:         book.Title,
			Author:        book.Author,
			Year:          book.Year,
			ISBN:          book.ISBN,
			RatingsCount:  summary.RatingsCount,
			AverageRating: summary.AverageRating,
		})
	}
}
