package api

import (
	"context"  // Context for rating lookups
	"errors"   // errors.Is for store lookups
	"net/http" // HTTP status codes

	"book_catalog/internal/middleware" // User ID lookup
	"book_catalog/internal/ratings"    // External ratings
	"book_catalog/internal/session"    // Session store
	"book_catalog/internal/store"      // Catalog store

	"github.com/gin-gonic/gin" // Gin web framework
)

// RatingLookup fetches the aggregate rating for an ISBN
type RatingLookup interface {
	Lookup(ctx context.Context, isbn string) (*ratings.Summary, error)
}

// HomeHandler greets the logged-in user
func HomeHandler(st *store.Store, sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.CurrentUserID(c)
		user, err := st.UserByID(c.Request.Context(), userID)
		if errors.Is(err, store.ErrNotFound) {
			// Session names a user that no longer exists
			sess := session.FromContext(c)
			sess.UserID = 0
			if err := sessions.Commit(c, sess); err != nil {
				internalError(c, err, "Failed to save session")
				return
			}
			c.Redirect(http.StatusFound, "/login")
			return
		}
		if err != nil {
			internalError(c, err, "Failed to fetch user")
			return
		}
		render(c, sessions, http.StatusOK, "home.html", gin.H{
			"Title":    "Home",        // Page title
			"Username": user.Username, // Greeting
		})
	}
}

// SearchHandler lists books whose ISBN, title or author contains search_value
func SearchHandler(st *store.Store, sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.Query("search_value")
		books, err := st.SearchBooks(c.Request.Context(), query)
		if err != nil {
			internalError(c, err, "Book search failed")
			return
		}
		render(c, sessions, http.StatusOK, "search.html", gin.H{
			"Title": "Search", // Page title
			"Query": query,    // Echo the query
			"Books": books,    // Matches, possibly empty
		})
	}
}

// BookHandler shows a book with its external rating and reviews
func BookHandler(st *store.Store, rl RatingLookup, sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		isbn := c.Param("isbn")
		book, err := st.BookByISBN(ctx, isbn)
		if errors.Is(err, store.ErrNotFound) {
			notFoundPage(c, sessions, "No book with ISBN "+isbn)
			return
		}
		if err != nil {
			internalError(c, err, "Failed to fetch book")
			return
		}
		summary, err := rl.Lookup(ctx, isbn)
		if err != nil {
			internalError(c, err, "Rating lookup failed")
			return
		}
		reviews, err := st.ReviewsForBook(ctx, isbn)
		if err != nil {
			internalError(c, err, "Failed to fetch reviews")
			return
		}
		userID, _ := middleware.CurrentUserID(c)
		reviewed := false
		for _, r := range reviews {
			if r.UserID == userID {
				reviewed = true
				break
			}
		}
		render(c, sessions, http.StatusOK, "book.html", gin.H{
			"Title":    book.Title, // Page title
			"Book":     book,       // Catalog record
			"Rating":   summary,    // External rating, fields may be nil
			"Reviews":  reviews,    // Reviews with usernames
			"Reviewed": reviewed,   // Hide the form once reviewed
		})
	}
}
