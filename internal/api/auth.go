package api

import (
	"context"  // Context for store calls
	"errors"   // Sentinel errors
	"fmt"      // Error wrapping
	"net/http" // HTTP status codes
	"sync"     // One-time dummy hash

	"book_catalog/internal/domain"     // Importing domain models
	"book_catalog/internal/metrics"    // Login counters
	"book_catalog/internal/middleware" // Request ID and user ID lookup
	"book_catalog/internal/session"    // Session store
	"book_catalog/internal/store"      // Catalog store
	"book_catalog/internal/validation" // Registration checks

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
	"golang.org/x/crypto/bcrypt" // Password hashing
)

// LoginFailedMessage is the only thing a caller learns about a failed login
const LoginFailedMessage = "Invalid username or password"

// Authentication failures. Both wrap errInvalidCredentials; the reason is only logged.
var (
	errInvalidCredentials = errors.New("invalid credentials")
	errUnknownUser        = fmt.Errorf("%w: unknown user", errInvalidCredentials)
	errBadPassword        = fmt.Errorf("%w: bad password", errInvalidCredentials)
)

// dummyHash is compared against when the user does not exist, so both failures cost one bcrypt check
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	return h
})

// LoginRequest is the login form
type LoginRequest struct {
	Username string `form:"username"` // Username as typed
	Password string `form:"password"` // Plaintext password
}

// RegisterRequest is the registration form
type RegisterRequest struct {
	Username      string `form:"username"`      // Requested username
	Password      string `form:"password"`      // Plaintext password
	CheckPassword string `form:"checkPassword"` // Confirmation
}

// authenticate checks a username and password against the store
func authenticate(ctx context.Context, st *store.Store, username, password string) (*domain.User, error) {
	user, err := st.UserByUsername(ctx, username) // Fetch user from database
	if errors.Is(err, store.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password)) // Same cost as a real check
		return nil, errUnknownUser
	}
	if err != nil {
		return nil, err
	}
	// Compare provided password with stored hash
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, errBadPassword
	}
	return user, nil
}

// LoginPageHandler renders the login form, or sends logged-in users home
func LoginPageHandler(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := middleware.CurrentUserID(c); ok {
			c.Redirect(http.StatusFound, "/") // Already logged in
			return
		}
		render(c, sessions, http.StatusOK, "login.html", gin.H{"Title": "Log in"})
	}
}

// LoginHandler authenticates a user and binds them to the session
func LoginHandler(st *store.Store, sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind form to struct
		if err := c.ShouldBind(&req); err != nil {
			c.String(http.StatusBadRequest, "Invalid request")
			return
		}
		user, err := authenticate(c.Request.Context(), st, req.Username, req.Password)
		if err != nil {
			if !errors.Is(err, errInvalidCredentials) {
				internalError(c, err, "Login lookup failed")
				return
			}
			metrics.RecordLogin("failure")
			// Reason goes to the log only, never to the caller
			logrus.WithFields(logrus.Fields{
				"request_id": c.GetString(middleware.RequestIDKey), // Request ID
				"username":   req.Username,                         // Attempted username
				"reason":     err.Error(),                          // Failure reason
			}).Warn("Login failed")
			c.String(http.StatusUnauthorized, LoginFailedMessage)
			return
		}

		sess := session.FromContext(c)
		// New session ID on login
		if err := sessions.Renew(c.Request.Context(), sess); err != nil {
			internalError(c, err, "Failed to renew session")
			return
		}
		sess.UserID = user.ID // Bind user to session
		sess.AddFlash("You've successfully logged in!")
		if err := sessions.Commit(c, sess); err != nil {
			internalError(c, err, "Failed to save session")
			return
		}
		metrics.RecordLogin("success")
		logrus.WithFields(logrus.Fields{
			"request_id": c.GetString(middleware.RequestIDKey), // Request ID
			"user_id":    user.ID,                              // User ID
		}).Info("User logged in")
		c.Redirect(http.StatusFound, "/")
	}
}

// LogoutHandler clears the session's user binding; safe without a session
func LogoutHandler(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := session.FromContext(c)
		if sess.Authenticated() {
			userID := sess.UserID
			sess.UserID = 0 // Unbind user
			if err := sessions.Commit(c, sess); err != nil {
				internalError(c, err, "Failed to save session")
				return
			}
			logrus.WithFields(logrus.Fields{
				"request_id": c.GetString(middleware.RequestIDKey), // Request ID
				"user_id":    userID,                               // User ID
			}).Info("User logged out")
		}
		c.Redirect(http.StatusFound, "/")
	}
}

// RegisterPageHandler renders an empty registration form, or sends logged-in users home
func RegisterPageHandler(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := middleware.CurrentUserID(c); ok {
			c.Redirect(http.StatusFound, "/") // Already logged in
			return
		}
		render(c, sessions, http.StatusOK, "register.html", gin.H{
			"Title":  "Register",          // Page title
			"Errors": validation.Errors{}, // No errors yet
		})
	}
}

// RegisterHandler validates the form and creates the user; it does not log them in
func RegisterHandler(st *store.Store, sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind form to struct
		if err := c.ShouldBind(&req); err != nil {
			c.String(http.StatusBadRequest, "Invalid request")
			return
		}
		ctx := c.Request.Context()
		errs := validation.Registration(req.Username, req.Password, req.CheckPassword)
		// Report a taken username alongside the other errors
		if req.Username != "" {
			taken, err := st.UsernameTaken(ctx, req.Username)
			if err != nil {
				internalError(c, err, "Username lookup failed")
				return
			}
			if taken {
				errs.Add(validation.FieldUsername, validation.MsgUserExists)
			}
		}
		if errs.Any() {
			renderRegisterErrors(c, sessions, req.Username, errs)
			return
		}
		// Hash the password and create the user
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			internalError(c, err, "Failed to hash password")
			return
		}
		user, err := st.CreateUser(ctx, req.Username, string(hash))
		if errors.Is(err, store.ErrDuplicate) {
			// Lost a race with a concurrent registration
			errs.Add(validation.FieldUsername, validation.MsgUserExists)
			renderRegisterErrors(c, sessions, req.Username, errs)
			return
		}
		if err != nil {
			internalError(c, err, "Failed to create user")
			return
		}
		logrus.WithFields(logrus.Fields{
			"request_id": c.GetString(middleware.RequestIDKey), // Request ID
			"user_id":    user.ID,                              // New user ID
		}).Info("User registered")
		c.Redirect(http.StatusFound, "/login")
	}
}

func renderRegisterErrors(c *gin.Context, sessions *session.Manager, username string, errs validation.Errors) {
	render(c, sessions, http.StatusBadRequest, "register.html", gin.H{
		"Title":    "Register", // Page title
		"Username": username,   // Keep what was typed
		"Errors":   errs,       // Per-field messages
	})
}
