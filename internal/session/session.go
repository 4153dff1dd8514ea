// Package session keeps server-side session state in Redis. The browser only
// holds a signed token naming the session ID.
package session

import (
	"context"  // Context for Redis operations
	"errors"   // Sentinel errors
	"fmt"      // Error wrapping
	"net/http" // Cookie SameSite mode
	"time"     // Session lifetime

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/google/uuid"       // Random session IDs
	"github.com/redis/go-redis/v9" // Redis client
)

const (
	// CookieName is the name of the session cookie
	CookieName = "session"
	// ContextKey is where the middleware stores the current *Session
	ContextKey = "session"
	keyPrefix  = "session:"
)

// ErrNotFound is returned when no live session matches a token
var ErrNotFound = errors.New("session not found")

// Session is the attribute set stored per session
type Session struct {
	ID      string   `json:"-"`                 // Session ID, the Redis key suffix
	UserID  uint     `json:"user_id,omitempty"` // Logged-in user, zero when anonymous
	Flashes []string `json:"flashes,omitempty"` // Pending one-time notices
}

// Authenticated reports whether a user is bound to the session
func (s *Session) Authenticated() bool {
	return s.UserID != 0
}

// AddFlash queues a notice for the next rendered page
func (s *Session) AddFlash(msg string) {
	s.Flashes = append(s.Flashes, msg)
}

// PopFlashes returns and clears the pending notices
func (s *Session) PopFlashes() []string {
	f := s.Flashes
	s.Flashes = nil
	return f
}

// Manager creates, loads and persists sessions
type Manager struct {
	rdb    *redis.Client // Redis client
	secret []byte        // HMAC key for session tokens
	ttl    time.Duration // Session lifetime
	secure bool          // Mark cookies Secure
}

// NewManager returns a Manager storing sessions in rdb for ttl
func NewManager(rdb *redis.Client, secret []byte, ttl time.Duration, secure bool) *Manager {
	return &Manager{rdb: rdb, secret: secret, ttl: ttl, secure: secure}
}

// New returns an unsaved anonymous session
func (m *Manager) New() *Session {
	return &Session{ID: uuid.NewString()}
}

// Load resolves a cookie token to its stored session.
// Tampered, expired or unknown tokens yield ErrNotFound; Redis failures are returned as is.
func (m *Manager) Load(ctx context.Context, token string) (*Session, error) {
	id, err := ParseToken(token, m.secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	var s Session
	found, err := getJSON(ctx, m.rdb, keyPrefix+id, &s) // Fetch payload from Redis
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}
	s.ID = id
	return &s, nil
}

// Save stores the session and returns a fresh token for it
func (m *Manager) Save(ctx context.Context, s *Session) (string, error) {
	if err := setJSON(ctx, m.rdb, keyPrefix+s.ID, s, m.ttl); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return GenerateToken(s.ID, m.secret, m.ttl)
}

// Renew moves the session's attributes to a new ID and deletes the old one.
// Called on login so a pre-login session ID is never authenticated.
func (m *Manager) Renew(ctx context.Context, s *Session) error {
	if err := deleteKey(ctx, m.rdb, keyPrefix+s.ID); err != nil {
		return fmt.Errorf("renew session: %w", err)
	}
	s.ID = uuid.NewString()
	return nil
}

// Commit saves the session and writes its cookie on the response
func (m *Manager) Commit(c *gin.Context, s *Session) error {
	token, err := m.Save(c.Request.Context(), s)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	// MaxAge 0 keeps it a browser-session cookie; the server side expires via TTL
	c.SetCookie(CookieName, token, 0, "/", "", m.secure, true)
	return nil
}

// Ping checks that Redis is reachable
func (m *Manager) Ping(ctx context.Context) error {
	return m.rdb.Ping(ctx).Err()
}

// FromContext returns the session loaded by the middleware, or nil
func FromContext(c *gin.Context) *Session {
	v, ok := c.Get(ContextKey)
	if !ok {
		return nil
	}
	s, _ := v.(*Session)
	return s
}
