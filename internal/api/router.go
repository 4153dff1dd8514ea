// Package api holds the HTTP handlers and the router wiring them together.
package api

import (
	"fmt"           // Error wrapping
	"html/template" // Page templates

	"book_catalog/internal/metrics"    // Prometheus handler
	"book_catalog/internal/middleware" // Request middleware
	"book_catalog/internal/session"    // Session store
	"book_catalog/internal/store"      // Catalog store
	"book_catalog/internal/web"        // Embedded templates

	"github.com/gin-gonic/gin" // Gin web framework
)

// Dependencies are the services the handlers need
type Dependencies struct {
	Store          *store.Store       // Users, books and reviews
	Sessions       *session.Manager   // Redis-backed sessions
	Ratings        RatingLookup       // External rating service
	Templates      *template.Template // Parsed pages; loaded from web when nil
	TrustedProxies []string           // Defaults to loopback
}

// NewRouter builds the gin engine with every route registered
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	tmpl := deps.Templates
	if tmpl == nil {
		var err error
		if tmpl, err = web.Templates(); err != nil {
			return nil, fmt.Errorf("load templates: %w", err)
		}
	}
	proxies := deps.TrustedProxies
	if proxies == nil {
		proxies = []string{"127.0.0.1"}
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery(), middleware.MetricsMiddleware())
	if err := r.SetTrustedProxies(proxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	// Operational endpoints
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/healthz", HealthHandler(
		HealthCheck{Name: "database", Pinger: deps.Store},
		HealthCheck{Name: "redis", Pinger: deps.Sessions},
	))

	// Public JSON API, no session
	r.GET("/api/:isbn", BookAPIHandler(deps.Store, deps.Ratings))

	// Browser routes
	pages := r.Group("/", middleware.SessionMiddleware(deps.Sessions))
	{
		pages.GET("/login", LoginPageHandler(deps.Sessions))
		pages.POST("/login", LoginHandler(deps.Store, deps.Sessions))
		pages.GET("/register", RegisterPageHandler(deps.Sessions))
		pages.POST("/register", RegisterHandler(deps.Store, deps.Sessions))
		pages.GET("/logout", LogoutHandler(deps.Sessions))
		pages.DELETE("/logout", LogoutHandler(deps.Sessions))
	}

	// Routes requiring a logged-in user
	authed := pages.Group("/", middleware.RequireLogin())
	{
		authed.GET("/", HomeHandler(deps.Store, deps.Sessions))
		authed.GET("/search", SearchHandler(deps.Store, deps.Sessions))
		authed.GET("/books/:isbn", BookHandler(deps.Store, deps.Ratings, deps.Sessions))
		authed.POST("/review", ReviewHandler(deps.Store, deps.Sessions))
	}

	return r, nil
}
