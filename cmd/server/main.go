package main

import (
	"context"     // Shutdown deadline
	"crypto/rand" // Fallback session secret
	"errors"      // http.ErrServerClosed detection
	"net/http"    // HTTP server
	"os"          // Signals
	"os/signal"   // Graceful shutdown
	"syscall"     // SIGTERM
	"time"        // Timeouts

	"book_catalog/internal/api"     // HTTP handlers and router
	"book_catalog/internal/config"  // Configuration
	"book_catalog/internal/db"      // Database connection
	"book_catalog/internal/ratings" // Rating service client
	"book_catalog/internal/session" // Redis-backed sessions
	"book_catalog/internal/store"   // Catalog store

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	cfg.SetupLogger() // Setup logger

	// Connect to the database
	gdb, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})
	defer redisClient.Close()

	// Test Redis connection
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		// Sessions will not survive a restart
		logrus.Warn("SESSION_SECRET is not set, using a random secret")
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			logrus.Fatalf("failed to generate session secret: %v", err)
		}
	}
	if cfg.GoodreadsAPIKey == "" {
		logrus.Warn("GOODREADS_API_KEY is not set, rating lookups may be rejected")
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	router, err := api.NewRouter(api.Dependencies{
		Store:    store.New(gdb),
		Sessions: session.NewManager(redisClient, secret, cfg.SessionTTL, cfg.IsProd),
		Ratings: ratings.NewClient(ratings.Options{
			BaseURL: cfg.RatingsURL,
			APIKey:  cfg.GoodreadsAPIKey,
			Timeout: cfg.RatingsTimeout,
		}),
	})
	if err != nil {
		logrus.Fatalf("failed to build router: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logrus.Infof("Server running on %s", cfg.AppPort) // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("graceful shutdown failed: %v", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
