package config

import (
	"fmt"  // Error wrapping
	"time" // Durations for timeouts and TTLs

	"github.com/joeshaw/envdecode" // Struct-tag based environment decoding
	"github.com/joho/godotenv"     // For loading .env files
	"github.com/sirupsen/logrus"   // Log level parsing
)

// Config holds the application configuration
type Config struct {
	AppPort         string        `env:"APP_PORT,default=5000"`                                                       // Application port
	DatabaseURL     string        `env:"DATABASE_URL,required"`                                                       // Database connection string
	GoodreadsAPIKey string        `env:"GOODREADS_API_KEY"`                                                           // Rating service API key
	RatingsURL      string        `env:"GOODREADS_API_URL,default=https://www.goodreads.com/book/review_counts.json"` // Rating service endpoint
	RatingsTimeout  time.Duration `env:"RATINGS_TIMEOUT,default=5s"`                                                  // Outbound rating call timeout
	SessionSecret   string        `env:"SESSION_SECRET"`                                                              // HMAC key for session tokens
	SessionTTL      time.Duration `env:"SESSION_TTL,default=24h"`                                                     // Session lifetime
	RedisAddr       string        `env:"REDIS_ADDR,default=localhost:6379"`                                           // Redis server address
	RedisPass       string        `env:"REDIS_PASS"`                                                                  // Redis password
	RedisDB         int           `env:"REDIS_DB,default=0"`                                                          // Redis database number
	IsProd          bool          `env:"IS_PROD,default=false"`                                                       // Is production environment
	LogLevel        string        `env:"LOG_LEVEL,default=info"`                                                      // Logrus level name
}

// LoadConfig loads configuration from the environment, reading .env first when present
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // Load .env file if present
	cfg := &Config{}
	// Decode environment into the struct, failing on missing required variables
	if err := envdecode.Decode(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values envdecode cannot check on its own
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("load config: DATABASE_URL is not set")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.RatingsTimeout <= 0 {
		return fmt.Errorf("load config: RATINGS_TIMEOUT must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("load config: SESSION_TTL must be positive")
	}
	return nil
}

// Level returns the configured log level, defaulting to info
func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// SetupLogger configures the global logrus logger: JSON in production, text otherwise
func (c *Config) SetupLogger() {
	if c.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logrus.SetLevel(c.Level())
}
