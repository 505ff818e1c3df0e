package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from the environment.
type Config struct {
	Port        int
	Environment string
	Domain      string
	FrontendURL string

	MongoURI      string
	MongoDatabase string

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	IssueLimitPrefix string
	IssueDailyLimit  int

	JWTSecret string
	TokenTTL  time.Duration

	RequestTimeout time.Duration

	NotificationWorkers   int
	NotificationQueueSize int
}

// Production reports whether GO_ENV is "production".
func (c Config) Production() bool { return c.Environment == "production" }

// Load reads an optional .env file, then the environment, and validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded, using process environment")
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (Config, error) {
	port, err := getEnvInt("PORT", 8080)
	if err != nil {
		return Config{}, fmt.Errorf("parse PORT: %w", err)
	}
	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return Config{}, fmt.Errorf("parse REDIS_DB: %w", err)
	}
	dailyLimit, err := getEnvInt("ISSUE_DAILY_LIMIT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse ISSUE_DAILY_LIMIT: %w", err)
	}
	tokenTTL, err := getEnvDuration("TOKEN_TTL", 72*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("parse TOKEN_TTL: %w", err)
	}
	requestTimeout, err := getEnvDuration("REQUEST_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse REQUEST_TIMEOUT: %w", err)
	}
	workers, err := getEnvInt("NOTIFICATION_WORKERS", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse NOTIFICATION_WORKERS: %w", err)
	}
	queueSize, err := getEnvInt("NOTIFICATION_QUEUE_SIZE", 256)
	if err != nil {
		return Config{}, fmt.Errorf("parse NOTIFICATION_QUEUE_SIZE: %w", err)
	}

	cfg := Config{
		Port:                  port,
		Environment:           getEnv("GO_ENV", "development"),
		Domain:                getEnv("DOMAIN", ""),
		FrontendURL:           getEnv("FRONTEND_URL", "http://localhost:3000"),
		MongoURI:              getEnv("MONGODB_URI", ""),
		MongoDatabase:         getEnv("MONGODB_DATABASE", "civicsync"),
		RedisAddress:          getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		RedisDB:               redisDB,
		IssueLimitPrefix:      getEnv("REDIS_QUEUE_FOR_ISSUE_LIMIT", "issue_limit"),
		IssueDailyLimit:       dailyLimit,
		JWTSecret:             getEnv("JWT_SECRET", ""),
		TokenTTL:              tokenTTL,
		RequestTimeout:        requestTimeout,
		NotificationWorkers:   workers,
		NotificationQueueSize: queueSize,
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGODB_URI is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IssueDailyLimit <= 0 {
		return fmt.Errorf("ISSUE_DAILY_LIMIT must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(v)
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	return time.ParseDuration(v)
}
