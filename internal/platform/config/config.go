// Package config builds the process configuration from the environment so
// main stays lean. Values come from HERITAGE_* variables with development
// defaults where a default is safe; secrets (admin token, JWT signing key)
// have no fallback and leave their feature disabled when unset.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr       string
	AdminToken string
}

// Database captures the persistence backends. Empty values mean the
// corresponding backend is not configured and the in-memory fallback is used.
type Database struct {
	PostgresDSN string
	Redis       RedisConfig
}

// RedisConfig holds connection settings for the verification throttle store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka holds the notification event mirror settings.
type Kafka struct {
	Brokers []string
	Topic   string
}

// SMTP holds outbound mail settings for review notices.
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Verify holds the third-party verification settings.
type Verify struct {
	JWTSigningKey string
	JWTIssuer     string
	SessionTTL    time.Duration
}

// Owner identifies the vault owner this instance serves. The reference
// wiring is single-tenant; the owner ID selects whose records the console
// session operates on.
type Owner struct {
	UserID string
}

// Config is the root configuration for the heritage service.
type Config struct {
	Server   Server
	Database Database
	Kafka    Kafka
	SMTP     SMTP
	Verify   Verify
	Owner    Owner
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:       envOr("HERITAGE_ADDR", ":8080"),
			AdminToken: os.Getenv("HERITAGE_ADMIN_TOKEN"),
		},
		Database: Database{
			PostgresDSN: os.Getenv("HERITAGE_DATABASE_URL"),
			Redis: RedisConfig{
				URL:          os.Getenv("HERITAGE_REDIS_URL"),
				PoolSize:     envInt("HERITAGE_REDIS_POOL_SIZE", 10),
				MinIdleConns: envInt("HERITAGE_REDIS_MIN_IDLE", 2),
				DialTimeout:  envDuration("HERITAGE_REDIS_DIAL_TIMEOUT", 5*time.Second),
				ReadTimeout:  envDuration("HERITAGE_REDIS_READ_TIMEOUT", 3*time.Second),
				WriteTimeout: envDuration("HERITAGE_REDIS_WRITE_TIMEOUT", 3*time.Second),
			},
		},
		Kafka: Kafka{
			Brokers: splitList(os.Getenv("HERITAGE_KAFKA_BROKERS")),
			Topic:   envOr("HERITAGE_KAFKA_TOPIC", "heritage.notifications"),
		},
		SMTP: SMTP{
			Host:     os.Getenv("HERITAGE_SMTP_HOST"),
			Port:     envInt("HERITAGE_SMTP_PORT", 587),
			Username: os.Getenv("HERITAGE_SMTP_USERNAME"),
			Password: os.Getenv("HERITAGE_SMTP_PASSWORD"),
			From:     envOr("HERITAGE_SMTP_FROM", "notices@heritage.local"),
		},
		Verify: Verify{
			JWTSigningKey: os.Getenv("HERITAGE_JWT_SIGNING_KEY"),
			JWTIssuer:     envOr("HERITAGE_JWT_ISSUER", "heritage"),
			SessionTTL:    envDuration("HERITAGE_VERIFY_SESSION_TTL", 15*time.Minute),
		},
		Owner: Owner{
			UserID: os.Getenv("HERITAGE_OWNER_ID"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
