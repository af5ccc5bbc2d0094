// Package config builds runtime configuration from environment variables so
// main stays lean. Defaults target local development; production overrides
// everything through the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server process needs at startup.
type Config struct {
	Addr string

	// PostgresDSN is the credential store connection string. Empty selects
	// the in-memory store (local development and tests).
	PostgresDSN string

	// Redis is optional; when unconfigured the account view cache is disabled.
	Redis RedisConfig

	// ProfileServiceURL is the base URL of the profile service. Empty selects
	// the in-process fake (local development).
	ProfileServiceURL string

	// Profile call policy. Retries count additional attempts after the first.
	ProfileTimeout time.Duration
	ProfileRetries int
	ProfileBackoff time.Duration

	// Kafka audit sink; disabled when Brokers is empty.
	KafkaBrokers []string
	KafkaTopic   string

	BcryptCost int
}

// RedisConfig holds connection settings for the optional view cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ViewTTL      time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:              envString("REGISTRAR_ADDR", ":8080"),
		PostgresDSN:       os.Getenv("REGISTRAR_POSTGRES_DSN"),
		ProfileServiceURL: os.Getenv("REGISTRAR_PROFILE_URL"),
		ProfileTimeout:    envDuration("REGISTRAR_PROFILE_TIMEOUT", 3*time.Second),
		ProfileRetries:    envInt("REGISTRAR_PROFILE_RETRIES", 2),
		ProfileBackoff:    envDuration("REGISTRAR_PROFILE_BACKOFF", 100*time.Millisecond),
		KafkaBrokers:      envList("REGISTRAR_KAFKA_BROKERS"),
		KafkaTopic:        envString("REGISTRAR_KAFKA_TOPIC", "registrar.audit"),
		BcryptCost:        envInt("REGISTRAR_BCRYPT_COST", 10),
		Redis: RedisConfig{
			URL:          os.Getenv("REGISTRAR_REDIS_URL"),
			PoolSize:     envInt("REGISTRAR_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REGISTRAR_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("REGISTRAR_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REGISTRAR_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REGISTRAR_REDIS_WRITE_TIMEOUT", 3*time.Second),
			ViewTTL:      envDuration("REGISTRAR_REDIS_VIEW_TTL", 10*time.Minute),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
