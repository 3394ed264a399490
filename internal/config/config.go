// Package config reads the frontend's settings from the environment. A .env
// file in the working directory is loaded first when present.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config holds all runtime settings.
type Config struct {
	Addr       string
	APIURL     string
	APITimeout time.Duration

	StorageDriver string
	DatabaseURL   string
	RedisURL      string
	// StorageKey is the hex encoded key sealing stored values. Empty stores
	// values in clear.
	StorageKey string
	StorageTTL time.Duration

	CSRFKey        []byte
	CookieSecure   bool
	AllowedOrigins []string

	LoginPath           string
	ExpiryCheckInterval time.Duration
	// LoginRate is the sustained number of login and register posts allowed
	// per client address per minute.
	LoginRate  float64
	LoginBurst int

	LogLevel string
}

// Load reads the configuration.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:           env("ADDR", ":3000"),
		APIURL:         strings.TrimRight(env("API_URL", "http://localhost:8000"), "/"),
		StorageDriver:  strings.ToLower(env("STORAGE_DRIVER", DriverMemory)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		StorageKey:     os.Getenv("STORAGE_KEY"),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
		LoginPath:      env("LOGIN_PATH", "/login"),
		LogLevel:       env("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.APITimeout, err = duration("API_TIMEOUT", 0); err != nil {
		return nil, err
	}
	if cfg.StorageTTL, err = duration("STORAGE_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ExpiryCheckInterval, err = duration("EXPIRY_CHECK_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.CookieSecure, err = boolean("COOKIE_SECURE", false); err != nil {
		return nil, err
	}
	if cfg.LoginRate, err = number("LOGIN_RATE", 10); err != nil {
		return nil, err
	}
	burst, err := number("LOGIN_BURST", 5)
	if err != nil {
		return nil, err
	}
	cfg.LoginBurst = int(burst)

	switch cfg.StorageDriver {
	case DriverMemory:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for storage driver %q", cfg.StorageDriver)
		}
	case DriverRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required for storage driver %q", cfg.StorageDriver)
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	if cfg.CSRFKey, err = csrfKey(os.Getenv("CSRF_KEY")); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(cfg.LoginPath, "/") {
		return nil, fmt.Errorf("LOGIN_PATH must start with /, got %q", cfg.LoginPath)
	}
	return cfg, nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return d, nil
}

func boolean(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", key, v)
	}
	return b, nil
}

func number(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// csrfKey decodes a 32 byte hex key, or generates one. A generated key does
// not survive restarts, so forms rendered before a restart are rejected.
func csrfKey(raw string) ([]byte, error) {
	if raw == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate csrf key: %w", err)
		}
		return key, nil
	}
	key, err := hex.DecodeString(raw)
	if err != nil || len(key) != 32 {
		return nil, fmt.Errorf("CSRF_KEY must be 64 hex characters")
	}
	return key, nil
}
