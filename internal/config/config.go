package config

import (
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	KVBackend     string // memory | sqlite | redis
	DBPath        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CSRFKey      []byte
	SessionKey   []byte
	CookieDomain string
	CookieSecure bool

	// RemoteAPIURL is the base URL of the external catalog/cart/wishlist
	// API. Empty disables the remote-backed paths (local-only mode).
	RemoteAPIURL string

	// SupportPollInterval is the latency bound the support console polls
	// at. It is a freshness knob, not a correctness mechanism.
	SupportPollInterval time.Duration

	// Bootstrap admin identity, provisioned on startup if absent.
	AdminEmail    string
	AdminPassword string
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Port:          getEnv("PORT", "8585"),
		KVBackend:     getEnv("KV_BACKEND", "sqlite"),
		DBPath:        getEnv("DB_PATH", "./fonezone.db"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		CookieDomain:  getEnv("COOKIE_DOMAIN", ""),
		CookieSecure:  getEnv("COOKIE_SECURE", "false") == "true",
		RemoteAPIURL:  getEnv("REMOTE_API_URL", ""),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@fonezone.lk"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RedisDB = n
		}
	}

	cfg.SupportPollInterval = 5 * time.Second
	if v := os.Getenv("SUPPORT_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.SupportPollInterval = d
		} else {
			slog.Warn("Invalid SUPPORT_POLL_INTERVAL, using default", "value", v)
		}
	}

	cfg.CSRFKey = loadKey("CSRF_KEY")
	cfg.SessionKey = loadKey("SESSION_KEY")

	// Make sure port is valid
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		slog.Error("Invalid PORT environment variable. Falling back to default.", "PORT", os.Getenv("PORT"))
		cfg.Port = "8585"
	}

	return cfg, nil
}

// loadKey reads a base64 key from the environment, generating a random
// development key when it is missing or too short.
func loadKey(name string) []byte {
	raw := os.Getenv(name)
	if raw == "" {
		slog.Warn(name + " environment variable not set. Generating a random key for development. This key will change on each restart. PLEASE SET " + name + " IN PRODUCTION!")
		return generateRandomBytes(32)
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || len(decoded) < 32 {
		slog.Warn(name + " is invalid or too short (min 32 bytes recommended). Generating a random key for development. PLEASE SET A SECURE " + name + " IN PRODUCTION!")
		return generateRandomBytes(32)
	}
	return decoded
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// generateRandomBytes generates a random byte slice of specified length
// Uses crypto/rand for secure random numbers.
func generateRandomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		slog.Error("Failed to read random bytes", "error", err)
		fallbackKey := "fallback-insecure-key-" + strconv.FormatInt(time.Now().UnixNano(), 10)
		if len(fallbackKey) < n {
			paddedKey := make([]byte, n)
			copy(paddedKey, fallbackKey)
			return paddedKey
		}
		return []byte(fallbackKey)[:n]
	}
	return b
}
