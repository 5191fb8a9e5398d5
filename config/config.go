// Package config provides centralized configuration for the query builder
// admin service.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration values.
type Config struct {
	Port             string   // HTTP server port (e.g., ":8080")
	DSN              string   // Managed database DSN (file: or libsql://)
	DataDir          string   // Directory for local database files
	APIKey           string   // Bearer key for the admin API (empty = auth disabled)
	RequestTimeout   int      // Per-request timeout in seconds
	CORSOrigins      []string // Allowed origins (empty = CORS disabled)
	MaxRequestBody   int64    // Maximum request body size in bytes
	MaxConditions    int      // Upper bound on builder conditions per statement
	MinPasswordLen   int      // Minimum managed-account password length
	RateLimitEnabled bool     // Per-IP rate limiting toggle
	RateLimit        int      // Requests per minute per IP
	AuditLogEnabled  bool     // Destructive-action audit log toggle
	AuditLogPath     string   // Path to the audit log SQLite file
}

// Cfg is the global configuration instance, loaded at startup.
var Cfg Config

func init() {
	Cfg = Load()
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		Port:             getEnv("QB_PORT", ":8080"),
		DSN:              getEnv("QB_DB_DSN", "file:qbdata/primary.db"),
		DataDir:          getEnv("QB_DATA_DIR", "qbdata"),
		APIKey:           getEnv("QB_API_KEY", ""),
		RequestTimeout:   getEnvInt("QB_REQUEST_TIMEOUT", 30),
		CORSOrigins:      getEnvList("QB_CORS_ORIGINS"),
		MaxRequestBody:   1 << 20, // 1MB
		MaxConditions:    getEnvInt("QB_MAX_CONDITIONS", 50),
		MinPasswordLen:   getEnvInt("QB_MIN_PASSWORD_LEN", 8),
		RateLimitEnabled: getEnvBool("QB_RATE_LIMIT_ENABLED", false),
		RateLimit:        getEnvInt("QB_RATE_LIMIT", 100),
		AuditLogEnabled:  getEnvBool("QB_AUDIT_LOG_ENABLED", true),
		AuditLogPath:     getEnv("QB_AUDIT_LOG_PATH", "qbdata/audit.db"),
	}
}

// getEnv returns the environment variable value or a default if not set.
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt returns the environment variable parsed as an int, or a default.
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

// getEnvBool returns the environment variable parsed as a bool, or a default.
func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvList returns a comma-separated environment variable as a slice.
// Returns nil when unset.
func getEnvList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
