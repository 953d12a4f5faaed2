package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	Port string
	Mode string

	// Database configuration
	DatabaseURL string

	// Redis configuration
	RedisURL string

	// App Store verification configuration
	AppleRootCADir          string
	AppleEnableOnlineChecks bool

	// ntfy push configuration (global defaults, tenants may override)
	NtfyURL   string
	NtfyTopic string
	NtfyToken string

	// Brevo email alert configuration (optional secondary channel)
	BrevoAPIKey     string
	BrevoFromEmail  string
	BrevoAlertEmail string

	// Admin API configuration
	AdminAPIKey string
	ServiceName string
}

var AppConfig *Config

func InitConfig() error {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		// Ignore error if .env file doesn't exist
	}

	AppConfig = &Config{
		Port:                    getEnv("PORT", "8080"),
		Mode:                    getEnv("GIN_MODE", "debug"),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		RedisURL:                getEnv("REDIS_URL", "redis://localhost:6379/0"),
		AppleRootCADir:          getEnv("APPLE_ROOT_CA_DIR", "certs"),
		AppleEnableOnlineChecks: getEnvBool("APPLE_ENABLE_ONLINE_CHECKS", true),
		NtfyURL:                 getEnv("NTFY_URL", "https://ntfy.sh"),
		NtfyTopic:               getEnv("NTFY_TOPIC", ""),
		NtfyToken:               getEnv("NTFY_TOKEN", ""),
		BrevoAPIKey:             getEnv("BREVO_API_KEY", ""),
		BrevoFromEmail:          getEnv("BREVO_FROM_EMAIL", ""),
		BrevoAlertEmail:         getEnv("BREVO_ALERT_EMAIL", ""),
		AdminAPIKey:             getEnv("ADMIN_API_KEY", ""),
		ServiceName:             getEnv("SERVICE_NAME", "StoreKit Relay"),
	}

	return nil
}

// LoadTrustAnchors reads Apple root certificates from a directory.
// Files may be PEM or raw DER; the verifier only ever sees the bytes.
func LoadTrustAnchors(dir string) ([][]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read trust anchor directory %s: %w", dir, err)
	}

	var anchors [][]byte
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".pem", ".cer", ".crt", ".der":
		default:
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read trust anchor %s: %w", entry.Name(), err)
		}
		anchors = append(anchors, data)
	}

	return anchors, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
