package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
}

type DatabaseConfig struct {
	Path        string
	BusyTimeout time.Duration
}

type ServerConfig struct {
	Port string
	Env  string
}

type AuthConfig struct {
	SessionSecret       string
	MFAEncryptionKey    []byte // 32 bytes, AES-256
	SessionTokenExpiry  time.Duration
	PendingTokenExpiry  time.Duration
	Issuer              string // label shown in authenticator apps
	SecureCookies       bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	sessionSecret := getEnv("SESSION_SECRET", "")
	if sessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}

	env := getEnv("ENV", "development")

	if err := validateSessionSecret(sessionSecret, env); err != nil {
		return nil, err
	}

	mfaKeyHex := getEnv("MFA_ENCRYPTION_KEY", "")
	if mfaKeyHex == "" {
		return nil, fmt.Errorf("MFA_ENCRYPTION_KEY is required")
	}
	mfaKey, err := hex.DecodeString(mfaKeyHex)
	if err != nil {
		return nil, fmt.Errorf("MFA_ENCRYPTION_KEY must be hex-encoded: %w", err)
	}
	if len(mfaKey) != 32 {
		return nil, fmt.Errorf("MFA_ENCRYPTION_KEY must decode to 32 bytes, got %d", len(mfaKey))
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Path:        getEnv("DB_PATH", "otpgate.db"),
			BusyTimeout: getEnvAsDuration("DB_BUSY_TIMEOUT", 5*time.Second),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  env,
		},
		Auth: AuthConfig{
			SessionSecret:      sessionSecret,
			MFAEncryptionKey:   mfaKey,
			SessionTokenExpiry: getEnvAsDuration("SESSION_TOKEN_EXPIRY", 30*time.Minute),
			PendingTokenExpiry: getEnvAsDuration("PENDING_TOKEN_EXPIRY", 5*time.Minute),
			Issuer:             getEnv("MFA_ISSUER", "OTPGate"),
			SecureCookies:      env == "production",
		},
	}

	return cfg, nil
}

// validateSessionSecret enforces minimum security standards for the signing
// secret. Rotating it invalidates every outstanding session token.
func validateSessionSecret(secret, env string) error {
	minLength := 16 // Development minimum
	if env == "production" {
		minLength = 32 // Production requires a 256-bit secret
	}

	if len(secret) < minLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("SESSION_SECRET cannot be a common weak value")
		}
	}

	return nil
}

// DSN builds the sqlite connection string with the pragmas the app relies on.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)",
		c.Path, c.BusyTimeout.Milliseconds(),
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}
