package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMFAKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SESSION_SECRET", "a-development-signing-secret")
	t.Setenv("MFA_ENCRYPTION_KEY", testMFAKey)
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "otpgate.db", cfg.Database.Path)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, 30*time.Minute, cfg.Auth.SessionTokenExpiry)
	assert.Equal(t, 5*time.Minute, cfg.Auth.PendingTokenExpiry)
	assert.Equal(t, "OTPGate", cfg.Auth.Issuer)
	assert.Len(t, cfg.Auth.MFAEncryptionKey, 32)
	assert.False(t, cfg.Auth.SecureCookies)
}

func TestLoad_MissingSessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("MFA_ENCRYPTION_KEY", testMFAKey)

	cfg, err := Load()
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")
}

func TestLoad_ShortSessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "tooshort")
	t.Setenv("MFA_ENCRYPTION_KEY", testMFAKey)

	cfg, err := Load()
	assert.Nil(t, cfg)
	assert.Error(t, err)
}

func TestLoad_ProductionRequiresLongSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "twenty-chars-long-ok")
	t.Setenv("MFA_ENCRYPTION_KEY", testMFAKey)
	t.Setenv("ENV", "production")

	cfg, err := Load()
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32")
}

func TestLoad_WeakSessionSecretRejected(t *testing.T) {
	t.Setenv("SESSION_SECRET", strings.ToUpper("changeme"))
	t.Setenv("MFA_ENCRYPTION_KEY", testMFAKey)

	cfg, err := Load()
	assert.Nil(t, cfg)
	assert.Error(t, err)
}

func TestLoad_MFAKeyValidation(t *testing.T) {
	t.Setenv("SESSION_SECRET", "a-development-signing-secret")

	tests := []struct {
		name string
		key  string
	}{
		{"missing", ""},
		{"not hex", "zz0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"},
		{"too short", "000102030405060708090a0b0c0d0e0f"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MFA_ENCRYPTION_KEY", tt.key)
			cfg, err := Load()
			assert.Nil(t, cfg)
			assert.Error(t, err)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{Path: "test.db", BusyTimeout: 5 * time.Second}

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "file:test.db")
	assert.Contains(t, dsn, "busy_timeout(5000)")
	assert.Contains(t, dsn, "journal_mode(WAL)")
}
