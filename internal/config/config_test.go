package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	os.Clearenv()
	t.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	t.Setenv("DB_PASSWORD", "test")
	t.Setenv("EMAIL_FROM", "noreply@societycis.org")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, StorePostgres, cfg.Server.Store)
	assert.Equal(t, time.Hour, cfg.Auth.SessionTokenExpiry)
	assert.Equal(t, 30*time.Second, cfg.Auth.RegistrationTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Auth.OTPExpiry)
	assert.Equal(t, EmailProviderSES, cfg.Email.Provider)
	assert.Equal(t, "http://localhost:5173", cfg.Email.FrontendURL)
	assert.Contains(t, cfg.Server.AllowedOrigins, "http://localhost:5173")
}

func TestLoad_ServerTimeouts(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SERVER_READ_TIMEOUT", "30s")
	t.Setenv("SERVER_WRITE_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	tests := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"ReadTimeout", cfg.Server.ReadTimeout, 30 * time.Second},
		{"WriteTimeout falls back on parse error", cfg.Server.WriteTimeout, 45 * time.Second},
		{"IdleTimeout", cfg.Server.IdleTimeout, 60 * time.Second},
	}

	for _, tt := range tests {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}
}

func TestLoad_RequiredValues(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		unset []string
	}{
		{name: "missing jwt secret", unset: []string{"JWT_SECRET"}},
		{name: "missing db password", unset: []string{"DB_PASSWORD"}},
		{name: "missing from address for ses", unset: []string{"EMAIL_FROM"}},
		{name: "short jwt secret", env: map[string]string{"JWT_SECRET": "short"}},
		{name: "weak production secret", env: map[string]string{"ENV": "production", "JWT_SECRET": "only-twenty-characters"}},
		{name: "unknown store", env: map[string]string{"STORE": "mongo"}},
		{name: "memory store in production", env: map[string]string{"ENV": "production", "STORE": "memory", "JWT_SECRET": "a-very-long-production-secret-value-123"}},
		{name: "unknown email provider", env: map[string]string{"EMAIL_PROVIDER": "smtp"}},
		{name: "request timeout below registration timeout", env: map[string]string{"SERVER_REQUEST_TIMEOUT": "10s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for _, k := range tt.unset {
				os.Unsetenv(k)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_MemoryStoreSkipsDatabasePassword(t *testing.T) {
	setBaseEnv(t)
	os.Unsetenv("DB_PASSWORD")
	t.Setenv("STORE", StoreMemory)
	t.Setenv("EMAIL_PROVIDER", EmailProviderLog)
	os.Unsetenv("EMAIL_FROM")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Server.Store)
}

func TestLoad_AllowedOrigins(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "a-very-long-production-secret-value-123")
	t.Setenv("ALLOWED_ORIGINS", "https://societycis.org, https://cyber-web.vercel.app")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://societycis.org", "https://cyber-web.vercel.app"}, cfg.Server.AllowedOrigins)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "cis", SSLMode: "require"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=cis sslmode=require", c.DSN())
}
