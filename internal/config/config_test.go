package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "DB_URL", "DATABASE_URL", "OCR_ENGINE", "JWT_SECRET", "SHARE_TOKEN_SECRET", "NAME_MATCH_THRESHOLD", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, slog.LevelInfo, cfg.Server.LogLevel)
	assert.Equal(t, int64(10<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, "vision", cfg.OCR.Engine)
	assert.Equal(t, 70, cfg.KYC.NameThreshold)
	assert.Equal(t, 60, cfg.KYC.AddressThreshold)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
	assert.Equal(t, "http://localhost:3000", cfg.Auth.FrontendBaseURL)
	require.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DB_URL", "")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/kyc")
	t.Setenv("OCR_ENGINE", "Tesseract")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SHARE_TOKEN_SECRET", "")
	t.Setenv("NAME_MATCH_THRESHOLD", "80")
	t.Setenv("OCR_CACHE_TTL", "1h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "postgres://u:p@db:5432/kyc", cfg.Database.DSN)
	assert.Equal(t, "tesseract", cfg.OCR.Engine)
	assert.Equal(t, slog.LevelDebug, cfg.Server.LogLevel)
	assert.Equal(t, "s3cret", cfg.Auth.ShareSecret)
	assert.Equal(t, 80, cfg.KYC.NameThreshold)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestFromEnv_BadNumbersFallBack(t *testing.T) {
	t.Setenv("NAME_MATCH_THRESHOLD", "seventy")
	t.Setenv("OCR_CACHE_TTL", "forever")

	cfg := FromEnv()

	assert.Equal(t, 70, cfg.KYC.NameThreshold)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "unknown engine", mutate: func(c *Config) { c.OCR.Engine = "abbyy" }},
		{name: "name threshold too high", mutate: func(c *Config) { c.KYC.NameThreshold = 101 }},
		{name: "address threshold zero", mutate: func(c *Config) { c.KYC.AddressThreshold = 0 }},
		{name: "llm without key", mutate: func(c *Config) { c.LLM.Enabled = true; c.LLM.APIKey = "" }},
		{name: "upload limit", mutate: func(c *Config) { c.Server.MaxUploadBytes = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := FromEnv()
			cfg.OCR.Engine = "vision"
			cfg.LLM.Enabled = false
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
