package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADEBOOK_DATA_DIR", dir)
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 20.0, cfg.RateLimitRPS)
	assert.Equal(t, 40, cfg.RateLimitBurst)
	assert.Equal(t, "0 0 3 * * *", cfg.MaintenanceSchedule)
	assert.Equal(t, "0 30 3 * * 0", cfg.IntegritySchedule)
	assert.Equal(t, AttachmentBackendLocal, cfg.Attachments.Backend)
	assert.Equal(t, filepath.Join(dir, "uploads", "screenshots"), cfg.Attachments.Dir)
	assert.Equal(t, filepath.Join(dir, "journal.db"), cfg.DatabasePath())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TRADEBOOK_DATA_DIR", t.TempDir())
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9090")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("ATTACHMENT_BACKEND", "S3")
	t.Setenv("S3_BUCKET", "journal-shots")
	t.Setenv("S3_ENDPOINT", "http://localhost:9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, AttachmentBackendS3, cfg.Attachments.Backend)
	assert.Equal(t, "journal-shots", cfg.Attachments.S3Bucket)
	assert.Equal(t, "http://localhost:9000", cfg.Attachments.S3Endpoint)
}

func TestLoad_DevModeSuppliesSecret(t *testing.T) {
	t.Setenv("TRADEBOOK_DATA_DIR", t.TempDir())
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DEV_MODE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.JWTSecret)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("TRADEBOOK_DATA_DIR", t.TempDir())
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DEV_MODE", "false")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:           8001,
			JWTSecret:      "x",
			TokenTTL:       time.Minute,
			RateLimitRPS:   1,
			RateLimitBurst: 1,
			Attachments:    &AttachmentConfig{Backend: AttachmentBackendLocal, Dir: "/tmp/shots"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Port = 0 }, "PORT"},
		{"s3 without bucket", func(c *Config) { c.Attachments.Backend = AttachmentBackendS3 }, "S3_BUCKET"},
		{"unknown backend", func(c *Config) { c.Attachments.Backend = "ftp" }, "ATTACHMENT_BACKEND"},
		{"zero burst", func(c *Config) { c.RateLimitBurst = 0 }, "RATE_LIMIT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
