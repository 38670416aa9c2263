package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("API_URL", "")
	t.Setenv("CLAIM_TIMEOUT_SECONDS", "")
	t.Setenv("UPLOAD_BACKEND", "")

	cfg := Load()
	assert.Equal(t, 10*time.Second, cfg.ClaimTimeout)
	assert.Equal(t, int64(1<<20), cfg.CompressMaxBytes)
	assert.Equal(t, 1280, cfg.CompressMaxDimension)
	assert.Equal(t, UploadBackendHTTP, cfg.UploadBackend)
	assert.Equal(t, "http://localhost:4000/api/v1/claim", cfg.ClaimURL())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("API_URL", "https://claims.example.com/")
	t.Setenv("CLAIM_TIMEOUT_SECONDS", "3")
	t.Setenv("UPLOAD_BACKEND", "S3")
	t.Setenv("SNS_ENABLED", "true")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/24,10.0.1.5")
	t.Setenv("RECOVERY_DIR", "/var/lib/kiosk/recovery")

	cfg := Load()
	assert.Equal(t, "https://claims.example.com/api/v1/claim", cfg.ClaimURL())
	assert.Equal(t, 3*time.Second, cfg.ClaimTimeout)
	assert.Equal(t, UploadBackendS3, cfg.UploadBackend)
	assert.True(t, cfg.SNSEnabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, []string{"10.0.0.0/24", "10.0.1.5"}, cfg.TrustedProxies)
	assert.Equal(t, "/var/lib/kiosk/recovery", cfg.RecoveryDir)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("CLAIM_TIMEOUT_SECONDS", "soon")
	t.Setenv("COMPRESS_MAX_DIMENSION", "big")
	t.Setenv("SNS_ENABLED", "maybe")

	cfg := Load()
	assert.Equal(t, 10*time.Second, cfg.ClaimTimeout)
	assert.Equal(t, 1280, cfg.CompressMaxDimension)
	assert.False(t, cfg.SNSEnabled)
}
