package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OTP_TOKEN_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, 2*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 2*time.Minute, cfg.OTPTokenTTL)
	assert.Equal(t, "IR", cfg.PhoneRegion)
	assert.Equal(t, DeliveryModeLog, cfg.DeliveryMode)
	assert.Equal(t, "accounts", cfg.DynamoTables.Accounts)
	assert.Equal(t, "otps", cfg.DynamoTables.OTPs)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Equal(t, 5, cfg.OTPMaxAttempts)
	assert.False(t, cfg.TrustProxyHeaders)
	assert.False(t, cfg.OTPExposeCode)
}

func TestLoad_WildcardOriginRejected(t *testing.T) {
	t.Setenv("OTP_TOKEN_SECRET", "test-secret")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,*")

	_, err := Load()
	assert.ErrorContains(t, err, "ALLOWED_ORIGINS")
}

func TestLoad_NonPositiveMaxAttempts(t *testing.T) {
	t.Setenv("OTP_TOKEN_SECRET", "test-secret")
	t.Setenv("OTP_MAX_ATTEMPTS", "0")

	_, err := Load()
	assert.ErrorContains(t, err, "OTP_MAX_ATTEMPTS")
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("OTP_TOKEN_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_TokenTTLExceedsOTPTTL(t *testing.T) {
	t.Setenv("OTP_TOKEN_SECRET", "test-secret")
	t.Setenv("OTP_TTL", "1m")
	t.Setenv("OTP_TOKEN_TTL", "5m")

	_, err := Load()
	assert.ErrorContains(t, err, "OTP_TOKEN_TTL")
}

func TestLoad_ShortSecretInProduction(t *testing.T) {
	t.Setenv("OTP_TOKEN_SECRET", "short")
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	assert.ErrorContains(t, err, "at least 32 bytes")
}

func TestLoad_UnknownDeliveryMode(t *testing.T) {
	t.Setenv("OTP_TOKEN_SECRET", "test-secret")
	t.Setenv("DELIVERY_MODE", "pigeon")

	_, err := Load()
	assert.ErrorContains(t, err, "DELIVERY_MODE")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("OTP_TOKEN_SECRET", "test-secret")
	t.Setenv("PHONE_REGION", "US")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("OTP_EXPOSE_CODE", "true")
	t.Setenv("TRUST_PROXY_HEADERS", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "US", cfg.PhoneRegion)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.OTPExposeCode)
	assert.True(t, cfg.TrustProxyHeaders)
}
