package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, "autoshop_client", cfg.Session.CookieName)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Empty(t, cfg.Notify.StreamURL)
	assert.Equal(t, 50, cfg.Notify.RecentSize)
	assert.Equal(t, float64(8), cfg.Billing.TaxRate)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.test, https://admin.shop.test ,")
	t.Setenv("API_TIMEOUT", "3s")
	t.Setenv("SESSION_COOKIE_SECURE", "true")
	t.Setenv("BILLING_TAX_RATE", "7.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://shop.test", "https://admin.shop.test"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.True(t, cfg.Session.CookieSecure)
	assert.Equal(t, 7.5, cfg.Billing.TaxRate)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("RESTORE_TIMEOUT", "soon")

	_, err := Load()
	assert.ErrorContains(t, err, "RESTORE_TIMEOUT")
}

func TestLoad_NegativeTaxRate(t *testing.T) {
	t.Setenv("BILLING_TAX_RATE", "-1")

	_, err := Load()
	assert.Error(t, err)
}
