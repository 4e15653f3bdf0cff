package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	assert.Empty(t, cfg.AuthSecret, "AUTH_SECRET must stay empty when unset")
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "STORE_GOAL", "TIMEZONE", "DASHBOARD_CACHE_TTL_SECONDS", "ACCESS_TOKEN_TTL_MINUTES", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, ":8080", cfg.Address())
	assert.Equal(t, 96, cfg.StoreGoal)
	assert.Equal(t, "Asia/Jakarta", cfg.Timezone)
	assert.Equal(t, 30*time.Second, cfg.DashboardCacheTTL())
	assert.Equal(t, 480*time.Minute, cfg.AccessTokenTTL())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_GOAL", "120")
	t.Setenv("DASHBOARD_CACHE_TTL_SECONDS", "-5")
	t.Setenv("AUTH_SECRET", "  padded-secret  ")
	t.Setenv("LOG_FORMAT", "Console")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 120, cfg.StoreGoal)
	assert.Equal(t, 30, cfg.DashboardCacheTTLSeconds)
	assert.Equal(t, "padded-secret", cfg.AuthSecret)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestLocation(t *testing.T) {
	loc, err := Config{Timezone: "UTC"}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	_, err = Config{Timezone: "Not/AZone"}.Location()
	assert.Error(t, err)
}
