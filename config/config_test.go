package config_test

import (
	"testing"
	"time"

	"crew-recruitment-backend/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Should apply sync defaults", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s")
		t.Setenv("VINCERE_ENABLED", "false")

		cfg, err := config.LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.Sync.MaxAttempts)
		assert.Equal(t, 15*time.Minute, cfg.Sync.StaleAfter)
		assert.Contains(t, cfg.AllowedOrigins, cfg.FrontendURL)
	})

	t.Run("Should read durations, millisecond delays and origin lists", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s")
		t.Setenv("SYNC_REQUEST_DELAY_MS", "750")
		t.Setenv("SYNC_STALE_AFTER", "45m")
		t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com, ,https://b.example.com")

		cfg, err := config.LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, 750*time.Millisecond, cfg.Sync.RequestDelay)
		assert.Equal(t, 45*time.Minute, cfg.Sync.StaleAfter)
		assert.Contains(t, cfg.AllowedOrigins, "https://a.example.com")
		assert.Contains(t, cfg.AllowedOrigins, "https://b.example.com")
	})

	t.Run("Should require ATS credentials when the integration is enabled", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s")
		t.Setenv("VINCERE_ENABLED", "true")
		t.Setenv("VINCERE_DOMAIN", "crew")
		t.Setenv("VINCERE_CLIENT_ID", "")
		t.Setenv("VINCERE_API_KEY", "")

		_, err := config.LoadConfig()
		assert.ErrorContains(t, err, "VINCERE_CLIENT_ID")
	})

	t.Run("Should require a token verification key", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		t.Setenv("SUPABASE_JWT_SECRET", "")
		t.Setenv("JWKS_URL", "")

		_, err := config.LoadConfig()
		assert.ErrorContains(t, err, "JWT_SECRET")
	})
}
