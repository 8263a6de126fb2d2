package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := InitConfig()
		require.NoError(t, err)

		assert.Equal(t, "8000", cfg.Server.HTTPPort)
		assert.Equal(t, 30*time.Minute, cfg.Server.AdminTimeout)
		assert.Equal(t, 300*time.Millisecond, cfg.Geocoding.VariantDelay)
		assert.Equal(t, "MyParisianDoors/1.0", cfg.Geocoding.UserAgent)
		assert.Equal(t, time.Minute, cfg.Boundaries.RetryAfter)
		assert.Equal(t, time.Second, cfg.Migration.GeocodeDelay)
		assert.False(t, cfg.Repositories.Redis.Enabled)
	})

	t.Run("Environment overrides", func(t *testing.T) {
		t.Setenv("GEOCODING_USER_AGENT", "DoorsTest/2.0")
		t.Setenv("MIGRATION_NEIGHBORHOOD_DELAY", "250ms")

		cfg, err := InitConfig()
		require.NoError(t, err)

		assert.Equal(t, "DoorsTest/2.0", cfg.Geocoding.UserAgent)
		assert.Equal(t, 250*time.Millisecond, cfg.Migration.NeighborhoodDelay)
	})
	t.Run("Production refuses default secret", func(t *testing.T) {
		t.Setenv("MODE", "production")

		_, err := InitConfig()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInsecureJWTSecret)
	})

	t.Run("Production refuses empty secret", func(t *testing.T) {
		t.Setenv("MODE", "production")
		t.Setenv("AUTH_JWT_SECRET", "  ")

		_, err := InitConfig()
		assert.ErrorIs(t, err, ErrInsecureJWTSecret)
	})

	t.Run("Production with own secret", func(t *testing.T) {
		t.Setenv("MODE", "production")
		t.Setenv("AUTH_JWT_SECRET", "s3cr3t-for-tests")

		cfg, err := InitConfig()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.Mode)
		assert.Equal(t, "s3cr3t-for-tests", cfg.Auth.JWTSecret)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		secret  string
		wantErr bool
	}{
		{name: "development keeps placeholder", mode: "development", secret: defaultJWTSecret},
		{name: "production placeholder", mode: "production", secret: defaultJWTSecret, wantErr: true},
		{name: "staging empty", mode: "staging", secret: "", wantErr: true},
		{name: "unset mode placeholder", mode: "", secret: defaultJWTSecret, wantErr: true},
		{name: "production real secret", mode: "production", secret: "0f9a2c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Mode: tt.mode}
			cfg.Auth.JWTSecret = tt.secret
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInsecureJWTSecret)
				return
			}
			assert.NoError(t, err)
		})
	}
}
