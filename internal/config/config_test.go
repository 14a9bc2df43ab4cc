package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, int32(8190), cfg.HTTP.Port)
		assert.Equal(t, 12, cfg.Auth.BcryptCost)
		assert.Equal(t, "admin", cfg.Auth.DefaultAdminUsername)
		assert.Equal(t, 10*time.Second, cfg.Mail.Timeout)
		assert.Equal(t, "0 8 * * *", cfg.Reminders.Schedule)
		assert.Equal(t, DefaultLoanDays, cfg.Library.DefaultLoanDays)
		assert.True(t, cfg.Metadata.Enabled)
		assert.Equal(t, DefaultMetadataBaseURL, cfg.Metadata.BaseURL)
		require.NoError(t, cfg.Validate())
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("PORT", "9000")
		t.Setenv("AUTH_BCRYPT_COST", "11")
		t.Setenv("SMTP_TIMEOUT", "3s")
		t.Setenv("LIBRARY_TIMEZONE", "Europe/Warsaw")
		t.Setenv("METADATA_ENABLED", "false")

		cfg := NewConfig()
		assert.Equal(t, int32(9000), cfg.HTTP.Port)
		assert.Equal(t, 11, cfg.Auth.BcryptCost)
		assert.Equal(t, 3*time.Second, cfg.Mail.Timeout)
		assert.False(t, cfg.Metadata.Enabled)

		loc, err := cfg.Library.Location()
		require.NoError(t, err)
		assert.Equal(t, "Europe/Warsaw", loc.String())
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "weak bcrypt cost", mutate: func(c *Config) { c.Auth.BcryptCost = 4 }},
		{name: "empty database path", mutate: func(c *Config) { c.Database.Path = "" }},
		{name: "zero loan days", mutate: func(c *Config) { c.Library.DefaultLoanDays = 0 }},
		{name: "unknown timezone", mutate: func(c *Config) { c.Library.Timezone = "Mars/Olympus" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
