package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:                 "8375",
		Env:                  "development",
		JWTSecret:            "secure-secret-at-least-32-chars-long",
		DBSSLMode:            "disable",
		ImageMaxUploadSizeMB: 5,
		TracingSamplerRatio:  1,
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing port", func(c *Config) { c.Port = "" }},
		{"missing jwt secret", func(c *Config) { c.JWTSecret = "" }},
		{"non-positive upload size", func(c *Config) { c.ImageMaxUploadSizeMB = 0 }},
		{"sampler ratio out of range", func(c *Config) { c.TracingSamplerRatio = 1.5 }},
		{"default secret in production", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "require"
			c.JWTSecret = defaultJWTSecret
		}},
		{"short secret in production", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "require"
			c.JWTSecret = "short"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestConfig_Configured(t *testing.T) {
	c := validConfig()
	assert.False(t, c.Configured())

	c.DatabaseURL = "postgres://localhost/sudonet"
	assert.False(t, c.Configured(), "storage url still missing")

	c.StoragePublicURL = "http://localhost:8375/storage"
	assert.True(t, c.Configured())

	c.DatabaseURL = "   "
	assert.False(t, c.Configured())
}

func TestLoadConfig_NormalizesValues(t *testing.T) {
	defer viper.Reset()
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("STORAGE_PUBLIC_URL", "http://cdn.local/storage/")
	t.Setenv("DATABASE_URL", "postgres://localhost/sudonet")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", cfg.DBSSLMode)
	assert.Equal(t, "http://cdn.local/storage", cfg.StoragePublicURL)
	assert.True(t, cfg.Configured())
	assert.Equal(t, 5, cfg.ImageMaxUploadSizeMB)
}

func TestLoadConfig_NotConfiguredIsNotFatal(t *testing.T) {
	defer viper.Reset()
	t.Setenv("APP_ENV", "test")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STORAGE_PUBLIC_URL", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.Configured())
}
