// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port                 string  `mapstructure:"PORT"`
	Env                  string  `mapstructure:"APP_ENV"`
	DatabaseURL          string  `mapstructure:"DATABASE_URL"`
	DBSSLMode            string  `mapstructure:"DB_SSLMODE"`
	RedisURL             string  `mapstructure:"REDIS_URL"`
	JWTSecret            string  `mapstructure:"JWT_SECRET"`
	AllowedOrigins       string  `mapstructure:"ALLOWED_ORIGINS"`
	StorageDir           string  `mapstructure:"STORAGE_DIR"`
	StoragePublicURL     string  `mapstructure:"STORAGE_PUBLIC_URL"`
	ImageMaxUploadSizeMB int     `mapstructure:"IMAGE_MAX_UPLOAD_SIZE_MB"`
	FingerprintSecret    string  `mapstructure:"FINGERPRINT_SECRET"`
	TracingEnabled       bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter      string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint         string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSamplerRatio  float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
	SessionFile          string  `mapstructure:"SESSION_FILE"`
}

// LoadConfig loads application configuration from .env files, config files and environment variables.
func LoadConfig() (*Config, error) {
	// godotenv never overrides variables that are already set, so .env.local wins over .env.
	for _, f := range []string{".env.local", ".env"} {
		if err := godotenv.Load(f); err == nil {
			log.Printf("Loaded environment file: %s", f)
		}
	}

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base config file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	viper.SetDefault("PORT", "8375")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")
	viper.SetDefault("STORAGE_DIR", "/tmp/sudonet/storage")
	viper.SetDefault("STORAGE_PUBLIC_URL", "")
	viper.SetDefault("IMAGE_MAX_UPLOAD_SIZE_MB", 5)
	viper.SetDefault("FINGERPRINT_SECRET", "sudonet-fingerprint")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)
	viper.SetDefault("SESSION_FILE", "")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.DBSSLMode = strings.ToLower(strings.TrimSpace(config.DBSSLMode))
	config.StoragePublicURL = strings.TrimRight(strings.TrimSpace(config.StoragePublicURL), "/")

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if !config.Configured() {
		log.Println("WARNING: DATABASE_URL or STORAGE_PUBLIC_URL is not set. Running in not-configured mode (read-only, empty feed).")
	}

	return &config, nil
}

// Configured reports whether both backend endpoints are present.
// Missing values degrade the app instead of failing start-up.
func (c *Config) Configured() bool {
	return strings.TrimSpace(c.DatabaseURL) != "" && strings.TrimSpace(c.StoragePublicURL) != ""
}

// IsProduction reports whether APP_ENV names a production profile.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.ImageMaxUploadSizeMB <= 0 {
		return errors.New("IMAGE_MAX_UPLOAD_SIZE_MB must be positive")
	}
	if c.TracingSamplerRatio < 0 || c.TracingSamplerRatio > 1 {
		return errors.New("TRACING_SAMPLER_RATIO must be between 0 and 1")
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			return errors.New("DB_SSLMODE must enable SSL in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
