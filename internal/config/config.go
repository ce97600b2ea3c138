package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	ServerAddress   string        `mapstructure:"SERVER_ADDRESS"`
	DBDriver        string        `mapstructure:"DB_DRIVER"`
	DBSource        string        `mapstructure:"DB_SOURCE"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	LogFormat       string        `mapstructure:"LOG_FORMAT"`
	MaxUploadBytes  int64         `mapstructure:"MAX_UPLOAD_BYTES"`
	DefaultPageSize int           `mapstructure:"DEFAULT_PAGE_LIMIT"`
	MaxPageSize     int           `mapstructure:"MAX_PAGE_LIMIT"`
	CORSOrigins     string        `mapstructure:"CORS_ORIGINS"`
	CacheAddr       string        `mapstructure:"CACHE_ADDR"`
	CacheTTL        time.Duration `mapstructure:"CACHE_TTL"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// LoadConfig reads configuration from app.env in path, overridden by environment variables.
// A missing file is not an error; defaults and the environment still apply.
func LoadConfig(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("SERVER_ADDRESS", "0.0.0.0:8000")
	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("DB_SOURCE", "data/database.db")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("MAX_UPLOAD_BYTES", 32<<20)
	v.SetDefault("DEFAULT_PAGE_LIMIT", 200)
	v.SetDefault("MAX_PAGE_LIMIT", 1000)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("CACHE_ADDR", "")
	v.SetDefault("CACHE_TTL", 10*time.Minute)
	v.SetDefault("SHUTDOWN_TIMEOUT", 10*time.Second)

	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	v.AutomaticEnv()

	var config Config
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("config: failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("config: failed to unmarshal: %w", err)
	}

	config.DBDriver = strings.ToLower(strings.TrimSpace(config.DBDriver))
	return config, config.Validate()
}

// Validate checks that required fields are present and sane.
func (c Config) Validate() error {
	var errs []string

	if c.ServerAddress == "" {
		errs = append(errs, "SERVER_ADDRESS is required")
	}
	if c.DBDriver != DriverSQLite && c.DBDriver != DriverPostgres {
		errs = append(errs, fmt.Sprintf("DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.DBDriver))
	}
	if c.DBSource == "" {
		errs = append(errs, "DB_SOURCE is required")
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, "MAX_UPLOAD_BYTES must be positive")
	}
	if c.DefaultPageSize <= 0 {
		errs = append(errs, "DEFAULT_PAGE_LIMIT must be positive")
	}
	if c.MaxPageSize < c.DefaultPageSize {
		errs = append(errs, fmt.Sprintf("MAX_PAGE_LIMIT (%d) must be at least DEFAULT_PAGE_LIMIT (%d)", c.MaxPageSize, c.DefaultPageSize))
	}
	if c.CacheAddr != "" && c.CacheTTL < time.Second {
		errs = append(errs, "CACHE_TTL must be at least 1s when CACHE_ADDR is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
