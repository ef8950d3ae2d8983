package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Provider   ProviderConfig
	Cache      CacheConfig
	Store      StoreConfig
	Enrichment EnrichmentConfig
	Resolver   ResolverConfig
	Log        LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ProviderConfig holds place provider API configuration
type ProviderConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	SearchURL      string        `mapstructure:"search_url"`
	SearchSuffix   string        `mapstructure:"search_suffix"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
}

// CacheConfig holds enrichment cache configuration
type CacheConfig struct {
	MaxEntries      int           `mapstructure:"max_entries"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// StoreConfig holds place store configuration
type StoreConfig struct {
	Driver      string `mapstructure:"driver"` // "memory", "postgres" or "sqlite"
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// EnrichmentConfig toggles the enrichment behaviours that differ between deployments
type EnrichmentConfig struct {
	EnrichOnAdd           bool `mapstructure:"enrich_on_add"`
	OverwriteClosedStatus bool `mapstructure:"overwrite_closed_status"`
}

// ResolverConfig holds the pending-identity resolver schedule
type ResolverConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration from path when given, otherwise searches the
// default locations. Environment variables override file values.
func LoadFile(path string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/bitebook/")
	}

	// BITEBOOK_PROVIDER_API_KEY -> provider.api_key
	v.SetEnvPrefix("BITEBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values. Every key needs a default
// so that AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.shutdown_timeout", "15s")

	// Provider defaults
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.base_url", "https://places.googleapis.com/v1/places")
	v.SetDefault("provider.search_url", "https://places.googleapis.com/v1/places:searchText")
	v.SetDefault("provider.search_suffix", "Sydney")
	v.SetDefault("provider.connect_timeout", "3s")
	v.SetDefault("provider.read_timeout", "5s")
	v.SetDefault("provider.rate_limit", 10)
	v.SetDefault("provider.max_attempts", 3)

	// Cache defaults
	v.SetDefault("cache.max_entries", 500)
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.cleanup_interval", "10m")

	// Store defaults
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.auto_migrate", true)

	// Enrichment defaults
	v.SetDefault("enrichment.enrich_on_add", true)
	v.SetDefault("enrichment.overwrite_closed_status", false)

	// Resolver defaults
	v.SetDefault("resolver.enabled", false)
	v.SetDefault("resolver.schedule", "0 3 * * *")

	v.SetDefault("log.level", "info")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	switch config.Store.Driver {
	case "memory":
	case "postgres", "sqlite":
		if config.Store.DSN == "" {
			return fmt.Errorf("store DSN is required when driver is '%s' (set BITEBOOK_STORE_DSN)", config.Store.Driver)
		}
	default:
		return fmt.Errorf("store driver must be 'memory', 'postgres' or 'sqlite', got: %s", config.Store.Driver)
	}

	if config.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache max_entries must be positive, got: %d", config.Cache.MaxEntries)
	}
	if config.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got: %s", config.Cache.TTL)
	}

	if config.Provider.ConnectTimeout <= 0 || config.Provider.ReadTimeout <= 0 {
		return fmt.Errorf("provider timeouts must be positive")
	}
	if config.Provider.MaxAttempts < 1 {
		return fmt.Errorf("provider max_attempts must be at least 1, got: %d", config.Provider.MaxAttempts)
	}
	if config.Provider.RateLimit < 0 {
		return fmt.Errorf("provider rate_limit must not be negative")
	}

	if config.Resolver.Enabled && strings.TrimSpace(config.Resolver.Schedule) == "" {
		return fmt.Errorf("resolver schedule is required when the resolver is enabled")
	}

	return nil
}

// loadEnvFile loads ./.env into the process environment. Variables that are
// already set win, and a missing file is not an error.
func loadEnvFile() error {
	if err := godotenv.Load(".env"); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error loading .env file: %w", err)
	}
	return nil
}
