// Package config loads cloudconsole settings from defaults, an optional YAML
// file and CLOUDCONSOLE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/matthewbaird/cloudconsole/internal/logger"
)

// ErrConfigNotFound is returned when an explicitly named config file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CLOUDCONSOLE"

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Store   StoreConfig   `mapstructure:"store"`
	Loader  LoaderConfig  `mapstructure:"loader"`
	Session SessionConfig `mapstructure:"session"`
	Schema  SchemaConfig  `mapstructure:"schema"`
	Events  EventsConfig  `mapstructure:"events"`
	Logging logger.Config `mapstructure:"logging"`
}

// ServerConfig represents HTTP server settings
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig selects the record store
type StoreConfig struct {
	Driver        string `mapstructure:"driver"`
	DSN           string `mapstructure:"dsn"`
	EncryptionKey string `mapstructure:"encryption_key"`
	Seed          bool   `mapstructure:"seed"`
}

// LoaderConfig bounds the simulated record fetch latency
type LoaderConfig struct {
	MaxDelay time.Duration `mapstructure:"max_delay"`
}

// SessionConfig controls dialog session expiry
type SessionConfig struct {
	MaxAge          time.Duration `mapstructure:"max_age"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// SchemaConfig points at an optional provider schema override
type SchemaConfig struct {
	OverrideFile string `mapstructure:"override_file"`
	Watch        bool   `mapstructure:"watch"`
}

// EventsConfig sizes the event bus and activity log
type EventsConfig struct {
	BufferSize       int `mapstructure:"buffer_size"`
	ActivityCapacity int `mapstructure:"activity_capacity"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Driver: DriverMemory,
			Seed:   true,
		},
		Loader: LoaderConfig{
			MaxDelay: 500 * time.Millisecond,
		},
		Session: SessionConfig{
			MaxAge:          time.Hour,
			IdleTimeout:     15 * time.Minute,
			CleanupInterval: time.Minute,
		},
		Events: EventsConfig{
			BufferSize:       256,
			ActivityCapacity: 1000,
		},
		Logging: logger.Config{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration. configFile may be empty, in which case
// ./cloudconsole.yaml is read when present.
func Load(configFile string) (*Config, error) {
	config := DefaultConfig()

	v := viper.New()
	setDefaults(v, config)
	v.SetConfigType("yaml")

	if configFile != "" {
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("cloudconsole")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var vfnfError viper.ConfigFileNotFoundError
		if !errors.As(err, &vfnfError) {
			return nil, fmt.Errorf("failed to read config file content: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that no
// file sets.
func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("server.port", c.Server.Port)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("store.driver", c.Store.Driver)
	v.SetDefault("store.dsn", c.Store.DSN)
	v.SetDefault("store.encryption_key", c.Store.EncryptionKey)
	v.SetDefault("store.seed", c.Store.Seed)
	v.SetDefault("loader.max_delay", c.Loader.MaxDelay)
	v.SetDefault("session.max_age", c.Session.MaxAge)
	v.SetDefault("session.idle_timeout", c.Session.IdleTimeout)
	v.SetDefault("session.cleanup_interval", c.Session.CleanupInterval)
	v.SetDefault("schema.override_file", c.Schema.OverrideFile)
	v.SetDefault("schema.watch", c.Schema.Watch)
	v.SetDefault("events.buffer_size", c.Events.BufferSize)
	v.SetDefault("events.activity_capacity", c.Events.ActivityCapacity)
	v.SetDefault("logging.level", c.Logging.Level)
	v.SetDefault("logging.format", c.Logging.Format)
	v.SetDefault("logging.add_source", c.Logging.AddSource)
}

// Validate checks settings that would otherwise fail later at startup.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Store.EncryptionKey == "" {
			return fmt.Errorf("store.encryption_key is required for the %s driver", DriverSQLite)
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	if c.Schema.Watch && c.Schema.OverrideFile == "" {
		return errors.New("schema.watch needs schema.override_file")
	}
	if c.Session.CleanupInterval <= 0 {
		return errors.New("session.cleanup_interval must be positive")
	}
	return nil
}

// Masked returns a copy safe to display.
func (c Config) Masked() Config {
	if c.Store.EncryptionKey != "" {
		c.Store.EncryptionKey = "****"
	}
	return c
}
