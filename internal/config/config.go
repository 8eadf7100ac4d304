// Package config loads server configuration from YAML files with environment
// variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the table server.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Cards    CardsConfig    `mapstructure:"cards"`
}

// ServerConfig holds the transport and table limits.
type ServerConfig struct {
	WebSocket        WebSocketConfig `mapstructure:"websocket"`
	MaxTables        int             `mapstructure:"max_tables"`
	SelectionTimeout time.Duration   `mapstructure:"selection_timeout"`
}

// WebSocketConfig holds the websocket listener settings.
type WebSocketConfig struct {
	Address         string `mapstructure:"address"`
	ReadBufferSize  int    `mapstructure:"read_buffer_size"`
	WriteBufferSize int    `mapstructure:"write_buffer_size"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig holds the PostgreSQL connection settings. The database is
// optional; when disabled, card templates come from set files only.
type DatabaseConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	URL      string        `mapstructure:"url"`
	MaxConns int32         `mapstructure:"max_conns"`
	MinConns int32         `mapstructure:"min_conns"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// CardsConfig points at the on-disk card set definitions.
type CardsConfig struct {
	SetDir string `mapstructure:"set_dir"`
}

// Load reads the configuration file at path, applies defaults, and overlays
// CARDSCRIPT_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("CARDSCRIPT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.websocket.address", ":8089")
	v.SetDefault("server.websocket.read_buffer_size", 1024)
	v.SetDefault("server.websocket.write_buffer_size", 1024)
	v.SetDefault("server.max_tables", 100)
	v.SetDefault("server.selection_timeout", 60*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.timeout", 5*time.Second)

	v.SetDefault("cards.set_dir", "cards")
}

// Validate checks invariants that viper cannot express.
func (c *Config) Validate() error {
	if c.Server.MaxTables <= 0 {
		return fmt.Errorf("config: server.max_tables must be positive, got %d", c.Server.MaxTables)
	}
	if c.Server.SelectionTimeout <= 0 {
		return fmt.Errorf("config: server.selection_timeout must be positive, got %s", c.Server.SelectionTimeout)
	}
	if c.Database.Enabled && c.Database.URL == "" {
		return fmt.Errorf("config: database.url is required when the database is enabled")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown logging.level %q", c.Logging.Level)
	}
	return nil
}
