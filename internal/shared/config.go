package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Provider ProviderConfig `toml:"provider"`
	Player   PlayerConfig   `toml:"player"`
	Curation CurationConfig `toml:"curation"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

// APIConfig points at the curation backend.
type APIConfig struct {
	BaseURL string `toml:"base_url"`
}

// ProviderConfig contains streaming provider (Spotify Web API) settings.
type ProviderConfig struct {
	BaseURL   string  `toml:"base_url"`
	RateLimit float64 `toml:"rate_limit"` // requests per second, 0 disables limiting
}

// PlayerConfig contains polling and control settings.
type PlayerConfig struct {
	PollIntervalMS int `toml:"poll_interval_ms"`
	ResyncDelayMS  int `toml:"resync_delay_ms"`
	SeekStepMS     int `toml:"seek_step_ms"`
}

// CurationConfig contains context resolution settings.
type CurationConfig struct {
	CacheTTLSeconds int `toml:"cache_ttl_seconds"`
}

// DatabaseConfig contains credential store settings.
type DatabaseConfig struct {
	Driver       string `toml:"driver"` // sqlite or bolt
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains the local login callback server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// PollInterval returns the poll interval as a [time.Duration].
func (c PlayerConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// ResyncDelay returns the post-command refetch delay as a [time.Duration].
func (c PlayerConfig) ResyncDelay() time.Duration {
	return time.Duration(c.ResyncDelayMS) * time.Millisecond
}

// CacheTTL returns the context resolution freshness window.
func (c CurationConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// CallbackAddr returns the host:port the login callback server listens on.
func (c ServerConfig) CallbackAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate reports configuration values the application cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "bolt":
	default:
		return fmt.Errorf("%w: unknown database driver %q", ErrInvalidConfig, c.Database.Driver)
	}

	if c.API.BaseURL == "" {
		return fmt.Errorf("%w: api.base_url is required", ErrInvalidConfig)
	}
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("%w: provider.base_url is required", ErrInvalidConfig)
	}
	if c.Player.PollIntervalMS <= 0 {
		return fmt.Errorf("%w: player.poll_interval_ms must be positive", ErrInvalidConfig)
	}
	if c.Player.ResyncDelayMS < 0 || c.Player.SeekStepMS <= 0 {
		return fmt.Errorf("%w: player delays must not be negative", ErrInvalidConfig)
	}
	if c.Curation.CacheTTLSeconds <= 0 {
		return fmt.Errorf("%w: curation.cache_ttl_seconds must be positive", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
