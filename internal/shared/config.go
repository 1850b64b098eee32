package shared

import (
	"bytes"
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
	Credentials CredentialsConfig `toml:"credentials"`
	TMDb        TMDbConfig        `toml:"tmdb"`
	Sync        SyncConfig        `toml:"sync"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	TMDb TMDbCredentials `toml:"tmdb"`
}

// TMDbCredentials contains TMDb API credentials.
//
// Either APIKey or AccessToken is required; SessionID is needed for account-scoped calls.
type TMDbCredentials struct {
	APIKey      string `toml:"api_key"`
	AccessToken string `toml:"access_token"`
	SessionID   string `toml:"session_id"`
}

// HasKey reports whether any form of API credential is configured.
func (c TMDbCredentials) HasKey() bool {
	return c.APIKey != "" || c.AccessToken != ""
}

// TMDbConfig contains the TMDb endpoints and client settings.
type TMDbConfig struct {
	BaseURL           string  `toml:"base_url"`
	ApproveURL        string  `toml:"approve_url"`
	Language          string  `toml:"language"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// SyncConfig contains list synchronization defaults.
type SyncConfig struct {
	ListName        string `toml:"list_name"`
	ListDescription string `toml:"list_description"`
	DelayMS         int    `toml:"delay_ms"`
	Match           string `toml:"match"` // title or id
}

// Delay returns the post-add delay as a [time.Duration].
func (s SyncConfig) Delay() time.Duration {
	if s.DelayMS < 0 {
		return 0
	}
	return time.Duration(s.DelayMS) * time.Millisecond
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local auth callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CallbackURL returns the URL TMDb redirects to after approval.
func (s ServerConfig) CallbackURL() string {
	return fmt.Sprintf("http://%s/callback", s.Addr())
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
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
	if _, err := toml.Decode(string(data), config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks enumerated and numeric settings.
func (c *Config) Validate() error {
	switch c.Sync.Match {
	case "", "title", "id":
	default:
		return fmt.Errorf("%w: sync.match must be \"title\" or \"id\", got %q", ErrInvalidConfig, c.Sync.Match)
	}
	if c.TMDb.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: tmdb.requests_per_second must not be negative", ErrInvalidConfig)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// SaveConfig writes config to path as TOML, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
