// Package config handles configuration loading and validation for the chat
// client and the reference store server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration structure.
type Config struct {
	// Client settings for the CLI and the conversation view.
	Client ClientConfig `yaml:"client" mapstructure:"client"`

	// Server settings for the reference store (chatd).
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// ClientConfig contains client-side settings.
type ClientConfig struct {
	// APIBaseURL is the remote message store's base URL.
	APIBaseURL string `yaml:"api_base_url" mapstructure:"api_base_url"`

	// Email is the current viewer's identity.
	Email string `yaml:"email" mapstructure:"email"`

	// TokenFile is where the bearer token obtained at login is stored.
	TokenFile string `yaml:"token_file" mapstructure:"token_file"`

	// PollInterval is the conversation sync cadence.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`

	// NearBottomLines is the proximity threshold of the scrolled-away test:
	// the viewer counts as "at the bottom" within this many lines of it.
	NearBottomLines int `yaml:"near_bottom_lines" mapstructure:"near_bottom_lines"`
}

// ServerConfig contains reference store settings.
type ServerConfig struct {
	// ListenAddr is the HTTP listen address.
	ListenAddr string `yaml:"listen_addr" mapstructure:"listen_addr"`

	// DBPath is the SQLite database file path.
	DBPath string `yaml:"db_path" mapstructure:"db_path"`

	// SessionTTL is how long a login token stays valid.
	SessionTTL time.Duration `yaml:"session_ttl" mapstructure:"session_ttl"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	configDir := filepath.Join(homeDir, ".config", "retrend-chat")
	dataDir := filepath.Join(homeDir, ".local", "share", "retrend-chat")

	return &Config{
		Client: ClientConfig{
			APIBaseURL:      "http://127.0.0.1:8973",
			TokenFile:       filepath.Join(configDir, "token"),
			PollInterval:    3 * time.Second,
			NearBottomLines: 2,
		},
		Server: ServerConfig{
			ListenAddr: "127.0.0.1:8973",
			DBPath:     filepath.Join(dataDir, "chat.db"),
			SessionTTL: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Client.APIBaseURL == "" {
		return fmt.Errorf("client.api_base_url is required")
	}
	if c.Client.PollInterval < 100*time.Millisecond {
		return fmt.Errorf("client.poll_interval must be at least 100ms")
	}
	if c.Client.NearBottomLines < 0 {
		return fmt.Errorf("client.near_bottom_lines must not be negative")
	}
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}
	if c.Server.SessionTTL < time.Minute {
		return fmt.Errorf("server.session_ttl must be at least 1m")
	}
	return nil
}
