// Package config provides configuration management for the sandbox.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Version int           `yaml:"version"`
	Home    string        `yaml:"home"`
	Network NetworkConfig `yaml:"network"`
	Server  ServerConfig  `yaml:"server"`
	Wallet  WalletConfig  `yaml:"wallet"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// NetworkConfig defines the RPC endpoint used for blockhashes, submission and confirmation.
type NetworkConfig struct {
	RPC                   string  `yaml:"rpc"`
	RateLimit             float64 `yaml:"rate_limit"`
	RateBurst             int     `yaml:"rate_burst"`
	ConfirmTimeoutSeconds int     `yaml:"confirm_timeout_seconds"`
	ConfirmPollMillis     int     `yaml:"confirm_poll_millis"`
}

// ServerConfig defines the rendered page settings.
type ServerConfig struct {
	Listen         string `yaml:"listen"`
	RefreshSeconds int    `yaml:"refresh_seconds"`
}

// WalletConfig defines the local wallet provider injected into the sandbox.
type WalletConfig struct {
	Name     string `yaml:"name"`
	Account  int    `yaml:"account"`
	Approval string `yaml:"approval"`
	Origin   string `yaml:"origin"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Color         string `yaml:"color"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads configuration from the specified file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// GetHome returns the sandbox home directory path.
func (c *Config) GetHome() string {
	return c.Home
}

// GetRPC returns the RPC endpoint URL.
func (c *Config) GetRPC() string {
	return c.Network.RPC
}

// GetNetwork returns the RPC endpoint settings.
func (c *Config) GetNetwork() NetworkConfig {
	return c.Network
}

// GetListen returns the address the rendered page listens on.
func (c *Config) GetListen() string {
	return c.Server.Listen
}

// GetWallet returns the wallet provider settings.
func (c *Config) GetWallet() WalletConfig {
	return c.Wallet
}

// GetLoggingLevel returns the configured logging level.
func (c *Config) GetLoggingLevel() string {
	return c.Logging.Level
}

// GetLoggingFile returns the configured log file path.
func (c *Config) GetLoggingFile() string {
	return c.Logging.File
}

// GetOutputFormat returns the default output format.
func (c *Config) GetOutputFormat() string {
	return c.Output.DefaultFormat
}

// IsVerbose returns true if verbose output is enabled.
func (c *Config) IsVerbose() bool {
	return c.Output.Verbose
}

// ConfirmTimeout returns how long a submitted transaction is polled for confirmation.
func (c *Config) ConfirmTimeout() time.Duration {
	if c.Network.ConfirmTimeoutSeconds <= 0 {
		return DefaultConfirmTimeout
	}
	return time.Duration(c.Network.ConfirmTimeoutSeconds) * time.Second
}

// ConfirmPollInterval returns the delay between confirmation polls.
func (c *Config) ConfirmPollInterval() time.Duration {
	if c.Network.ConfirmPollMillis <= 0 {
		return DefaultConfirmPollInterval
	}
	return time.Duration(c.Network.ConfirmPollMillis) * time.Millisecond
}

// WalletDir returns the directory holding wallet files.
func (c *Config) WalletDir() string {
	return filepath.Join(ExpandHome(c.Home), "wallets")
}

// DefaultHome returns the default sandbox home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".phantom-sandbox"
	}
	return filepath.Join(home, ".phantom-sandbox")
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
