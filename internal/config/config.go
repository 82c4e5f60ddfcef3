// Package config loads the monitor's YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Port     int          `yaml:"port"` // 0 asks the OS for a free port
	Theme    string       `yaml:"theme"`
	LogLevel string       `yaml:"log_level"`
	Device   DeviceConfig `yaml:"device"`
}

// DeviceConfig selects and tunes the BLE heart rate device session.
type DeviceConfig struct {
	// Address pins a specific device. Empty means the first device
	// advertising the Heart Rate Service wins. On macOS this is a
	// CoreBluetooth UUID rather than a MAC address.
	Address string `yaml:"address"`
	// Name additionally filters by advertised local name.
	Name string `yaml:"name"`
	// ScanTimeout is the per-attempt discovery window in seconds.
	ScanTimeout int `yaml:"scan_timeout"`
	// BackoffMax caps the reconnect backoff delay in seconds.
	BackoffMax int `yaml:"backoff_max"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "heart-rate-monitor")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Port:     3030,
		Theme:    filepath.Join("themes", "default.html"),
		LogLevel: "info",
		Device: DeviceConfig{
			ScanTimeout: 15,
			BackoffMax:  30,
		},
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in theme is expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Theme = expandTilde(cfg.Theme)

	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port must be in 0..65535, got %d", c.Port)
	}

	if c.Theme == "" {
		return fmt.Errorf("theme must not be empty")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	if c.Device.ScanTimeout <= 0 {
		return fmt.Errorf("device.scan_timeout must be > 0 seconds")
	}

	if c.Device.BackoffMax <= 0 {
		return fmt.Errorf("device.backoff_max must be > 0 seconds")
	}

	return nil
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
