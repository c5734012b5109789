// ABOUTME: Client configuration: server base URL, data directory, HTTP timeout
// ABOUTME: JSON config file under the XDG config dir, created with defaults on first run

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Config stores ntn client configuration.
type Config struct {
	// ServerURL is the base URL of the sync server.
	ServerURL string `json:"server_url,omitempty"`

	// DataDir is the root directory for the local store. Supports ~
	// expansion. Defaults to the XDG data directory.
	DataDir string `json:"data_dir,omitempty"`

	// HTTPTimeoutSeconds overrides the per-request HTTP timeout.
	HTTPTimeoutSeconds int `json:"http_timeout_seconds,omitempty"`
}

// GetServerURL returns the configured server URL, defaulting to the
// local development server.
func (c *Config) GetServerURL() string {
	if c.ServerURL == "" {
		return DefaultServerURL
	}
	return c.ServerURL
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return filepath.Join(xdg.DataHome, appName)
	}
	return ExpandPath(c.DataDir)
}

// GetHTTPTimeout returns the per-request HTTP timeout.
func (c *Config) GetHTTPTimeout() time.Duration {
	if c.HTTPTimeoutSeconds <= 0 {
		return DefaultHTTPTimeout
	}
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.json")
}

// Load reads config from disk, writing a default file on first run.
func Load() (*Config, error) {
	path := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := &Config{}
			if saveErr := cfg.Save(); saveErr != nil {
				fmt.Fprintf(os.Stderr, "warning: could not save default config: %v\n", saveErr)
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPerms); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
