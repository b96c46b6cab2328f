package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "orgkit.json"

	// DefaultBaseURL is the API endpoint used when none is configured.
	DefaultBaseURL = "http://localhost:4000"

	// DefaultRefreshPath is the token refresh endpoint path.
	DefaultRefreshPath = "/auth/refresh"

	// DefaultLoginPath is where the client navigates on terminal auth
	// failure.
	DefaultLoginPath = "/login"

	// EnvBaseURL overrides the configured base URL.
	EnvBaseURL = "ORGKIT_BASE_URL"
)

// Config is the orgkit.json schema.
type Config struct {
	// BaseURL is the API server root.
	BaseURL string `json:"baseUrl,omitempty"`

	// RefreshPath is the token refresh endpoint, relative to BaseURL.
	RefreshPath string `json:"refreshPath,omitempty"`

	// LoginPath is the navigation target on terminal auth failure.
	LoginPath string `json:"loginPath,omitempty"`

	// LiveURL is the WebSocket invalidation feed. Empty disables the
	// feed.
	LiveURL string `json:"liveUrl,omitempty"`

	// StateFile is where credentials and cache entries persist.
	// Empty means in-memory only.
	StateFile string `json:"stateFile,omitempty"`

	// MetricsNamespace is the Prometheus namespace for client metrics.
	MetricsNamespace string `json:"metricsNamespace,omitempty"`

	// configPath stores where the config was loaded from.
	configPath string
}

// Default returns the default configuration.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads configuration from path. A missing file yields defaults;
// a malformed file is an error. The ORGKIT_BASE_URL environment
// variable overrides the base URL either way.
func Load(path string) (*Config, error) {
	c := &Config{configPath: path}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	default:
		if err := json.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if env := os.Getenv(EnvBaseURL); env != "" {
		c.BaseURL = env
	}
	c.applyDefaults()
	return c, nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	c.configPath = path
	return nil
}

// Path returns where the config was loaded from or saved to.
func (c *Config) Path() string {
	return c.configPath
}

// RefreshURL returns the absolute refresh endpoint URL.
func (c *Config) RefreshURL() string {
	return c.BaseURL + c.RefreshPath
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.RefreshPath == "" {
		c.RefreshPath = DefaultRefreshPath
	}
	if c.LoginPath == "" {
		c.LoginPath = DefaultLoginPath
	}
}
