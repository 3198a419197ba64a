package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"coe-console/internal/tableview"
)

// SavedBackend is a named backend the console can talk to.
type SavedBackend struct {
	Name    string `json:"name"`
	BaseURL string `json:"base_url"`
}

type Settings struct {
	DownloadDir string `json:"download_dir,omitempty"`
	RowsPerPage int    `json:"rows_per_page,omitempty"`
	LogFile     string `json:"log_file,omitempty"`
	LogLevel    string `json:"log_level,omitempty"`
}

type Config struct {
	Backends []SavedBackend `json:"backends"`
	Settings Settings       `json:"settings"`

	path string
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "coe-console"), nil
}

// DefaultPath is where the profile file lives unless --config says otherwise.
func DefaultPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "console.json"), nil
}

// Load reads the profile at path, or the default location when path is
// empty. A missing file yields an empty config with defaults applied.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return withDefaults(&Config{}), err
		}
		path = p
	}

	cfg := &Config{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return withDefaults(cfg), nil
		}
		return withDefaults(cfg), fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return withDefaults(&Config{path: path}), fmt.Errorf("failed to parse config: %w", err)
	}
	return withDefaults(cfg), nil
}

func withDefaults(c *Config) *Config {
	if c.Settings.DownloadDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Settings.DownloadDir = filepath.Join(home, "Downloads")
		} else {
			c.Settings.DownloadDir = "."
		}
	}
	if !tableview.ValidRowsPerPage(c.Settings.RowsPerPage) {
		c.Settings.RowsPerPage = tableview.DefaultRowsPerPage
	}
	if c.Settings.LogFile == "" {
		if dir, err := configDir(); err == nil {
			c.Settings.LogFile = filepath.Join(dir, "console.log")
		}
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = "info"
	}
	return c
}

// Path is the file Save writes to.
func (c *Config) Path() string { return c.path }

func (c *Config) Save() error {
	if c.path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		c.path = p
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(c.path, data, 0600)
}

// Add stores b, replacing a backend with the same name.
func (c *Config) Add(b SavedBackend) {
	b.BaseURL = strings.TrimRight(strings.TrimSpace(b.BaseURL), "/")
	for i, existing := range c.Backends {
		if existing.Name == b.Name {
			c.Backends[i] = b
			return
		}
	}
	c.Backends = append(c.Backends, b)
}

func (c *Config) Delete(index int) {
	if index < 0 || index >= len(c.Backends) {
		return
	}
	c.Backends = append(c.Backends[:index], c.Backends[index+1:]...)
}
