// Package config handles Niko configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/niko/config.yaml, /etc/niko/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "niko", "config.yaml"))
	}

	paths = append(paths, "/etc/niko/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all Niko configuration.
type Config struct {
	Listen    ListenConfig    `yaml:"listen"`
	Moodniko  MoodnikoConfig  `yaml:"moodniko"`
	Models    ModelsConfig    `yaml:"models"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Session   SessionConfig   `yaml:"session"`
	DataDir   string          `yaml:"data_dir"`
	LogLevel  string          `yaml:"log_level"`
}

// ListenConfig defines the API server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// MoodnikoConfig defines the content recommendation API settings.
type MoodnikoConfig struct {
	// BaseURL is the root of the Moodniko content API.
	BaseURL string `yaml:"base_url"`
	// TimeoutSec bounds each content fetch (default 15).
	TimeoutSec int `yaml:"timeout_sec"`
}

// AnthropicConfig defines Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
}

// Configured reports whether the Anthropic provider can be used.
func (c AnthropicConfig) Configured() bool {
	return c.APIKey != ""
}

// SessionConfig tunes conversational session behavior.
type SessionConfig struct {
	// TimeoutMin is the idle expiry in minutes (default 30). A session
	// untouched for longer than this is replaced on next access.
	TimeoutMin int `yaml:"timeout_min"`
	// HistoryLimit is the number of turns retained per session (default 10).
	HistoryLimit int `yaml:"history_limit"`
	// BatchSize is the number of recommendations per batch (default 5).
	BatchSize int `yaml:"batch_size"`
}

// ModelsConfig defines model selection settings.
type ModelsConfig struct {
	Default   string `yaml:"default"`
	OllamaURL string `yaml:"ollama_url"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Listen: ListenConfig{Port: 8080},
		Moodniko: MoodnikoConfig{
			BaseURL:    "https://moodniko-backend.onrender.com",
			TimeoutSec: 15,
		},
		Models: ModelsConfig{
			Default:   "qwen3:4b",
			OllamaURL: "http://localhost:11434",
		},
		Session: SessionConfig{
			TimeoutMin:   30,
			HistoryLimit: 10,
			BatchSize:    5,
		},
		DataDir: "data",
	}
}

// SessionTimeout returns the configured idle expiry as a duration.
func (c *Config) SessionTimeout() time.Duration {
	if c.Session.TimeoutMin <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Session.TimeoutMin) * time.Minute
}

// ContentTimeout returns the content fetch timeout as a duration.
func (c *Config) ContentTimeout() time.Duration {
	if c.Moodniko.TimeoutSec <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Moodniko.TimeoutSec) * time.Second
}
