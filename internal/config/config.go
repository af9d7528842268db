// Package config provides configuration loading and structs for the Linklore consensus engine.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Miyazak1/linklore-sub001/internal/ai"
	"github.com/Miyazak1/linklore-sub001/internal/consensus"
	"github.com/Miyazak1/linklore-sub001/internal/quality"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	AI         AIConfig         `yaml:"ai"`
	Cache      CacheConfig      `yaml:"cache"`
	Similarity SimilarityConfig `yaml:"similarity"`
	Quality    quality.Config   `yaml:"quality"`
	Consensus  consensus.Config `yaml:"consensus"`
	Watch      WatchConfig      `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// AIConfig holds the process default provider credentials. Stored configurations
// saved with `linklore ai-config` take precedence.
type AIConfig struct {
	Provider       string        `yaml:"provider"`
	APIKey         string        `yaml:"api_key"`
	Endpoint       string        `yaml:"endpoint"`
	Model          string        `yaml:"model"`
	EmbeddingModel string        `yaml:"embedding_model"`
	Timeout        time.Duration `yaml:"timeout"`
	// SealingSecret derives the key that seals stored API keys.
	SealingSecret string `yaml:"sealing_secret"`
}

// Credentials returns the default credentials, or nil when no API key is configured.
func (a *AIConfig) Credentials() *ai.Credentials {
	if a.APIKey == "" {
		return nil
	}
	return &ai.Credentials{
		Provider:       a.Provider,
		APIKey:         a.APIKey,
		Endpoint:       a.Endpoint,
		Model:          a.Model,
		EmbeddingModel: a.EmbeddingModel,
	}
}

// CacheConfig selects the similarity cache backend.
type CacheConfig struct {
	Backend  string        `yaml:"backend"` // memory, redis, or none
	Capacity int           `yaml:"capacity"`
	RedisURL string        `yaml:"redis_url"`
	TTL      time.Duration `yaml:"ttl"`
}

// SimilarityConfig holds similarity batching settings.
type SimilarityConfig struct {
	BatchSize int `yaml:"batch_size"`
}

// WatchConfig controls live reloading of the config file.
type WatchConfig struct {
	Enabled  *bool         `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// EnabledOrDefault returns whether to watch the config file; defaults to true when unset.
func (w *WatchConfig) EnabledOrDefault() bool {
	if w.Enabled != nil {
		return *w.Enabled
	}
	return true
}

// Load reads and parses the config file at path, expands paths, applies
// environment overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, filepath.Dir(path))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads path, or returns the defaults with environment overrides
// when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		cfg := &Config{}
		ApplyEnv(cfg)
		ApplyDefaults(cfg)
		return cfg, cfg.Validate()
	}
	return Load(path)
}

// Validate checks settings that defaults cannot repair.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "memory", "none":
	case "redis":
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	return c.Quality.Validate()
}

// Save writes the config to path. Used by `linklore init`.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
