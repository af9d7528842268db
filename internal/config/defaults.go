package config

import (
	"os"
	"time"
)

// DefaultConfigPath is where the CLI looks for a config file when --config is not given.
const DefaultConfigPath = "/usr/local/etc/linklore/config.yaml"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/linklore/data/linklore.db"
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "openai"
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 30 * time.Second
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.Capacity == 0 {
		cfg.Cache.Capacity = 10000
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 24 * time.Hour
	}
	if cfg.Similarity.BatchSize == 0 {
		cfg.Similarity.BatchSize = 5
	}
	cfg.Quality.ApplyDefaults()
	cfg.Consensus.ApplyDefaults()
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
}

// ApplyEnv overrides secrets and endpoints from the environment.
// LINKLORE_* variables win over OPENAI_API_KEY.
func ApplyEnv(cfg *Config) {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := os.LookupEnv(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}
	set(&cfg.AI.APIKey, "LINKLORE_AI_API_KEY", "OPENAI_API_KEY")
	set(&cfg.AI.Provider, "LINKLORE_AI_PROVIDER")
	set(&cfg.AI.Endpoint, "LINKLORE_AI_ENDPOINT", "OPENAI_BASE_URL")
	set(&cfg.AI.Model, "LINKLORE_AI_MODEL")
	set(&cfg.AI.SealingSecret, "LINKLORE_SEALING_SECRET")
	set(&cfg.Cache.RedisURL, "LINKLORE_REDIS_URL")
	set(&cfg.Storage.DatabasePath, "LINKLORE_DATABASE_PATH")
}
