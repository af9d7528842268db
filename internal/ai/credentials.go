package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Miyazak1/linklore-sub001/internal/models"
	"github.com/Miyazak1/linklore-sub001/internal/secrets"
	"github.com/Miyazak1/linklore-sub001/internal/storage"
)

// Credentials identify a provider account and models for one call.
type Credentials struct {
	Provider       string `json:"provider" yaml:"provider"`
	APIKey         string `json:"-" yaml:"api_key"`
	Endpoint       string `json:"endpoint,omitempty" yaml:"endpoint"`
	Model          string `json:"model,omitempty" yaml:"model"`
	EmbeddingModel string `json:"embedding_model,omitempty" yaml:"embedding_model"`
}

// ProviderDefaults are the endpoint and models used when a credential leaves them empty.
type ProviderDefaults struct {
	Endpoint       string
	Model          string
	EmbeddingModel string
}

// Providers lists the built-in OpenAI-compatible providers.
var Providers = map[string]ProviderDefaults{
	"openai": {
		Endpoint:       "https://api.openai.com/v1",
		Model:          "gpt-4o-mini",
		EmbeddingModel: "text-embedding-3-small",
	},
	"deepseek": {
		Endpoint: "https://api.deepseek.com/v1",
		Model:    "deepseek-chat",
	},
	"qwen": {
		Endpoint:       "https://dashscope.aliyuncs.com/compatible-mode/v1",
		Model:          "qwen-turbo",
		EmbeddingModel: "text-embedding-v2",
	},
	"moonshot": {
		Endpoint: "https://api.moonshot.cn/v1",
		Model:    "moonshot-v1-8k",
	},
}

func (c *Credentials) defaults() ProviderDefaults {
	return Providers[strings.ToLower(c.Provider)]
}

// Usable reports whether the credentials carry an API key and a resolvable endpoint.
func (c *Credentials) Usable() bool {
	return c != nil && c.APIKey != "" && c.BaseURL() != ""
}

// BaseURL returns the explicit endpoint, else the provider default, without a trailing slash.
func (c *Credentials) BaseURL() string {
	u := c.Endpoint
	if u == "" {
		u = c.defaults().Endpoint
	}
	return strings.TrimRight(u, "/")
}

// ChatModel returns the chat model, falling back to the provider default.
func (c *Credentials) ChatModel() string {
	if c.Model != "" {
		return c.Model
	}
	return c.defaults().Model
}

// EmbeddingModelName returns the embedding model, falling back to the provider default.
func (c *Credentials) EmbeddingModelName() string {
	if c.EmbeddingModel != "" {
		return c.EmbeddingModel
	}
	return c.defaults().EmbeddingModel
}

// Resolver finds credentials for calls that did not bring their own.
type Resolver struct {
	store    storage.AIConfigStore
	sealer   *secrets.Sealer
	fallback *Credentials
	logger   *zap.Logger
}

// NewResolver returns a resolver over stored configurations. fallback are the
// process default credentials from configuration and may be nil.
func NewResolver(store storage.AIConfigStore, sealer *secrets.Sealer, fallback *Credentials, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fallback != nil && !fallback.Usable() {
		fallback = nil
	}
	return &Resolver{store: store, sealer: sealer, fallback: fallback, logger: logger}
}

// Resolve returns the most recently updated stored configuration with its key unsealed.
// It returns ErrNoCredentials when nothing usable is stored.
func (r *Resolver) Resolve(ctx context.Context) (*Credentials, error) {
	if r == nil || r.store == nil {
		return nil, ErrNoCredentials
	}
	cfg, err := r.store.LatestAIConfig(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load ai config: %w", err)
	}
	return r.unseal(cfg)
}

func (r *Resolver) unseal(cfg *models.AIConfig) (*Credentials, error) {
	if r.sealer == nil {
		r.logger.Warn("stored ai config ignored: no sealing secret configured", zap.String("provider", cfg.Provider))
		return nil, ErrNoCredentials
	}
	key, err := r.sealer.Open(cfg.EncryptedAPIKey)
	if err != nil {
		r.logger.Warn("stored ai config could not be unsealed", zap.String("provider", cfg.Provider), zap.Error(err))
		return nil, ErrNoCredentials
	}
	creds := &Credentials{
		Provider:       cfg.Provider,
		APIKey:         key,
		Endpoint:       cfg.Endpoint,
		Model:          cfg.Model,
		EmbeddingModel: cfg.EmbeddingModel,
	}
	if !creds.Usable() {
		return nil, ErrNoCredentials
	}
	return creds, nil
}

// Default returns the process default credentials, or nil.
func (r *Resolver) Default() *Credentials {
	if r == nil {
		return nil
	}
	return r.fallback
}
