package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/Miyazak1/linklore-sub001/internal/models"
	"github.com/Miyazak1/linklore-sub001/internal/secrets"
	"github.com/Miyazak1/linklore-sub001/internal/storage"
)

type stubConfigStore struct {
	cfg *models.AIConfig
	err error
}

func (s *stubConfigStore) LatestAIConfig(ctx context.Context) (*models.AIConfig, error) {
	return s.cfg, s.err
}

func TestResolver_Resolve(t *testing.T) {
	sealer, _ := secrets.NewSealer("secret")
	sealed, err := sealer.Seal("sk-stored")
	if err != nil {
		t.Fatal(err)
	}
	store := &stubConfigStore{cfg: &models.AIConfig{Provider: "deepseek", EncryptedAPIKey: sealed}}

	r := NewResolver(store, sealer, nil, nil)
	creds, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if creds.APIKey != "sk-stored" || creds.Provider != "deepseek" {
		t.Errorf("creds = %+v", creds)
	}
}

func TestResolver_NoStoredConfig(t *testing.T) {
	fallback := &Credentials{Provider: "openai", APIKey: "sk-env"}
	r := NewResolver(&stubConfigStore{err: storage.ErrNotFound}, nil, fallback, nil)
	if _, err := r.Resolve(context.Background()); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("expected ErrNoCredentials, got %v", err)
	}
	if r.Default() != fallback {
		t.Error("Default should return the fallback credentials")
	}
}

func TestResolver_UnsealFailure(t *testing.T) {
	other, _ := secrets.NewSealer("other")
	sealer, _ := secrets.NewSealer("secret")
	sealed, _ := other.Seal("sk")
	r := NewResolver(&stubConfigStore{cfg: &models.AIConfig{Provider: "openai", EncryptedAPIKey: sealed}}, sealer, nil, nil)
	if _, err := r.Resolve(context.Background()); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("expected ErrNoCredentials, got %v", err)
	}

	noSealer := NewResolver(&stubConfigStore{cfg: &models.AIConfig{Provider: "openai", EncryptedAPIKey: sealed}}, nil, nil, nil)
	if _, err := noSealer.Resolve(context.Background()); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("no sealer: expected ErrNoCredentials, got %v", err)
	}
}

func TestResolver_UnusableFallbackDropped(t *testing.T) {
	r := NewResolver(nil, nil, &Credentials{Provider: "openai"}, nil)
	if r.Default() != nil {
		t.Error("fallback without key should be dropped")
	}
	var nilResolver *Resolver
	if nilResolver.Default() != nil {
		t.Error("nil resolver Default should be nil")
	}
	if _, err := nilResolver.Resolve(context.Background()); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("nil resolver: %v", err)
	}
}
