package llms

import (
	"testing"

	"github.com/ccsmith33/GroupProject2-sub001/pkg/config"
)

func TestNewProvider_UnknownProvider(t *testing.T) {
	_, err := NewProvider(&config.LLMConfig{Provider: "mystery"})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewProvider_RequiresAPIKey(t *testing.T) {
	for _, provider := range []config.LLMProvider{
		config.LLMProviderAnthropic,
		config.LLMProviderOpenAI,
	} {
		_, err := NewProvider(&config.LLMConfig{Provider: provider})
		if err == nil {
			t.Errorf("%s: expected error without an API key", provider)
		}
	}
}

func TestNewRegistryFromConfig(t *testing.T) {
	cfg := &config.Config{
		LLMs: map[string]*config.LLMConfig{
			"main":   {Provider: config.LLMProviderAnthropic, Model: "claude-sonnet-4-20250514", APIKey: "k1"},
			"backup": {Provider: config.LLMProviderOpenAI, Model: "gpt-4o", APIKey: "k2"},
		},
		DefaultLLM: "main",
	}

	reg, err := NewRegistryFromConfig(cfg)
	if err != nil {
		t.Fatalf("registry construction failed: %v", err)
	}
	defer reg.Close()

	if reg.Count() != 2 {
		t.Errorf("expected 2 providers, got %d", reg.Count())
	}

	provider, err := reg.Provider(cfg.DefaultLLM)
	if err != nil {
		t.Fatalf("default provider not resolvable: %v", err)
	}
	if provider.Name() != "anthropic" {
		t.Errorf("expected anthropic, got %s", provider.Name())
	}

	if _, err := reg.Provider("missing"); err == nil {
		t.Error("expected error for unconfigured provider name")
	}
}

func TestNewRegistryFromConfig_PropagatesConstructionError(t *testing.T) {
	cfg := &config.Config{
		LLMs: map[string]*config.LLMConfig{
			"main": {Provider: config.LLMProviderAnthropic},
		},
	}

	if _, err := NewRegistryFromConfig(cfg); err == nil {
		t.Fatal("expected error for provider without an API key")
	}
}
