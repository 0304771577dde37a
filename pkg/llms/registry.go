package llms

import (
	"fmt"

	"github.com/ccsmith33/GroupProject2-sub001/pkg/config"
	"github.com/ccsmith33/GroupProject2-sub001/pkg/registry"
)

// ProviderRegistry holds the configured providers by name.
type ProviderRegistry struct {
	*registry.BaseRegistry[Provider]
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		BaseRegistry: registry.NewBaseRegistry[Provider](),
	}
}

// Provider resolves a configured provider by name.
func (r *ProviderRegistry) Provider(name string) (Provider, error) {
	provider, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("llm %q is not configured (available: %v)", name, r.Names())
	}
	return provider, nil
}

// Close releases every registered provider.
func (r *ProviderRegistry) Close() error {
	var firstErr error
	for _, provider := range r.List() {
		if err := provider.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewProvider builds a provider adapter from its configuration.
func NewProvider(cfg *config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case config.LLMProviderAnthropic:
		return NewAnthropicProvider(cfg)
	case config.LLMProviderOpenAI:
		return NewOpenAIProvider(cfg)
	case config.LLMProviderGemini:
		return NewGeminiProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}

// NewRegistryFromConfig builds and registers every configured provider.
func NewRegistryFromConfig(cfg *config.Config) (*ProviderRegistry, error) {
	reg := NewProviderRegistry()
	for name, llmCfg := range cfg.LLMs {
		provider, err := NewProvider(llmCfg)
		if err != nil {
			return nil, fmt.Errorf("llm %q: %w", name, err)
		}
		if err := reg.Register(name, provider); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
