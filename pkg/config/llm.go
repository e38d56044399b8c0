package config

import (
	"fmt"
	"sync"
)

// LLMProviderConfig defines a single upstream LLM provider entry. Three
// logical roles are resolved against this registry by name: the coach
// model, the judge model, and the embedding model (coach_model/judge_model/
// embedding_model configuration options).
type LLMProviderConfig struct {
	// Type identifies the wire format (required).
	Type LLMProviderType `yaml:"type" validate:"required"`

	// Model is the upstream model identifier (required).
	Model string `yaml:"model" validate:"required"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `yaml:"api_key_env,omitempty"`

	// BaseURL optionally overrides the default upstream endpoint, allowing
	// any OpenAI-compatible host to stand in for the real one.
	BaseURL string `yaml:"base_url,omitempty"`

	// Temperature is the sampling temperature used for calls against this provider.
	Temperature float32 `yaml:"temperature,omitempty"`

	// MaxTokens bounds completion length for calls against this provider.
	MaxTokens int `yaml:"max_tokens,omitempty" validate:"omitempty,min=1"`
}

// LLMProviderRegistry stores LLM provider configurations in memory with thread-safe access.
type LLMProviderRegistry struct {
	providers map[string]*LLMProviderConfig
	mu        sync.RWMutex
}

// NewLLMProviderRegistry creates a new LLM provider registry.
func NewLLMProviderRegistry(providers map[string]*LLMProviderConfig) *LLMProviderRegistry {
	// Defensive copy to prevent external mutation
	copied := make(map[string]*LLMProviderConfig, len(providers))
	for k, v := range providers {
		copied[k] = v
	}
	return &LLMProviderRegistry{
		providers: copied,
	}
}

// Get retrieves an LLM provider configuration by name (thread-safe).
func (r *LLMProviderRegistry) Get(name string) (*LLMProviderConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrLLMProviderNotFound, name)
	}
	return provider, nil
}

// GetAll returns all LLM provider configurations (thread-safe, returns copy).
func (r *LLMProviderRegistry) GetAll() map[string]*LLMProviderConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*LLMProviderConfig, len(r.providers))
	for k, v := range r.providers {
		result[k] = v
	}
	return result
}

// Has checks if an LLM provider exists in the registry (thread-safe).
func (r *LLMProviderRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.providers[name]
	return exists
}

// Len returns the number of LLM providers in the registry (thread-safe).
func (r *LLMProviderRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
