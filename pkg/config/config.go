package config

// Config is the umbrella configuration object that encapsulates all
// registries, defaults, and configuration state. This is the primary
// object returned by Initialize() and used throughout the application.
type Config struct {
	configDir string // Configuration directory path (for reference)

	// System-wide defaults (max_chat_turns, chat_history_window, evidence
	// tuning, judge_stage_timeout, llm_log_path).
	Defaults *Defaults

	// Queue holds judge worker pool configuration.
	Queue *QueueConfig

	// VectorStore holds the vector memory backend configuration.
	VectorStore *VectorStoreConfig

	// LLMProviderRegistry resolves the coach/judge/embedding model entries.
	LLMProviderRegistry *LLMProviderRegistry
}

// VectorStoreConfig configures the vector-memory backend (C6/C13).
type VectorStoreConfig struct {
	Address        string `yaml:"address" validate:"required"`
	CollectionName string `yaml:"collection_name" validate:"required"`
}

// ConfigStats contains statistics about loaded configuration.
type ConfigStats struct {
	LLMProviders int
}

// Stats returns configuration statistics for logging/monitoring.
func (c *Config) Stats() ConfigStats {
	return ConfigStats{
		LLMProviders: len(c.LLMProviderRegistry.GetAll()),
	}
}

// ConfigDir returns the configuration directory path.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// GetLLMProvider retrieves an LLM provider configuration by name.
// This is a convenience method that wraps LLMProviderRegistry.Get().
func (c *Config) GetLLMProvider(name string) (*LLMProviderConfig, error) {
	return c.LLMProviderRegistry.Get(name)
}
