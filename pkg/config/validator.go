package config

import (
	"fmt"
	"os"
)

// Validator validates configuration comprehensively with clear error messages.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll performs comprehensive validation (fail-fast — stops at first error).
func (v *Validator) ValidateAll() error {
	if err := v.validateQueue(); err != nil {
		return fmt.Errorf("queue validation failed: %w", err)
	}
	if err := v.validateLLMProviders(); err != nil {
		return fmt.Errorf("LLM provider validation failed: %w", err)
	}
	if err := v.validateDefaults(); err != nil {
		return fmt.Errorf("defaults validation failed: %w", err)
	}
	if err := v.validateVectorStore(); err != nil {
		return fmt.Errorf("vector store validation failed: %w", err)
	}
	return nil
}

func (v *Validator) validateQueue() error {
	q := v.cfg.Queue
	if q == nil {
		return fmt.Errorf("queue configuration is nil")
	}
	if q.WorkerCount < 1 || q.WorkerCount > 50 {
		return fmt.Errorf("worker_count must be between 1 and 50, got %d", q.WorkerCount)
	}
	if q.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %v", q.PollInterval)
	}
	if q.PollIntervalJitter < 0 {
		return fmt.Errorf("poll_interval_jitter must be non-negative, got %v", q.PollIntervalJitter)
	}
	if q.PollIntervalJitter >= q.PollInterval {
		return fmt.Errorf("poll_interval_jitter must be less than poll_interval, got jitter=%v interval=%v", q.PollIntervalJitter, q.PollInterval)
	}
	if q.JudgeStageTimeout <= 0 {
		return fmt.Errorf("judge_stage_timeout must be positive, got %v", q.JudgeStageTimeout)
	}
	if q.GracefulShutdownTimeout <= 0 {
		return fmt.Errorf("graceful_shutdown_timeout must be positive, got %v", q.GracefulShutdownTimeout)
	}
	return nil
}

func (v *Validator) validateLLMProviders() error {
	providers := v.cfg.LLMProviderRegistry.GetAll()

	for _, role := range []struct{ name, value string }{
		{"coach_model", v.cfg.Defaults.CoachModel},
		{"judge_model", v.cfg.Defaults.JudgeModel},
		{"embedding_model", v.cfg.Defaults.EmbeddingModel},
	} {
		if role.value == "" {
			continue // reported by validateDefaults' required check
		}
		if _, exists := providers[role.value]; !exists {
			return NewValidationError("defaults", "", role.name,
				fmt.Errorf("LLM provider '%s' not found", role.value))
		}
	}

	for name, provider := range providers {
		if !provider.Type.IsValid() {
			return NewValidationError("llm_provider", name, "type", fmt.Errorf("invalid provider type: %s", provider.Type))
		}
		if provider.Model == "" {
			return NewValidationError("llm_provider", name, "model", fmt.Errorf("model is required"))
		}
		if provider.APIKeyEnv != "" {
			if _, ok := os.LookupEnv(provider.APIKeyEnv); !ok {
				return NewValidationError("llm_provider", name, "api_key_env",
					fmt.Errorf("environment variable '%s' is not set", provider.APIKeyEnv))
			}
		}
	}

	return nil
}

func (v *Validator) validateDefaults() error {
	d := v.cfg.Defaults
	if d == nil {
		return fmt.Errorf("defaults configuration is nil")
	}
	if d.CoachModel == "" {
		return NewValidationError("defaults", "", "coach_model", fmt.Errorf("required"))
	}
	if d.JudgeModel == "" {
		return NewValidationError("defaults", "", "judge_model", fmt.Errorf("required"))
	}
	if d.EmbeddingModel == "" {
		return NewValidationError("defaults", "", "embedding_model", fmt.Errorf("required"))
	}
	if d.LLMLogPath == "" {
		return NewValidationError("defaults", "", "llm_log_path", fmt.Errorf("required"))
	}
	if d.MaxChatTurns < 1 {
		return NewValidationError("defaults", "", "max_chat_turns", fmt.Errorf("must be at least 1"))
	}
	if d.ChatHistoryWindow < 2 {
		return NewValidationError("defaults", "", "chat_history_window", fmt.Errorf("must be at least 2"))
	}
	if d.EvidenceAnchorLen < 1 {
		return NewValidationError("defaults", "", "evidence_anchor_len", fmt.Errorf("must be at least 1"))
	}
	if d.EvidenceSearchWindow < 1 {
		return NewValidationError("defaults", "", "evidence_search_window", fmt.Errorf("must be at least 1"))
	}
	return nil
}

func (v *Validator) validateVectorStore() error {
	vs := v.cfg.VectorStore
	if vs == nil {
		return fmt.Errorf("vector_store configuration is required")
	}
	if vs.Address == "" {
		return NewValidationError("vector_store", "", "address", fmt.Errorf("required"))
	}
	if vs.CollectionName == "" {
		return NewValidationError("vector_store", "", "collection_name", fmt.Errorf("required"))
	}
	return nil
}
