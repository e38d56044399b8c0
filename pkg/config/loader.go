package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// MentorMindYAMLConfig represents the complete mentormind.yaml file structure.
type MentorMindYAMLConfig struct {
	Defaults     *Defaults                    `yaml:"defaults"`
	Queue        *QueueConfig                 `yaml:"queue"`
	VectorStore  *VectorStoreConfig           `yaml:"vector_store"`
	LLMProviders map[string]LLMProviderConfig `yaml:"llm_providers"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load mentormind.yaml from configDir
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Build the LLM provider registry
//  5. Apply built-in defaults for unset scalars
//  6. Validate all configuration
//  7. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("Configuration initialized successfully", "llm_providers", stats.LLMProviders)

	return cfg, nil
}

func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	yamlCfg, err := loader.loadMentorMindYAML()
	if err != nil {
		return nil, NewLoadError("mentormind.yaml", err)
	}

	providers := mergeLLMProviders(nil, yamlCfg.LLMProviders)
	llmProviderRegistry := NewLLMProviderRegistry(providers)

	defaults := yamlCfg.Defaults
	if defaults == nil {
		defaults = &Defaults{}
	}
	defaults.ApplyBuiltinDefaults()

	queueCfg := DefaultQueueConfig()
	if yamlCfg.Queue != nil {
		if yamlCfg.Queue.WorkerCount > 0 {
			queueCfg.WorkerCount = yamlCfg.Queue.WorkerCount
		}
		if yamlCfg.Queue.PollInterval > 0 {
			queueCfg.PollInterval = yamlCfg.Queue.PollInterval
		}
		if yamlCfg.Queue.PollIntervalJitter > 0 {
			queueCfg.PollIntervalJitter = yamlCfg.Queue.PollIntervalJitter
		}
		if yamlCfg.Queue.JudgeStageTimeout > 0 {
			queueCfg.JudgeStageTimeout = yamlCfg.Queue.JudgeStageTimeout
		}
		if yamlCfg.Queue.GracefulShutdownTimeout > 0 {
			queueCfg.GracefulShutdownTimeout = yamlCfg.Queue.GracefulShutdownTimeout
		}
	}

	return &Config{
		configDir:           configDir,
		Defaults:            defaults,
		Queue:               queueCfg,
		VectorStore:         yamlCfg.VectorStore,
		LLMProviderRegistry: llmProviderRegistry,
	}, nil
}

func validate(cfg *Config) error {
	validator := NewValidator(cfg)
	return validator.ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	// Expand environment variables using ${VAR}/$VAR syntax.
	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadMentorMindYAML() (*MentorMindYAMLConfig, error) {
	var cfg MentorMindYAMLConfig
	cfg.LLMProviders = make(map[string]LLMProviderConfig)

	if err := l.loadYAML("mentormind.yaml", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
