package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

const configFile = "concierge.yaml"

// Initialize loads, merges, and validates configuration.
//
// Steps performed:
//  1. Start from built-in defaults
//  2. Load concierge.yaml from configDir (optional)
//  3. Expand {{.VAR}} environment references
//  4. Merge user values over defaults
//  5. Validate the result
func Initialize(configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)

	cfg := Default()

	path := filepath.Join(configDir, configFile)
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		log.Info("No config file found, using defaults", "path", path)
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	default:
		var user Config
		if err := yaml.Unmarshal(ExpandEnv(data), &user); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if err := mergo.Merge(cfg, &user, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge %s: %w", path, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("Configuration initialized",
		"model", cfg.LLM.Model,
		"port", cfg.Server.Port,
		"max_steps", cfg.Agent.MaxSteps)
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url must not be empty")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model must not be empty")
	}
	if c.LLM.APIKeyEnv == "" {
		return fmt.Errorf("llm.api_key_env must not be empty")
	}
	if c.Agent.MaxSteps < 1 {
		return fmt.Errorf("agent.max_steps must be positive")
	}
	if c.Files.KnowledgeBasePath == "" || c.Files.OutputPath == "" {
		return fmt.Errorf("files paths must not be empty")
	}
	if c.Retention.EventTTL <= 0 || c.Retention.CleanupInterval <= 0 {
		return fmt.Errorf("retention durations must be positive")
	}
	return nil
}
