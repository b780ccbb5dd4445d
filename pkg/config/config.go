// Package config loads and validates service configuration from
// concierge.yaml plus environment variables.
package config

import (
	"os"
	"time"
)

// Config is the fully resolved service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	LLM       LLMConfig       `yaml:"llm"`
	Search    SearchConfig    `yaml:"search"`
	Files     FilesConfig     `yaml:"files"`
	Agent     AgentConfig     `yaml:"agent"`
	Retention RetentionConfig `yaml:"retention"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LLMConfig holds provider settings. The API key is referenced by
// environment variable name, never stored in YAML.
type LLMConfig struct {
	BaseURL     string   `yaml:"base_url"`
	Model       string   `yaml:"model"`
	APIKeyEnv   string   `yaml:"api_key_env"`
	Temperature *float64 `yaml:"temperature,omitempty"`
	MaxTokens   *int     `yaml:"max_tokens,omitempty"`
}

// APIKey resolves the provider key from the configured env var.
func (c LLMConfig) APIKey() string {
	return os.Getenv(c.APIKeyEnv)
}

// SearchConfig holds Brave Search settings.
type SearchConfig struct {
	APIKeyEnv string `yaml:"api_key_env"`
}

// APIKey resolves the search key from the configured env var.
func (c SearchConfig) APIKey() string {
	return os.Getenv(c.APIKeyEnv)
}

// FilesConfig holds the file-tool sandbox roots.
type FilesConfig struct {
	KnowledgeBasePath string `yaml:"knowledge_base_path"`
	OutputPath        string `yaml:"output_path"`
}

// AgentConfig holds ReAct loop settings.
type AgentConfig struct {
	MaxSteps int `yaml:"max_steps"`
}

// RetentionConfig holds the event log retention policy.
type RetentionConfig struct {
	EventTTL        time.Duration `yaml:"event_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// Default returns the built-in configuration, used when
// concierge.yaml is absent and as the merge base otherwise.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8000,
			AllowedOrigins: []string{"*"},
		},
		LLM: LLMConfig{
			BaseURL:   "https://api.openai.com/v1",
			Model:     "gpt-4o",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Search: SearchConfig{
			APIKeyEnv: "BRAVE_API_KEY",
		},
		Files: FilesConfig{
			KnowledgeBasePath: "./knowledge_base",
			OutputPath:        "./output",
		},
		Agent: AgentConfig{
			MaxSteps: 20,
		},
		Retention: RetentionConfig{
			EventTTL:        24 * time.Hour,
			CleanupInterval: time.Hour,
		},
	}
}
