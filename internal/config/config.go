// Package config handles configuration loading and management for zhimo.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for zhimo.
type Config struct {
	Anthropic    AnthropicConfig    `mapstructure:"anthropic"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Cleanup      CleanupConfig      `mapstructure:"cleanup"`
	Ingestion    IngestionConfig    `mapstructure:"ingestion"`
	Knowledge    KnowledgeConfig    `mapstructure:"knowledge"`
	SignalsDir   string             `mapstructure:"signals_dir"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	// Model overrides the default completion model.
	Model string `mapstructure:"model"`
	// UseBedrock routes completions through AWS Bedrock instead of the
	// Anthropic API.
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// OrchestratorConfig holds workflow execution settings.
type OrchestratorConfig struct {
	// StepTimeout bounds how long a step may take end to end.
	StepTimeout time.Duration `mapstructure:"step_timeout"`
	// PollBaseDelay is the floor of the completion poll backoff.
	PollBaseDelay time.Duration `mapstructure:"poll_base_delay"`
	// PollMaxDelay caps the completion poll backoff.
	PollMaxDelay time.Duration `mapstructure:"poll_max_delay"`
	// MaxWorkflowRetries bounds whole-workflow retries.
	MaxWorkflowRetries int `mapstructure:"max_workflow_retries"`
	// MaxStepRetries bounds single-step retries.
	MaxStepRetries int `mapstructure:"max_step_retries"`
}

// CleanupConfig holds workflow store janitor settings.
type CleanupConfig struct {
	// MaxAge is how long terminal workflows are kept.
	MaxAge time.Duration `mapstructure:"max_age"`
	// Interval is how often the janitor runs.
	Interval time.Duration `mapstructure:"interval"`
}

// IngestionConfig holds document chunking settings.
type IngestionConfig struct {
	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`
}

// KnowledgeConfig holds knowledge store settings.
type KnowledgeConfig struct {
	// DBPath is the SQLite database file for extracted knowledge.
	DBPath string `mapstructure:"db_path"`
}

// Load reads configuration from the user XDG path, an optional project
// override, and environment variables, in increasing precedence.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Load project config if present
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			// Merge project config (takes precedence)
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	// Environment variable overrides
	v.AutomaticEnv()
	v.SetEnvPrefix("")
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.aws_region", "AWS_REGION")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.Knowledge.DBPath = expandEnv(cfg.Knowledge.DBPath)
	cfg.SignalsDir = expandEnv(cfg.SignalsDir)

	return cfg, nil
}

// LoadFromPath reads configuration from an explicit file, applying the same
// defaults and expansion as Load.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.Knowledge.DBPath = expandEnv(cfg.Knowledge.DBPath)
	cfg.SignalsDir = expandEnv(cfg.SignalsDir)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("anthropic.use_bedrock", false)

	v.SetDefault("orchestrator.step_timeout", "5m")
	v.SetDefault("orchestrator.poll_base_delay", "1s")
	v.SetDefault("orchestrator.poll_max_delay", "5s")
	v.SetDefault("orchestrator.max_workflow_retries", 3)
	v.SetDefault("orchestrator.max_step_retries", 3)

	v.SetDefault("cleanup.max_age", "1h")
	v.SetDefault("cleanup.interval", "10m")

	v.SetDefault("ingestion.chunk_size", 2000)
	v.SetDefault("ingestion.chunk_overlap", 200)

	v.SetDefault("knowledge.db_path", defaultDBPath())
	v.SetDefault("signals_dir", "")
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".local", "share", "zhimo", "knowledge.db")
	}
	return filepath.Join(home, ".local", "share", "zhimo", "knowledge.db")
}

func getUserConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "zhimo")
	}

	// Fall back to ~/.config/zhimo
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "zhimo")
	}
	return filepath.Join(home, ".config", "zhimo")
}

func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".zhimo.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

func expandEnv(s string) string {
	return os.ExpandEnv(s)
}
