package main

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sibylhq/sibyl"
)

// Config is the daemon configuration: a yaml file with environment
// overrides for deployment-specific values.
type Config struct {
	Listen    string                `yaml:"listen"`
	DBPath    string                `yaml:"db_path"`
	LogLevel  string                `yaml:"log_level"`
	RateLimit int                   `yaml:"rate_limit_per_minute"`
	AttachDir string                `yaml:"attachment_dir"`
	APIKeyEnv string                `yaml:"api_key_env"`
	Inference sibyl.InferenceConfig `yaml:"inference"`
}

func defaultConfig() Config {
	return Config{
		Listen:    ":8585",
		DBPath:    "sibyl.db",
		LogLevel:  "info",
		RateLimit: 30,
		APIKeyEnv: "GEMINI_API_KEY",
	}
}

// loadConfig reads path (optional) and applies environment overrides.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := os.Getenv("SIBYL_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("SIBYL_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("SIBYL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SIBYL_MODEL"); v != "" {
		cfg.Inference.Model = v
	}
	return cfg, nil
}

// APIKey resolves the inference credential from the configured variable.
func (c Config) APIKey() string {
	return os.Getenv(c.APIKeyEnv)
}

// staticConfig serves the file-resolved inference configuration.
type staticConfig struct {
	cfg sibyl.InferenceConfig
}

func (s staticConfig) InferenceConfig(context.Context) (sibyl.InferenceConfig, error) {
	return s.cfg, nil
}
