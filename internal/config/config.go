// Package config provides configuration loading and structs for the gator service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Model    ModelConfig    `yaml:"model"`
	Crawler  CrawlerConfig  `yaml:"crawler"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// ServerConfig holds the status HTTP endpoint settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ModelConfig holds the topic model artifact location and training settings.
type ModelConfig struct {
	Path      string `yaml:"path"`
	NumTopics int    `yaml:"num_topics"`
}

// CrawlerConfig holds the fetch stage settings.
type CrawlerConfig struct {
	SeedURLs       []string `yaml:"seed_urls"`
	RateLimit      float64  `yaml:"rate_limit"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

// PipelineConfig holds the orchestration loop settings.
type PipelineConfig struct {
	DocsChunkSize      int `yaml:"docs_chunk_size"`
	UserDocsMaxSize    int `yaml:"user_docs_max_size"`
	DedupHorizonDays   int `yaml:"dedup_horizon_days"`
	GradingConcurrency int `yaml:"grading_concurrency"`
	RetryAttempts      int `yaml:"retry_attempts"`
	RetryBackoffMillis int `yaml:"retry_backoff_ms"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Model.Path = expandPath(cfg.Model.Path, configDir)

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
