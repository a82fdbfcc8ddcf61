package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
debug: true
server:
  host: 0.0.0.0
  port: 9090
storage:
  database_path: /tmp/gator-test/gator.db
model:
  path: /tmp/gator-test/model
  num_topics: 64
crawler:
  seed_urls:
    - https://example.com/feed1
    - https://example.com/feed2
  rate_limit: 5
  timeout_seconds: 10
pipeline:
  docs_chunk_size: 15
  user_docs_max_size: 50
  dedup_horizon_days: 7
  grading_concurrency: 8
  retry_attempts: 5
  retry_backoff_ms: 100
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Debug {
		t.Error("Debug not parsed")
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9090 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath != "/tmp/gator-test/gator.db" {
		t.Errorf("database path = %q", cfg.Storage.DatabasePath)
	}
	if cfg.Model.Path != "/tmp/gator-test/model" || cfg.Model.NumTopics != 64 {
		t.Errorf("model = %+v", cfg.Model)
	}
	wantSeeds := []string{"https://example.com/feed1", "https://example.com/feed2"}
	if !reflect.DeepEqual(cfg.Crawler.SeedURLs, wantSeeds) {
		t.Errorf("seed urls = %v", cfg.Crawler.SeedURLs)
	}
	if cfg.Crawler.RateLimit != 5 || cfg.Crawler.TimeoutSeconds != 10 {
		t.Errorf("crawler = %+v", cfg.Crawler)
	}
	want := PipelineConfig{
		DocsChunkSize:      15,
		UserDocsMaxSize:    50,
		DedupHorizonDays:   7,
		GradingConcurrency: 8,
		RetryAttempts:      5,
		RetryBackoffMillis: 100,
	}
	if cfg.Pipeline != want {
		t.Errorf("pipeline = %+v, want %+v", cfg.Pipeline, want)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "debug: false\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
	if cfg.Model.NumTopics != 128 {
		t.Errorf("NumTopics default = %d", cfg.Model.NumTopics)
	}
	if cfg.Pipeline.DocsChunkSize != 30 || cfg.Pipeline.UserDocsMaxSize != 100 {
		t.Errorf("pipeline defaults = %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.DedupHorizonDays != 14 {
		t.Errorf("DedupHorizonDays default = %d", cfg.Pipeline.DedupHorizonDays)
	}
	if cfg.Crawler.RateLimit != 2 || cfg.Crawler.TimeoutSeconds != 30 {
		t.Errorf("crawler defaults = %+v", cfg.Crawler)
	}
}

func TestLoadExpandsRelativePaths(t *testing.T) {
	path := writeConfig(t, `
storage:
  database_path: ./data/gator.db
model:
  path: ./models/topicmodel
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	configDir := filepath.Dir(path)
	if want := filepath.Join(configDir, "data/gator.db"); cfg.Storage.DatabasePath != want {
		t.Errorf("database path = %q, want %q", cfg.Storage.DatabasePath, want)
	}
	if want := filepath.Join(configDir, "models/topicmodel"); cfg.Model.Path != want {
		t.Errorf("model path = %q, want %q", cfg.Model.Path, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load on missing file succeeded")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [not: a: mapping\n")
	if _, err := Load(path); err == nil {
		t.Error("Load on malformed yaml succeeded")
	}
}
