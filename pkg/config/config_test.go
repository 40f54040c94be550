package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Scrape.TargetCount != 10 {
		t.Errorf("Expected default target count to be 10, got %d", config.Scrape.TargetCount)
	}

	if config.Scrape.CheckpointEvery != 10 {
		t.Errorf("Expected default checkpoint interval to be 10, got %d", config.Scrape.CheckpointEvery)
	}

	if config.RateLimit.ItemDelay != 2*time.Second {
		t.Errorf("Expected default item delay to be 2s, got %v", config.RateLimit.ItemDelay)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Expected default config to be valid, got %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("IFSCRAPER_USER_AGENT", "test-agent")
	t.Setenv("IFSCRAPER_OUTPUT_DIR", "/tmp/test-scrape")
	t.Setenv("IFSCRAPER_ITEM_DELAY", "500ms")
	t.Setenv("IFSCRAPER_TARGET_COUNT", "25")
	t.Setenv("IFSCRAPER_BATCH_CONCURRENCY", "4")
	t.Setenv("IFSCRAPER_REPLACE", "true")
	t.Setenv("IFSCRAPER_LOG_LEVEL", "debug")

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	if config.Fetch.UserAgent != "test-agent" {
		t.Errorf("Expected user agent to be test-agent, got %s", config.Fetch.UserAgent)
	}
	if config.Output.BaseDirectory != "/tmp/test-scrape" {
		t.Errorf("Expected output directory to be /tmp/test-scrape, got %s", config.Output.BaseDirectory)
	}
	if config.RateLimit.ItemDelay != 500*time.Millisecond {
		t.Errorf("Expected item delay to be 500ms, got %v", config.RateLimit.ItemDelay)
	}
	if config.Scrape.TargetCount != 25 {
		t.Errorf("Expected target count to be 25, got %d", config.Scrape.TargetCount)
	}
	if config.Batch.Concurrency != 4 {
		t.Errorf("Expected batch concurrency to be 4, got %d", config.Batch.Concurrency)
	}
	if !config.Output.Replace {
		t.Error("Expected replace to be enabled")
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level to be debug, got %s", config.Logging.Level)
	}
}

func TestLoadFromEnvInvalidNumber(t *testing.T) {
	t.Setenv("IFSCRAPER_TARGET_COUNT", "lots")

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err == nil {
		t.Error("Expected error for non-numeric target count")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantError bool
	}{
		{
			name:      "valid config",
			mutate:    func(c *Config) {},
			wantError: false,
		},
		{
			name:      "zero target count",
			mutate:    func(c *Config) { c.Scrape.TargetCount = 0 },
			wantError: true,
		},
		{
			name:      "missing media selector",
			mutate:    func(c *Config) { c.Template.Media = "" },
			wantError: true,
		},
		{
			name:      "url template without placeholder",
			mutate:    func(c *Config) { c.Batch.URLTemplate = "https://imgflip.com/meme/" },
			wantError: true,
		},
		{
			name:      "invalid log level",
			mutate:    func(c *Config) { c.Logging.Level = "invalid" },
			wantError: true,
		},
		{
			name:      "no allowed extensions",
			mutate:    func(c *Config) { c.Download.AllowedExtensions = nil },
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()

	flags := map[string]interface{}{
		"output":    "/flag/output",
		"num":       42,
		"replace":   true,
		"resume":    true,
		"shard":     "7",
		"log-level": "error",
	}

	config.MergeCommandLineFlags(flags)

	if config.Output.BaseDirectory != "/flag/output" {
		t.Errorf("Expected output directory to be /flag/output, got %s", config.Output.BaseDirectory)
	}
	if config.Scrape.TargetCount != 42 {
		t.Errorf("Expected target count to be 42, got %d", config.Scrape.TargetCount)
	}
	if !config.Output.Replace || !config.Scrape.Resume {
		t.Error("Expected replace and resume to be enabled")
	}
	if config.Scrape.Shard != "7" {
		t.Errorf("Expected shard to be 7, got %s", config.Scrape.Shard)
	}
	if config.Logging.Level != "error" {
		t.Errorf("Expected log level to be error, got %s", config.Logging.Level)
	}
}

func TestSaveAndLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.yaml")

	config := DefaultConfig()
	config.Scrape.TargetCount = 250
	config.Template.Version = "imgflip-test"

	if err := config.Save(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("Expected config file to exist: %v", err)
	}

	loaded := DefaultConfig()
	if err := loaded.LoadFromFile(configPath); err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.Scrape.TargetCount != 250 {
		t.Errorf("Expected loaded target count to be 250, got %d", loaded.Scrape.TargetCount)
	}
	if loaded.Template.Version != "imgflip-test" {
		t.Errorf("Expected loaded template version to be imgflip-test, got %s", loaded.Template.Version)
	}
}
