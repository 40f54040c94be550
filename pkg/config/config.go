package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the listing scraper
type Config struct {
	// Page fetching
	Fetch FetchConfig `yaml:"fetch" json:"fetch"`

	// Retry policy for page fetches
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Media download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Walk settings
	Scrape ScrapeConfig `yaml:"scrape" json:"scrape"`

	// Item template selectors
	Template TemplateConfig `yaml:"template" json:"template"`

	// Batch driver settings
	Batch BatchConfig `yaml:"batch" json:"batch"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// FetchConfig holds the client configuration used for listing pages
type FetchConfig struct {
	UserAgent string            `yaml:"user_agent" json:"user_agent"`
	Headers   map[string]string `yaml:"headers" json:"headers"`
	Timeout   time.Duration     `yaml:"timeout" json:"timeout"`
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	Enabled      bool          `yaml:"enabled" json:"enabled"`
	MaxAttempts  int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay    time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" json:"multiplier"`
	JitterFactor float64       `yaml:"jitter_factor" json:"jitter_factor"`
}

// DownloadConfig holds media download configuration
type DownloadConfig struct {
	DownloadTimeout   time.Duration `yaml:"download_timeout" json:"download_timeout"`
	RetryAttempts     int           `yaml:"retry_attempts" json:"retry_attempts"`
	AllowedExtensions []string      `yaml:"allowed_extensions" json:"allowed_extensions"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// ItemDelay is the blocking pause after every processed item block
	ItemDelay time.Duration `yaml:"item_delay" json:"item_delay"`
	// RequestsPerMinute caps listing page requests (0 disables)
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	Replace       bool   `yaml:"replace" json:"replace"`
}

// ScrapeConfig holds pagination walk configuration
type ScrapeConfig struct {
	TargetCount     int    `yaml:"target_count" json:"target_count"`
	CheckpointEvery int    `yaml:"checkpoint_every" json:"checkpoint_every"`
	Resume          bool   `yaml:"resume" json:"resume"`
	Shard           string `yaml:"shard" json:"shard"`
}

// TemplateConfig holds the CSS selectors of the versioned item template
type TemplateConfig struct {
	Version    string `yaml:"version" json:"version"`
	Item       string `yaml:"item" json:"item"`
	Media      string `yaml:"media" json:"media"`
	Title      string `yaml:"title" json:"title"`
	Engagement string `yaml:"engagement" json:"engagement"`
	Author     string `yaml:"author" json:"author"`
	Next       string `yaml:"next" json:"next"`
	// RelNext also accepts a rel="next" link when the Next selector misses
	RelNext bool `yaml:"rel_next" json:"rel_next"`
}

// BatchConfig holds batch driver configuration
type BatchConfig struct {
	URLTemplate string `yaml:"url_template" json:"url_template"`
	Concurrency int    `yaml:"concurrency" json:"concurrency"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Fetch: FetchConfig{
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			Headers: map[string]string{
				"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
				"Accept-Language": "en-US,en;q=0.9",
			},
			Timeout: 30 * time.Second,
		},
		Retry: RetryConfig{
			Enabled:      true,
			MaxAttempts:  3,
			BaseDelay:    1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		Download: DownloadConfig{
			DownloadTimeout:   30 * time.Second,
			RetryAttempts:     3,
			AllowedExtensions: []string{"jpg", "png", "gif"},
		},
		RateLimit: RateLimitConfig{
			ItemDelay:         2 * time.Second,
			RequestsPerMinute: 30,
		},
		Output: OutputConfig{
			BaseDirectory: "./scrape",
			Replace:       false,
		},
		Scrape: ScrapeConfig{
			TargetCount:     10,
			CheckpointEvery: 10,
		},
		Template: TemplateConfig{
			Version:    "imgflip-2020",
			Item:       ".base-unit",
			Media:      "img.base-img",
			Title:      ".base-unit-title",
			Engagement: ".base-view-cnt",
			Author:     ".u-username",
			Next:       "a.pager-next",
		},
		Batch: BatchConfig{
			URLTemplate: "https://imgflip.com/meme/{code}",
			Concurrency: 1,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if userAgent := os.Getenv("IFSCRAPER_USER_AGENT"); userAgent != "" {
		c.Fetch.UserAgent = userAgent
	}

	if outputDir := os.Getenv("IFSCRAPER_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}

	if delay := os.Getenv("IFSCRAPER_ITEM_DELAY"); delay != "" {
		d, err := time.ParseDuration(delay)
		if err != nil {
			return fmt.Errorf("invalid IFSCRAPER_ITEM_DELAY: %w", err)
		}
		c.RateLimit.ItemDelay = d
	}

	if rpm := os.Getenv("IFSCRAPER_REQUESTS_PER_MINUTE"); rpm != "" {
		val, err := strconv.Atoi(rpm)
		if err != nil {
			return fmt.Errorf("invalid IFSCRAPER_REQUESTS_PER_MINUTE: %w", err)
		}
		c.RateLimit.RequestsPerMinute = val
	}

	if target := os.Getenv("IFSCRAPER_TARGET_COUNT"); target != "" {
		val, err := strconv.Atoi(target)
		if err != nil {
			return fmt.Errorf("invalid IFSCRAPER_TARGET_COUNT: %w", err)
		}
		c.Scrape.TargetCount = val
	}

	if concurrency := os.Getenv("IFSCRAPER_BATCH_CONCURRENCY"); concurrency != "" {
		val, err := strconv.Atoi(concurrency)
		if err != nil {
			return fmt.Errorf("invalid IFSCRAPER_BATCH_CONCURRENCY: %w", err)
		}
		c.Batch.Concurrency = val
	}

	if replace := os.Getenv("IFSCRAPER_REPLACE"); replace != "" {
		c.Output.Replace = strings.ToLower(replace) == "true"
	}

	if logLevel := os.Getenv("IFSCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".ifscraper.yaml",
		".ifscraper.yml",
		filepath.Join(home, ".config", "ifscraper", "config.yaml"),
		filepath.Join(home, ".config", "ifscraper", "config.yml"),
		filepath.Join(home, ".ifscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Fetch.Timeout <= 0 {
		errs = append(errs, errors.New("fetch timeout must be positive"))
	}
	if c.Retry.Enabled && c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("retry max attempts must be positive when retry is enabled"))
	}
	if c.Download.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.RetryAttempts < 0 {
		errs = append(errs, errors.New("download retry attempts cannot be negative"))
	}
	if len(c.Download.AllowedExtensions) == 0 {
		errs = append(errs, errors.New("at least one allowed media extension is required"))
	}
	if c.RateLimit.ItemDelay < 0 {
		errs = append(errs, errors.New("item delay cannot be negative"))
	}
	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Scrape.TargetCount <= 0 {
		errs = append(errs, errors.New("target count must be positive"))
	}
	if c.Scrape.CheckpointEvery <= 0 {
		errs = append(errs, errors.New("checkpoint interval must be positive"))
	}
	if c.Template.Item == "" || c.Template.Media == "" {
		errs = append(errs, errors.New("template item and media selectors are required"))
	}
	if !strings.Contains(c.Batch.URLTemplate, "{code}") {
		errs = append(errs, errors.New("batch url template must contain {code}"))
	}
	if c.Batch.Concurrency <= 0 {
		errs = append(errs, errors.New("batch concurrency must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if num, ok := flags["num"].(int); ok && num > 0 {
		c.Scrape.TargetCount = num
	}
	if replace, ok := flags["replace"].(bool); ok {
		c.Output.Replace = replace
	}
	if resume, ok := flags["resume"].(bool); ok {
		c.Scrape.Resume = resume
	}
	if shard, ok := flags["shard"].(string); ok {
		c.Scrape.Shard = shard
	}
	if delay, ok := flags["delay"].(time.Duration); ok && delay >= 0 {
		c.RateLimit.ItemDelay = delay
	}
	if concurrency, ok := flags["concurrency"].(int); ok && concurrency > 0 {
		c.Batch.Concurrency = concurrency
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".ifscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
