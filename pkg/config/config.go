// Package config defines the YAML configuration tree for the ingestion
// pipeline: LLM providers, the job queue, the analysis cache, extraction
// limits, file storage and the job store.
package config

import (
	"fmt"
	"os"
	"time"
)

// LLMProvider identifies the LLM provider type.
type LLMProvider string

const (
	LLMProviderAnthropic LLMProvider = "anthropic"
	LLMProviderOpenAI    LLMProvider = "openai"
	LLMProviderGemini    LLMProvider = "gemini"
)

// LLMConfig configures a single LLM provider.
type LLMConfig struct {
	// Provider type (anthropic, openai, gemini).
	Provider LLMProvider `yaml:"provider,omitempty"`

	// Model name (e.g., "claude-sonnet-4-20250514", "gpt-4o").
	Model string `yaml:"model,omitempty"`

	// APIKey for authentication. Supports ${VAR} expansion.
	APIKey string `yaml:"api_key,omitempty"`

	// BaseURL overrides the default API endpoint.
	BaseURL string `yaml:"base_url,omitempty"`

	// Temperature for generation.
	Temperature *float64 `yaml:"temperature,omitempty"`

	// MaxTokens limits response length.
	MaxTokens int `yaml:"max_tokens,omitempty"`

	// Timeout for a single model call.
	Timeout Duration `yaml:"timeout,omitempty"`

	// MaxRetries for transient HTTP failures inside the client.
	MaxRetries int `yaml:"max_retries,omitempty"`

	// RetryDelay is the base delay between HTTP retries.
	RetryDelay Duration `yaml:"retry_delay,omitempty"`
}

// SetDefaults applies defaults for unset fields.
func (c *LLMConfig) SetDefaults() {
	if c.Provider == "" {
		c.Provider = LLMProviderAnthropic
	}
	if c.Model == "" {
		switch c.Provider {
		case LLMProviderAnthropic:
			c.Model = "claude-sonnet-4-20250514"
		case LLMProviderOpenAI:
			c.Model = "gpt-4o"
		case LLMProviderGemini:
			c.Model = "gemini-2.0-flash"
		}
	}
	if c.APIKey == "" {
		c.APIKey = apiKeyFromEnv(c.Provider)
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 4096
	}
	if c.Timeout == 0 {
		c.Timeout = Duration(120 * time.Second)
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = Duration(2 * time.Second)
	}
}

// Validate checks the provider configuration. Credentials are not
// required here: commands that never touch a model must work without
// them, so the API key is checked when a provider is constructed.
func (c *LLMConfig) Validate() error {
	switch c.Provider {
	case LLMProviderAnthropic, LLMProviderOpenAI, LLMProviderGemini:
	default:
		return fmt.Errorf("unknown LLM provider: %s", c.Provider)
	}
	return nil
}

func apiKeyFromEnv(provider LLMProvider) string {
	switch provider {
	case LLMProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case LLMProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case LLMProviderGemini:
		return os.Getenv("GEMINI_API_KEY")
	}
	return ""
}

// QueueConfig configures the job queue and runner.
type QueueConfig struct {
	// Workers is the number of concurrent worker goroutines.
	Workers int `yaml:"workers,omitempty"`

	// Size is the queue channel capacity.
	Size int `yaml:"size,omitempty"`

	// MaxRetries before a job becomes terminally failed.
	MaxRetries int `yaml:"max_retries,omitempty"`

	// RetryBackoff is the base delay before a retried job is requeued.
	RetryBackoff Duration `yaml:"retry_backoff,omitempty"`

	// ShutdownTimeout bounds the graceful shutdown grace period.
	ShutdownTimeout Duration `yaml:"shutdown_timeout,omitempty"`
}

func (c *QueueConfig) SetDefaults() {
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.Size == 0 {
		c.Size = 256
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = Duration(500 * time.Millisecond)
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = Duration(30 * time.Second)
	}
}

func (c *QueueConfig) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("queue workers must be >= 1, got %d", c.Workers)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("queue max_retries must be >= 0, got %d", c.MaxRetries)
	}
	return nil
}

// CacheConfig configures the analysis cache.
type CacheConfig struct {
	// Enabled toggles result memoization.
	Enabled *bool `yaml:"enabled,omitempty"`

	// TTL is the validity window of a cache entry.
	TTL Duration `yaml:"ttl,omitempty"`

	// MaxEntries caps the cache size; oldest entries are evicted.
	MaxEntries int `yaml:"max_entries,omitempty"`
}

func (c *CacheConfig) SetDefaults() {
	if c.Enabled == nil {
		c.Enabled = BoolPtr(true)
	}
	if c.TTL == 0 {
		c.TTL = Duration(30 * time.Minute)
	}
	if c.MaxEntries == 0 {
		c.MaxEntries = 512
	}
}

// ExtractionConfig configures content extraction.
type ExtractionConfig struct {
	// MaxFileSize in bytes; larger files are rejected as an extraction error.
	MaxFileSize int64 `yaml:"max_file_size,omitempty"`

	// TokenBudget caps how much extracted text is fed to the model.
	TokenBudget int `yaml:"token_budget,omitempty"`
}

func (c *ExtractionConfig) SetDefaults() {
	if c.MaxFileSize == 0 {
		c.MaxFileSize = 50 * 1024 * 1024
	}
	if c.TokenBudget == 0 {
		c.TokenBudget = 8000
	}
}

// StorageBackend identifies where uploaded file payloads live.
type StorageBackend string

const (
	StorageBackendLocal StorageBackend = "local"
	StorageBackendS3    StorageBackend = "s3"
)

// StorageConfig configures the upload payload store.
type StorageConfig struct {
	Backend StorageBackend `yaml:"backend,omitempty"`

	// Local directory root (backend: local).
	Path string `yaml:"path,omitempty"`

	// S3-compatible settings (backend: s3).
	Endpoint  string `yaml:"endpoint,omitempty"`
	Bucket    string `yaml:"bucket,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	UseSSL    *bool  `yaml:"use_ssl,omitempty"`
}

func (c *StorageConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = StorageBackendLocal
	}
	if c.Path == "" {
		c.Path = "./uploads"
	}
	if c.UseSSL == nil {
		c.UseSSL = BoolPtr(true)
	}
}

func (c *StorageConfig) Validate() error {
	switch c.Backend {
	case StorageBackendLocal:
	case StorageBackendS3:
		if c.Endpoint == "" || c.Bucket == "" {
			return fmt.Errorf("s3 storage requires endpoint and bucket")
		}
	default:
		return fmt.Errorf("unknown storage backend: %s", c.Backend)
	}
	return nil
}

// JobStoreConfig configures job status persistence.
type JobStoreConfig struct {
	// Backend: "memory" (default) or "sql".
	Backend string `yaml:"backend,omitempty"`

	// Driver: "sqlite", "postgres" or "mysql" (backend: sql).
	Driver string `yaml:"driver,omitempty"`

	// DSN is the driver-specific connection string.
	DSN string `yaml:"dsn,omitempty"`

	MaxConns int `yaml:"max_conns,omitempty"`
	MaxIdle  int `yaml:"max_idle,omitempty"`
}

func (c *JobStoreConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.MaxConns == 0 {
		c.MaxConns = 10
	}
	if c.MaxIdle == 0 {
		c.MaxIdle = 2
	}
}

func (c *JobStoreConfig) IsSQL() bool {
	return c.Backend == "sql"
}

func (c *JobStoreConfig) Validate() error {
	if !c.IsSQL() {
		if c.Backend != "memory" {
			return fmt.Errorf("unknown job store backend: %s", c.Backend)
		}
		return nil
	}
	switch c.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported job store driver: %s", c.Driver)
	}
	if c.DSN == "" {
		return fmt.Errorf("job store dsn is required for sql backend")
	}
	return nil
}

// LoggingConfig configures the slog logger.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
	File   string `yaml:"file,omitempty"`
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "simple"
	}
}

// Config is the root configuration for the pipeline.
type Config struct {
	LLMs       map[string]*LLMConfig `yaml:"llms,omitempty"`
	DefaultLLM string                `yaml:"default_llm,omitempty"`

	Queue      QueueConfig      `yaml:"queue,omitempty"`
	Cache      CacheConfig      `yaml:"cache,omitempty"`
	Extraction ExtractionConfig `yaml:"extraction,omitempty"`
	Storage    StorageConfig    `yaml:"storage,omitempty"`
	JobStore   JobStoreConfig   `yaml:"job_store,omitempty"`
	Logging    LoggingConfig    `yaml:"logging,omitempty"`
}

// SetDefaults applies defaults across the whole tree.
func (c *Config) SetDefaults() {
	if c.LLMs == nil {
		c.LLMs = map[string]*LLMConfig{}
	}
	if len(c.LLMs) == 0 {
		c.LLMs["default"] = &LLMConfig{}
	}
	for _, llm := range c.LLMs {
		llm.SetDefaults()
	}
	if c.DefaultLLM == "" {
		for name := range c.LLMs {
			c.DefaultLLM = name
			break
		}
		if _, ok := c.LLMs["default"]; ok {
			c.DefaultLLM = "default"
		}
	}
	c.Queue.SetDefaults()
	c.Cache.SetDefaults()
	c.Extraction.SetDefaults()
	c.Storage.SetDefaults()
	c.JobStore.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks the whole tree.
func (c *Config) Validate() error {
	for name, llm := range c.LLMs {
		if err := llm.Validate(); err != nil {
			return fmt.Errorf("llm %q: %w", name, err)
		}
	}
	if _, ok := c.LLMs[c.DefaultLLM]; !ok {
		return fmt.Errorf("default_llm %q is not defined", c.DefaultLLM)
	}
	if err := c.Queue.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.JobStore.Validate(); err != nil {
		return err
	}
	return nil
}
