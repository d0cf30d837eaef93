package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Run     RunConfig     `yaml:"run"`
	Search  SearchConfig  `yaml:"search"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Extract ExtractConfig `yaml:"extract"`
	LLM     LLMConfig     `yaml:"llm"`
	Logger  LoggerConfig  `yaml:"logger"`
	Tracer  TracerConfig  `yaml:"tracer"`
}

// RunConfig holds orchestration settings for a single query run.
type RunConfig struct {
	MaxCandidates  int           `yaml:"max_candidates"`  // search results to attempt, default 5
	Concurrency    int           `yaml:"concurrency"`     // parallel page pipelines, default NumCPU capped at 4
	Timeout        time.Duration `yaml:"timeout"`         // whole-run deadline
	SearchTimeout  time.Duration `yaml:"search_timeout"`  // search stage deadline
	PageTimeout    time.Duration `yaml:"page_timeout"`    // per-candidate fetch+normalize deadline
	ExtractTimeout time.Duration `yaml:"extract_timeout"` // per-candidate LLM extraction deadline
}

// SearchConfig holds search provider settings.
type SearchConfig struct {
	Backend       string        `yaml:"backend"` // "searxng" or "duckduckgo"
	SearXNGURL    string        `yaml:"searxng_url"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
	RatePerSecond float64       `yaml:"rate_per_second"` // outbound request rate limit
	RateBurst     int           `yaml:"rate_burst"`
}

// FetchConfig holds page acquisition settings.
type FetchConfig struct {
	UserAgent         string        `yaml:"user_agent"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes"`
	MinContentLength  int           `yaml:"min_content_length"` // below this, escalate to the browser
	BrowserEnabled    bool          `yaml:"browser_enabled"`
	BrowserCDPURL     string        `yaml:"browser_cdp_url"` // attach to a running Chrome instead of launching
	BrowserHeadless   bool          `yaml:"browser_headless"`
	BrowserTimeout    time.Duration `yaml:"browser_timeout"`
	BlockPrivateHosts bool          `yaml:"block_private_hosts"` // refuse URLs resolving to private/reserved IPs
}

// ExtractConfig holds answer extraction settings.
type ExtractConfig struct {
	MaxContextTokens int     `yaml:"max_context_tokens"` // model context window
	ReserveTokens    int     `yaml:"reserve_tokens"`     // held back for prompt + completion
	Encoding         string  `yaml:"encoding"`           // tiktoken encoding name
	Temperature      float64 `yaml:"temperature"`
}

// LLMConfig holds LLM provider settings.
type LLMConfig struct {
	DefaultProvider string               `yaml:"default_provider"`
	Providers       []ProviderConfig     `yaml:"providers"`
	CircuitBreaker  CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// CircuitBreakerConfig holds circuit breaker settings for LLM providers.
type CircuitBreakerConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxFailures uint32        `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
	Interval    time.Duration `yaml:"interval"`
}

// PoolConfig holds HTTP connection pool settings for LLM providers.
type PoolConfig struct {
	MaxIdleConns        int           `yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `yaml:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout"`
}

// ProviderConfig holds settings for a single LLM provider.
type ProviderConfig struct {
	Name        string        `yaml:"name"`
	Type        string        `yaml:"type"` // "openai" or "ollama"
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	ConnTimeout time.Duration `yaml:"conn_timeout"`
	RespTimeout time.Duration `yaml:"resp_timeout"`
	Pool        PoolConfig    `yaml:"pool"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// TracerConfig holds tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
	Endpoint string `yaml:"endpoint"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	concurrency := runtime.NumCPU()
	if concurrency > 4 {
		concurrency = 4
	}
	return &Config{
		Run: RunConfig{
			MaxCandidates:  5,
			Concurrency:    concurrency,
			Timeout:        180 * time.Second,
			SearchTimeout:  15 * time.Second,
			PageTimeout:    30 * time.Second,
			ExtractTimeout: 60 * time.Second,
		},
		Search: SearchConfig{
			Backend:       "duckduckgo",
			SearXNGURL:    "http://localhost:6060",
			CacheTTL:      15 * time.Minute,
			RatePerSecond: 1,
			RateBurst:     2,
		},
		Fetch: FetchConfig{
			UserAgent:         "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
			MaxBodyBytes:      4 * 1024 * 1024, // 4 MiB
			MinContentLength:  200,
			BrowserEnabled:    false,
			BrowserHeadless:   true,
			BrowserTimeout:    30 * time.Second,
			BlockPrivateHosts: true,
		},
		Extract: ExtractConfig{
			MaxContextTokens: 8192,
			ReserveTokens:    1024,
			Encoding:         "cl100k_base",
			Temperature:      0,
		},
		LLM: LLMConfig{
			DefaultProvider: "ollama",
			Providers: []ProviderConfig{
				{
					Name:    "ollama",
					Type:    "ollama",
					BaseURL: "http://localhost:11434",
					Model:   "llama3.1",
				},
			},
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:     true,
				MaxFailures: 5,
				Timeout:     30 * time.Second,
				Interval:    60 * time.Second,
			},
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "noop",
		},
	}
}

// Load reads a YAML config file and applies env var overrides.
// A missing file is not an error: defaults plus env overrides are returned.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			ApplyEnvOverrides(cfg)
			if err := Validate(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	if err := validatePermissions(absPath); err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnvOverrides maps WEBMIND_* env vars to config fields.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WEBMIND_RUN_MAX_CANDIDATES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Run.MaxCandidates = n
		}
	}
	if v := os.Getenv("WEBMIND_RUN_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Run.Concurrency = n
		}
	}
	if v := os.Getenv("WEBMIND_RUN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Run.Timeout = d
		}
	}
	if v := os.Getenv("WEBMIND_RUN_SEARCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Run.SearchTimeout = d
		}
	}
	if v := os.Getenv("WEBMIND_RUN_PAGE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Run.PageTimeout = d
		}
	}
	if v := os.Getenv("WEBMIND_RUN_EXTRACT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Run.ExtractTimeout = d
		}
	}
	if v := os.Getenv("WEBMIND_SEARCH_BACKEND"); v != "" {
		cfg.Search.Backend = v
	}
	if v := os.Getenv("WEBMIND_SEARCH_SEARXNG_URL"); v != "" {
		cfg.Search.SearXNGURL = v
	}
	if v := os.Getenv("WEBMIND_SEARCH_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Search.CacheTTL = d
		}
	}
	if v := os.Getenv("WEBMIND_FETCH_USER_AGENT"); v != "" {
		cfg.Fetch.UserAgent = v
	}
	if v := os.Getenv("WEBMIND_FETCH_BLOCK_PRIVATE_HOSTS"); v == "false" {
		cfg.Fetch.BlockPrivateHosts = false
	}
	if v := os.Getenv("WEBMIND_FETCH_BROWSER_ENABLED"); v == "true" {
		cfg.Fetch.BrowserEnabled = true
	}
	if v := os.Getenv("WEBMIND_FETCH_BROWSER_CDP_URL"); v != "" {
		cfg.Fetch.BrowserCDPURL = v
	}
	if v := os.Getenv("WEBMIND_FETCH_BROWSER_HEADLESS"); v == "false" {
		cfg.Fetch.BrowserHeadless = false
	}
	if v := os.Getenv("WEBMIND_FETCH_BROWSER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Fetch.BrowserTimeout = d
		}
	}
	if v := os.Getenv("WEBMIND_EXTRACT_MAX_CONTEXT_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Extract.MaxContextTokens = n
		}
	}
	if v := os.Getenv("WEBMIND_LLM_DEFAULT_PROVIDER"); v != "" {
		cfg.LLM.DefaultProvider = v
	}
	if v := os.Getenv("WEBMIND_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("WEBMIND_LOGGER_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("WEBMIND_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("WEBMIND_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}

	// Per-provider API keys: WEBMIND_LLM_PROVIDER_<NAME>_API_KEY.
	for i := range cfg.LLM.Providers {
		key := "WEBMIND_LLM_PROVIDER_" + strings.ToUpper(cfg.LLM.Providers[i].Name) + "_API_KEY"
		if v := os.Getenv(key); v != "" {
			cfg.LLM.Providers[i].APIKey = v
		}
		model := "WEBMIND_LLM_PROVIDER_" + strings.ToUpper(cfg.LLM.Providers[i].Name) + "_MODEL"
		if v := os.Getenv(model); v != "" {
			cfg.LLM.Providers[i].Model = v
		}
	}
}

// validatePermissions checks the config file has restrictive permissions.
func validatePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}
	mode := info.Mode().Perm()
	// Allow 0600 and 0644 (readable by others but not writable)
	if mode&0o077 > 0o044 {
		return fmt.Errorf("config file %s has insecure permissions %o (want 0600 or 0644)", path, mode)
	}
	return nil
}
