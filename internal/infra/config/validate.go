package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...interface{}) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg for structural correctness. It returns a *ValidationError
// when one or more problems are found, allowing callers to inspect all issues.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateRun(cfg, ve)
	validateSearch(cfg, ve)
	validateFetch(cfg, ve)
	validateExtract(cfg, ve)
	validateLLM(cfg, ve)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateRun(cfg *Config, ve *ValidationError) {
	if cfg.Run.MaxCandidates <= 0 {
		ve.Add("run.max_candidates must be > 0")
	}
	if cfg.Run.Concurrency <= 0 {
		ve.Add("run.concurrency must be > 0")
	}
	if cfg.Run.Timeout <= 0 {
		ve.Add("run.timeout must be > 0")
	}
	if cfg.Run.SearchTimeout <= 0 {
		ve.Add("run.search_timeout must be > 0")
	}
	if cfg.Run.PageTimeout <= 0 {
		ve.Add("run.page_timeout must be > 0")
	}
	if cfg.Run.ExtractTimeout <= 0 {
		ve.Add("run.extract_timeout must be > 0")
	}
	if cfg.Run.SearchTimeout > cfg.Run.Timeout {
		ve.Add("run.search_timeout must not exceed run.timeout")
	}
}

var validSearchBackends = map[string]bool{
	"searxng":    true,
	"duckduckgo": true,
}

func validateSearch(cfg *Config, ve *ValidationError) {
	if !validSearchBackends[cfg.Search.Backend] {
		ve.Add("search.backend %q is invalid (want: searxng, duckduckgo)", cfg.Search.Backend)
	}
	if cfg.Search.Backend == "searxng" {
		u, err := url.Parse(cfg.Search.SearXNGURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			ve.Add("search.searxng_url %q is not a valid URL", cfg.Search.SearXNGURL)
		}
	}
	if cfg.Search.RatePerSecond < 0 {
		ve.Add("search.rate_per_second must be >= 0")
	}
}

func validateFetch(cfg *Config, ve *ValidationError) {
	if cfg.Fetch.MaxBodyBytes <= 0 {
		ve.Add("fetch.max_body_bytes must be > 0")
	}
	if cfg.Fetch.MinContentLength < 0 {
		ve.Add("fetch.min_content_length must be >= 0")
	}
	if cfg.Fetch.BrowserEnabled && cfg.Fetch.BrowserTimeout <= 0 {
		ve.Add("fetch.browser_timeout must be > 0 when the browser is enabled")
	}
}

func validateExtract(cfg *Config, ve *ValidationError) {
	if cfg.Extract.MaxContextTokens <= 0 {
		ve.Add("extract.max_context_tokens must be > 0")
	}
	if cfg.Extract.ReserveTokens < 0 {
		ve.Add("extract.reserve_tokens must be >= 0")
	}
	if cfg.Extract.ReserveTokens >= cfg.Extract.MaxContextTokens {
		ve.Add("extract.reserve_tokens must be less than extract.max_context_tokens")
	}
	if cfg.Extract.Temperature < 0 || cfg.Extract.Temperature > 2 {
		ve.Add("extract.temperature must be in [0, 2]")
	}
}

var validProviderTypes = map[string]bool{
	"openai": true,
	"ollama": true,
}

func validateLLM(cfg *Config, ve *ValidationError) {
	if cfg.LLM.DefaultProvider == "" {
		ve.Add("llm.default_provider must not be empty")
	}

	if len(cfg.LLM.Providers) == 0 {
		return
	}

	seen := make(map[string]bool)
	foundDefault := false
	for i, p := range cfg.LLM.Providers {
		if p.Name == "" {
			ve.Add("llm.providers[%d].name must not be empty", i)
			continue
		}
		if seen[p.Name] {
			ve.Add("llm.providers[%d]: duplicate provider name %q", i, p.Name)
		}
		seen[p.Name] = true

		if p.Type != "" && !validProviderTypes[p.Type] {
			ve.Add("llm.providers[%d].type %q is invalid (want: openai, ollama)", i, p.Type)
		}
		if p.APIKey == "" && p.Type == "openai" {
			ve.Add("llm.providers[%d] (%s): api_key is empty (set via WEBMIND_LLM_PROVIDER_%s_API_KEY)",
				i, p.Name, strings.ToUpper(p.Name))
		}
		if p.Model == "" {
			ve.Add("llm.providers[%d] (%s): model must not be empty", i, p.Name)
		}
		if p.Name == cfg.LLM.DefaultProvider {
			foundDefault = true
		}
	}

	if !foundDefault && cfg.LLM.DefaultProvider != "" {
		ve.Add("llm.default_provider %q does not match any configured provider", cfg.LLM.DefaultProvider)
	}

	if cfg.LLM.CircuitBreaker.Enabled {
		if cfg.LLM.CircuitBreaker.MaxFailures == 0 {
			ve.Add("llm.circuit_breaker.max_failures must be > 0 when enabled")
		}
		if cfg.LLM.CircuitBreaker.Timeout <= 0 {
			ve.Add("llm.circuit_breaker.timeout must be > 0 when enabled")
		}
	}
}
