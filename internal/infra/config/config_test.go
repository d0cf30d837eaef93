package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Run.MaxCandidates != 5 {
		t.Errorf("MaxCandidates = %d, want 5", cfg.Run.MaxCandidates)
	}
	if cfg.Run.Concurrency <= 0 {
		t.Errorf("Concurrency = %d, want > 0", cfg.Run.Concurrency)
	}
	if cfg.Search.Backend != "duckduckgo" {
		t.Errorf("Search.Backend = %q, want %q", cfg.Search.Backend, "duckduckgo")
	}
	if cfg.LLM.DefaultProvider != "ollama" {
		t.Errorf("DefaultProvider = %q, want %q", cfg.LLM.DefaultProvider, "ollama")
	}
	if cfg.Logger.Level != "info" {
		t.Errorf("Logger.Level = %q, want %q", cfg.Logger.Level, "info")
	}
}

func TestDefaultsAreValid(t *testing.T) {
	if err := Validate(Defaults()); err != nil {
		t.Errorf("Validate(Defaults()): %v", err)
	}
}

func TestLoadNonExistentReturnsDefaults(t *testing.T) {
	cfg, err := Load("/tmp/nonexistent-config-12345.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Run.MaxCandidates != 5 {
		t.Errorf("expected defaults, got MaxCandidates=%d", cfg.Run.MaxCandidates)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
run:
  max_candidates: 8
  page_timeout: 45s
search:
  backend: "searxng"
  searxng_url: "http://search.local:6060"
llm:
  default_provider: "openai"
  providers:
    - name: "openai"
      type: "openai"
      base_url: "https://api.openai.com/v1"
      api_key: "test-key"
      model: "gpt-4o-mini"
logger:
  level: "debug"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Run.MaxCandidates != 8 {
		t.Errorf("MaxCandidates = %d, want 8", cfg.Run.MaxCandidates)
	}
	if cfg.Run.PageTimeout != 45*time.Second {
		t.Errorf("PageTimeout = %v, want 45s", cfg.Run.PageTimeout)
	}
	if cfg.Search.Backend != "searxng" {
		t.Errorf("Search.Backend = %q, want %q", cfg.Search.Backend, "searxng")
	}
	if len(cfg.LLM.Providers) != 1 || cfg.LLM.Providers[0].APIKey != "test-key" {
		t.Errorf("Providers mismatch: %+v", cfg.LLM.Providers)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("run: [not a map"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("WEBMIND_SEARCH_BACKEND", "searxng")
	t.Setenv("WEBMIND_LOGGER_LEVEL", "debug")
	t.Setenv("WEBMIND_RUN_MAX_CANDIDATES", "9")
	t.Setenv("WEBMIND_RUN_PAGE_TIMEOUT", "20s")

	cfg := Defaults()
	ApplyEnvOverrides(cfg)

	if cfg.Search.Backend != "searxng" {
		t.Errorf("Search.Backend = %q, want %q", cfg.Search.Backend, "searxng")
	}
	if cfg.Logger.Level != "debug" {
		t.Errorf("Logger.Level = %q, want %q", cfg.Logger.Level, "debug")
	}
	if cfg.Run.MaxCandidates != 9 {
		t.Errorf("MaxCandidates = %d, want 9", cfg.Run.MaxCandidates)
	}
	if cfg.Run.PageTimeout != 20*time.Second {
		t.Errorf("PageTimeout = %v, want 20s", cfg.Run.PageTimeout)
	}
}

func TestEnvOverrideProviderAPIKey(t *testing.T) {
	t.Setenv("WEBMIND_LLM_PROVIDER_OLLAMA_API_KEY", "from-env")
	t.Setenv("WEBMIND_LLM_PROVIDER_OLLAMA_MODEL", "qwen2.5")

	cfg := Defaults()
	ApplyEnvOverrides(cfg)

	if cfg.LLM.Providers[0].APIKey != "from-env" {
		t.Errorf("APIKey = %q, want %q", cfg.LLM.Providers[0].APIKey, "from-env")
	}
	if cfg.LLM.Providers[0].Model != "qwen2.5" {
		t.Errorf("Model = %q, want %q", cfg.LLM.Providers[0].Model, "qwen2.5")
	}
}

func TestEnvOverrideInvalidNumberIgnored(t *testing.T) {
	t.Setenv("WEBMIND_RUN_MAX_CANDIDATES", "not-a-number")

	cfg := Defaults()
	ApplyEnvOverrides(cfg)

	if cfg.Run.MaxCandidates != 5 {
		t.Errorf("MaxCandidates = %d, want default 5", cfg.Run.MaxCandidates)
	}
}

func TestValidatePermissionsOK(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := validatePermissions(path); err != nil {
		t.Errorf("validatePermissions: %v", err)
	}
}

func TestValidatePermissionsWorldWritable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0666); err != nil {
		t.Fatal(err)
	}
	// umask may already strip the write bits; force them.
	if err := os.Chmod(path, 0666); err != nil {
		t.Fatal(err)
	}
	if err := validatePermissions(path); err == nil {
		t.Error("expected error for world-writable config")
	}
}

func TestValidatePermissionsStatError(t *testing.T) {
	if err := validatePermissions("/tmp/nonexistent-file-for-stat-test-xyz.yaml"); err == nil {
		t.Error("expected stat error")
	}
}
