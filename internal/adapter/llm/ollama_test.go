package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Burhanuddin-2001/WebMind/internal/domain"
	"github.com/Burhanuddin-2001/WebMind/internal/infra/config"
)

func newOllamaProvider(t *testing.T, handler http.HandlerFunc) *OllamaProvider {
	t.Helper()
	server := newChatServer(t, handler)
	return NewOllamaProvider(config.ProviderConfig{
		Name:    "ollama",
		BaseURL: server.URL,
		Model:   "llama3.1",
	}, newTestLogger())
}

func TestOllamaChatDelegatesToOpenAICompatibleEndpoint(t *testing.T) {
	provider := newOllamaProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s, want /v1/chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("ollama request should carry no auth header, got %q", got)
		}

		var req openaiRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "llama3.1" {
			t.Errorf("model = %q, want llama3.1", req.Model)
		}

		json.NewEncoder(w).Encode(openaiResponse{
			ID:    "resp-1",
			Model: "llama3.1",
			Choices: []openaiChoice{
				{Message: openaiMessage{Role: "assistant", Content: "Insufficient context"}},
			},
		})
	})

	resp, err := provider.Chat(context.Background(), domain.ChatRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "q"}},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Message.Content != "Insufficient context" {
		t.Errorf("Content = %q", resp.Message.Content)
	}
}

func TestOllamaListModels(t *testing.T) {
	provider := newOllamaProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path = %s, want /api/tags", r.URL.Path)
		}
		w.Write([]byte(`{"models":[{"name":"llama3.1","size":4000000000},{"name":"qwen2.5","size":5000000000}]}`))
	})

	models, err := provider.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("len(models) = %d, want 2", len(models))
	}
	if models[0].Name != "llama3.1" {
		t.Errorf("models[0].Name = %q", models[0].Name)
	}
}

func TestOllamaListModelsServerError(t *testing.T) {
	provider := newOllamaProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := provider.ListModels(context.Background()); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestOllamaIsHealthy(t *testing.T) {
	provider := newOllamaProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if !provider.IsHealthy(context.Background()) {
		t.Error("expected healthy")
	}
}

func TestOllamaIsHealthyUnreachable(t *testing.T) {
	provider := NewOllamaProvider(config.ProviderConfig{
		Name:    "ollama",
		BaseURL: "http://127.0.0.1:1", // nothing listens here
		Model:   "llama3.1",
	}, newTestLogger())

	if provider.IsHealthy(context.Background()) {
		t.Error("expected unhealthy for unreachable server")
	}
}

func TestOllamaWarmup(t *testing.T) {
	var warmed bool
	provider := newOllamaProvider(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.WriteHeader(http.StatusOK)
		case "/api/generate":
			var payload struct {
				Model     string `json:"model"`
				KeepAlive string `json:"keep_alive"`
			}
			json.NewDecoder(r.Body).Decode(&payload)
			if payload.Model != "llama3.1" {
				t.Errorf("warmup model = %q", payload.Model)
			}
			warmed = true
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	})

	if err := provider.Warmup(context.Background()); err != nil {
		t.Fatalf("Warmup: %v", err)
	}
	if !warmed {
		t.Error("expected generate endpoint to be called")
	}
}

func TestOllamaWarmupUnreachable(t *testing.T) {
	provider := NewOllamaProvider(config.ProviderConfig{
		Name:    "ollama",
		BaseURL: "http://127.0.0.1:1",
		Model:   "llama3.1",
	}, newTestLogger())

	if err := provider.Warmup(context.Background()); err == nil {
		t.Error("expected error for unreachable server")
	}
}

func TestOllamaName(t *testing.T) {
	provider := NewOllamaProvider(config.ProviderConfig{Name: "local-ollama", Model: "m"}, newTestLogger())
	if provider.Name() != "local-ollama" {
		t.Errorf("Name = %q", provider.Name())
	}
}

func TestOllamaBaseURLDefault(t *testing.T) {
	provider := NewOllamaProvider(config.ProviderConfig{Name: "ollama", Model: "m"}, newTestLogger())
	if provider.baseURL != "http://localhost:11434" {
		t.Errorf("baseURL = %q", provider.baseURL)
	}
	if provider.inner.baseURL != "http://localhost:11434/v1" {
		t.Errorf("inner baseURL = %q", provider.inner.baseURL)
	}
}
