package domain

import "context"

// LLMProvider is the interface for any LLM backend.
type LLMProvider interface {
	// Chat sends a request and returns a complete response.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	// Name returns the provider's identifier (e.g., "ollama", "openai").
	Name() string
}

// SearchProvider turns a natural-language query into ranked candidate URLs.
// Implementations return at most limit URLs, best first. An empty slice
// with a nil error is a valid "nothing found" result.
type SearchProvider interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
	Name() string
}

// PageFetcher retrieves one page's content. A non-OK PageContent with a
// nil error means the page was reached but yielded nothing usable; a
// non-nil error means the fetch itself failed.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*PageContent, error)
}

// ContentNormalizer turns a page's raw text into bounded clean text.
// Pure transformation: no network or model access, never fails; a page
// that strips to nothing comes back with an empty CleanText.
type ContentNormalizer interface {
	Normalize(pc *PageContent)
}

// AnswerExtractor judges whether the given page content answers the
// query and, if so, extracts the answer.
type AnswerExtractor interface {
	Extract(ctx context.Context, query string, content *PageContent) (*VerdictPayload, error)
}

// TokenCounter estimates how many model tokens a string consumes, used
// to bound page content to the model's context window.
type TokenCounter interface {
	Count(text string) int
}
