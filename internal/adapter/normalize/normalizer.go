// Package normalize turns raw page bytes into bounded plain text ready
// for extraction: markup stripped, whitespace collapsed, and the result
// truncated to the model's context budget.
package normalize

import (
	"log/slog"

	"github.com/Burhanuddin-2001/WebMind/internal/domain"
	"github.com/Burhanuddin-2001/WebMind/internal/infra/config"
)

// Normalizer produces CleanText from fetched pages.
type Normalizer struct {
	counter domain.TokenCounter
	budget  int
	logger  *slog.Logger
}

// NewNormalizer creates a normalizer whose output fits the extraction
// context window minus the reserve kept for prompt and completion.
func NewNormalizer(cfg config.ExtractConfig, counter domain.TokenCounter, logger *slog.Logger) *Normalizer {
	budget := cfg.MaxContextTokens - cfg.ReserveTokens
	if budget <= 0 {
		budget = cfg.MaxContextTokens
	}
	return &Normalizer{
		counter: counter,
		budget:  budget,
		logger:  logger,
	}
}

// Normalize fills pc.CleanText from pc.RawText. A page that strips to
// nothing is downgraded to FetchEmpty.
func (n *Normalizer) Normalize(pc *domain.PageContent) {
	if pc == nil {
		return
	}

	clean := Strip(pc.RawText)
	truncated := TruncateToTokens(clean, n.counter, n.budget)
	if len(truncated) < len(clean) {
		n.logger.Debug("content truncated to token budget",
			"url", pc.URL, "budget", n.budget, "chars_before", len(clean), "chars_after", len(truncated))
	}
	pc.CleanText = truncated

	if pc.Status == domain.FetchOK && pc.CleanText == "" {
		pc.Status = domain.FetchEmpty
	}
}

// TruncateToTokens returns the longest prefix of text that fits the
// token budget. Binary search keeps Count calls logarithmic.
func TruncateToTokens(text string, counter domain.TokenCounter, budget int) string {
	if budget <= 0 || text == "" {
		return ""
	}
	if counter.Count(text) <= budget {
		return text
	}

	runes := []rune(text)
	lo, hi := 0, len(runes)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if counter.Count(string(runes[:mid])) <= budget {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return string(runes[:lo])
}
