package normalize

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/Burhanuddin-2001/WebMind/internal/domain"
	"github.com/Burhanuddin-2001/WebMind/internal/infra/config"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStripRemovesScriptsAndStyles(t *testing.T) {
	in := `<html><head><title>T</title></head><body>
<script>alert("x")</script>
<style>body { color: red }</style>
<p>Visible text</p>
</body></html>`

	got := Strip(in)
	if strings.Contains(got, "alert") {
		t.Errorf("script content leaked: %q", got)
	}
	if strings.Contains(got, "color") {
		t.Errorf("style content leaked: %q", got)
	}
	if !strings.Contains(got, "Visible text") {
		t.Errorf("visible text missing: %q", got)
	}
}

func TestStripDecodesEntities(t *testing.T) {
	got := Strip(`<p>fish &amp; chips &lt;3</p>`)
	if got != "fish & chips <3" {
		t.Errorf("Strip() = %q", got)
	}
}

func TestStripBlockElementsBecomeLines(t *testing.T) {
	got := Strip(`<div>first</div><div>second</div>`)
	lines := strings.Split(got, "\n")
	if len(lines) != 2 || lines[0] != "first" || lines[1] != "second" {
		t.Errorf("expected two lines, got %q", got)
	}
}

func TestStripCollapsesWhitespace(t *testing.T) {
	got := Strip("some    spaced\t\ttext")
	if got != "some spaced text" {
		t.Errorf("Strip() = %q", got)
	}
}

func TestStripPlainTextPassesThrough(t *testing.T) {
	got := Strip("already clean text")
	if got != "already clean text" {
		t.Errorf("Strip() = %q", got)
	}
}

func TestStripEmptyDocument(t *testing.T) {
	if got := Strip(`<html><head><script>x</script></head></html>`); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestEstimateCounter(t *testing.T) {
	c := EstimateCounter{}
	if got := c.Count(""); got != 0 {
		t.Errorf("Count(\"\") = %d", got)
	}
	if got := c.Count("abcd"); got != 1 {
		t.Errorf("Count(4 chars) = %d, want 1", got)
	}
	if got := c.Count("abcde"); got != 2 {
		t.Errorf("Count(5 chars) = %d, want 2", got)
	}
}

func TestNewCounterFallsBack(t *testing.T) {
	c := NewCounter("no-such-encoding", newTestLogger())
	if _, ok := c.(EstimateCounter); !ok {
		t.Errorf("expected EstimateCounter fallback, got %T", c)
	}
}

func TestTruncateToTokensFits(t *testing.T) {
	text := "short text"
	got := TruncateToTokens(text, EstimateCounter{}, 100)
	if got != text {
		t.Errorf("text under budget should pass through, got %q", got)
	}
}

func TestTruncateToTokensCuts(t *testing.T) {
	text := strings.Repeat("a", 400) // 100 estimated tokens
	got := TruncateToTokens(text, EstimateCounter{}, 10)
	if c := (EstimateCounter{}).Count(got); c > 10 {
		t.Errorf("truncated text counts %d tokens, budget 10", c)
	}
	if len(got) == 0 {
		t.Error("truncation should keep a prefix, got empty")
	}
	if !strings.HasPrefix(text, got) {
		t.Error("truncation must return a prefix of the input")
	}
}

func TestTruncateToTokensZeroBudget(t *testing.T) {
	if got := TruncateToTokens("anything", EstimateCounter{}, 0); got != "" {
		t.Errorf("zero budget should yield empty, got %q", got)
	}
}

func TestNormalizerSetsCleanText(t *testing.T) {
	n := NewNormalizer(config.ExtractConfig{MaxContextTokens: 1000, ReserveTokens: 100}, EstimateCounter{}, newTestLogger())
	pc := &domain.PageContent{
		URL:     "https://example.com",
		RawText: "<p>Paris is the capital of France.</p>",
		Status:  domain.FetchOK,
	}

	n.Normalize(pc)
	if pc.CleanText != "Paris is the capital of France." {
		t.Errorf("CleanText = %q", pc.CleanText)
	}
	if pc.Status != domain.FetchOK {
		t.Errorf("Status = %q, want ok", pc.Status)
	}
}

func TestNormalizerEmptyBecomesFetchEmpty(t *testing.T) {
	n := NewNormalizer(config.ExtractConfig{MaxContextTokens: 1000}, EstimateCounter{}, newTestLogger())
	pc := &domain.PageContent{
		URL:     "https://example.com",
		RawText: `<html><head><script>void 0</script></head></html>`,
		Status:  domain.FetchOK,
	}

	n.Normalize(pc)
	if pc.Status != domain.FetchEmpty {
		t.Errorf("Status = %q, want empty", pc.Status)
	}
}

func TestNormalizerTruncates(t *testing.T) {
	n := NewNormalizer(config.ExtractConfig{MaxContextTokens: 20, ReserveTokens: 10}, EstimateCounter{}, newTestLogger())
	pc := &domain.PageContent{
		URL:     "https://example.com",
		RawText: strings.Repeat("word ", 200),
		Status:  domain.FetchOK,
	}

	n.Normalize(pc)
	if c := (EstimateCounter{}).Count(pc.CleanText); c > 10 {
		t.Errorf("CleanText counts %d tokens, budget 10", c)
	}
}

func TestNormalizerNilSafe(t *testing.T) {
	n := NewNormalizer(config.ExtractConfig{MaxContextTokens: 100}, EstimateCounter{}, newTestLogger())
	n.Normalize(nil)
}
