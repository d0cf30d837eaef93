package search

import (
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const duckduckgoHTMLURL = "https://html.duckduckgo.com/html/"

var (
	ddgResultRe  = regexp.MustCompile(`(?s)<a[^>]+class="result__a"[^>]+href="([^"]+)"[^>]*>(.*?)</a>`)
	ddgSnippetRe = regexp.MustCompile(`(?s)<a[^>]+class="result__snippet"[^>]*>(.*?)</a>`)
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
)

// DuckDuckGoBackend scrapes the DuckDuckGo HTML endpoint. It needs no API
// key or self-hosted instance, at the cost of parsing rendered markup.
type DuckDuckGoBackend struct {
	client    *http.Client
	endpoint  string
	userAgent string
	logger    *slog.Logger
}

// NewDuckDuckGoBackend creates a search backend using DuckDuckGo's HTML interface.
func NewDuckDuckGoBackend(userAgent string, timeout time.Duration, logger *slog.Logger) *DuckDuckGoBackend {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &DuckDuckGoBackend{
		client: &http.Client{
			Timeout: timeout,
		},
		endpoint:  duckduckgoHTMLURL,
		userAgent: userAgent,
		logger:    logger,
	}
}

func (b *DuckDuckGoBackend) Name() string { return "duckduckgo" }

func (b *DuckDuckGoBackend) Search(ctx context.Context, query string, count int) ([]Result, error) {
	form := url.Values{}
	form.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if b.userAgent != "" {
		req.Header.Set("User-Agent", b.userAgent)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSearchBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search failed (HTTP %d)", resp.StatusCode)
	}

	results := parseDuckDuckGoHTML(string(body), count)

	b.logger.Debug("duckduckgo search completed", "query", query, "results", len(results))
	return results, nil
}

// parseDuckDuckGoHTML extracts up to count results from the HTML results page.
func parseDuckDuckGoHTML(page string, count int) []Result {
	links := ddgResultRe.FindAllStringSubmatch(page, -1)
	snippets := ddgSnippetRe.FindAllStringSubmatch(page, -1)

	results := make([]Result, 0, len(links))
	for i, m := range links {
		if len(results) >= count {
			break
		}
		u := resolveDuckDuckGoURL(m[1])
		if u == "" {
			continue
		}
		r := Result{
			Title: cleanHTMLFragment(m[2]),
			URL:   u,
		}
		if i < len(snippets) {
			r.Content = cleanHTMLFragment(snippets[i][1])
		}
		results = append(results, r)
	}
	return results
}

// resolveDuckDuckGoURL unwraps the redirect DDG puts around result links
// (an /l/?uddg=<encoded> indirection). Direct links pass through as-is.
func resolveDuckDuckGoURL(href string) string {
	href = html.UnescapeString(href)
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		if decoded, err := url.QueryUnescape(target); err == nil {
			return decoded
		}
		return ""
	}
	if parsed.Scheme == "http" || parsed.Scheme == "https" {
		return href
	}
	return ""
}

func cleanHTMLFragment(s string) string {
	return strings.TrimSpace(html.UnescapeString(htmlTagRe.ReplaceAllString(s, "")))
}
