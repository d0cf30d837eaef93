package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Burhanuddin-2001/WebMind/internal/domain"
	"github.com/Burhanuddin-2001/WebMind/internal/infra/config"
)

const (
	defaultSearchCount = 5
	maxSearchCount     = 20
	defaultCacheTTL    = 15 * time.Minute
)

// cacheEntry holds a cached candidate list with its expiration time.
type cacheEntry struct {
	urls      []string
	expiresAt time.Time
}

// Provider turns queries into ranked candidate URLs via a pluggable
// Backend, with a TTL cache and a rate limiter in front of it.
type Provider struct {
	backend  Backend
	limiter  *rate.Limiter
	cacheTTL time.Duration
	logger   *slog.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry
}

var _ domain.SearchProvider = (*Provider)(nil)

// NewProvider creates a search provider over the given backend.
func NewProvider(backend Backend, cfg config.SearchConfig, logger *slog.Logger) *Provider {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return &Provider{
		backend:  backend,
		limiter:  limiter,
		cacheTTL: ttl,
		logger:   logger,
		cache:    make(map[string]cacheEntry),
	}
}

func (p *Provider) Name() string { return p.backend.Name() }

// Search returns up to limit candidate URLs in result order, duplicates
// removed. Backend failures surface as ErrSearchUnavailable.
func (p *Provider) Search(ctx context.Context, query string, limit int) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.NewDomainError("search", domain.ErrInvalidInput, "query must not be empty")
	}
	if limit <= 0 {
		limit = defaultSearchCount
	}
	if limit > maxSearchCount {
		limit = maxSearchCount
	}

	cacheKey := fmt.Sprintf("%s|%d", query, limit)
	if cached, ok := p.getCached(cacheKey); ok {
		p.logger.Debug("search cache hit", "query", query)
		return cached, nil
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, domain.WrapOp("search: rate wait", err)
		}
	}

	results, err := p.backend.Search(ctx, query, limit)
	if err != nil {
		return nil, domain.NewDomainError("search", domain.ErrSearchUnavailable, err.Error())
	}

	urls := dedupeURLs(results, limit)
	p.putCache(cacheKey, urls)

	p.logger.Debug("search completed", "backend", p.backend.Name(), "query", query, "candidates", len(urls))
	return urls, nil
}

// dedupeURLs keeps the first occurrence of each URL, preserving result order.
func dedupeURLs(results []Result, limit int) []string {
	seen := make(map[string]struct{}, len(results))
	urls := make([]string, 0, len(results))
	for _, r := range results {
		if len(urls) >= limit {
			break
		}
		u := strings.TrimSpace(r.URL)
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	return urls
}

// getCached returns a cached result if it exists and has not expired.
func (p *Provider) getCached(key string) ([]string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.cache[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(p.cache, key)
		return nil, false
	}
	return entry.urls, true
}

// putCache stores a result in the cache with the configured TTL.
func (p *Provider) putCache(key string, urls []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cache[key] = cacheEntry{
		urls:      urls,
		expiresAt: time.Now().Add(p.cacheTTL),
	}

	// Lazy eviction: remove expired entries if cache grows large
	if len(p.cache) > 100 {
		now := time.Now()
		for k, v := range p.cache {
			if now.After(v.expiresAt) {
				delete(p.cache, k)
			}
		}
	}
}

// NewBackend constructs the configured search backend.
func NewBackend(cfg *config.Config, logger *slog.Logger) (Backend, error) {
	timeout := cfg.Run.SearchTimeout
	switch cfg.Search.Backend {
	case "searxng":
		return NewSearXNGBackend(cfg.Search.SearXNGURL, timeout, logger), nil
	case "duckduckgo", "":
		return NewDuckDuckGoBackend(cfg.Fetch.UserAgent, timeout, logger), nil
	default:
		return nil, fmt.Errorf("unknown search backend %q", cfg.Search.Backend)
	}
}
