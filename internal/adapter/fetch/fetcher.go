package fetch

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Burhanuddin-2001/WebMind/internal/adapter/normalize"
	"github.com/Burhanuddin-2001/WebMind/internal/domain"
	"github.com/Burhanuddin-2001/WebMind/internal/infra/config"
)

// Fetcher tries plain HTTP first and escalates once to the browser
// renderer when the document strips to less text than a page with real
// content would have.
type Fetcher struct {
	http       *HTTPFetcher
	renderer   Renderer
	minContent int
	logger     *slog.Logger
}

var _ domain.PageFetcher = (*Fetcher)(nil)

// NewFetcher composes the HTTP fetcher with an optional renderer.
// renderer may be nil, in which case no escalation happens.
func NewFetcher(cfg config.FetchConfig, renderer Renderer, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		http:       NewHTTPFetcher(cfg, logger),
		renderer:   renderer,
		minContent: cfg.MinContentLength,
		logger:     logger,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*domain.PageContent, error) {
	pc, err := f.http.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	if !f.shouldEscalate(pc) {
		return pc, nil
	}

	f.logger.Debug("escalating to browser renderer", "url", url, "status", pc.Status)
	text, rerr := f.renderer.Render(ctx, url)
	if rerr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Keep the HTTP result; the renderer is a best-effort upgrade.
		f.logger.Warn("browser render failed", "url", url, "error", rerr)
		return pc, nil
	}

	pc.RawText = text
	pc.Rendered = true
	if strings.TrimSpace(text) == "" {
		pc.Status = domain.FetchEmpty
	} else {
		pc.Status = domain.FetchOK
	}
	return pc, nil
}

// shouldEscalate reports whether the HTTP result is worth a second,
// rendered attempt. Timeouts are not retried in the browser; a site
// that slow will time out there too.
func (f *Fetcher) shouldEscalate(pc *domain.PageContent) bool {
	if f.renderer == nil {
		return false
	}
	switch pc.Status {
	case domain.FetchEmpty:
		return true
	case domain.FetchOK:
		return len(normalize.Strip(pc.RawText)) < f.minContent
	default:
		return false
	}
}
