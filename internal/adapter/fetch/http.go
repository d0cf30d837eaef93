// Package fetch acquires page content for candidate URLs. An HTTP
// fetcher does the fast path; a chromedp renderer handles pages that
// only produce content after running their scripts.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Burhanuddin-2001/WebMind/internal/domain"
	"github.com/Burhanuddin-2001/WebMind/internal/infra/config"
	"github.com/Burhanuddin-2001/WebMind/internal/infra/tracer"
)

const (
	defaultMaxBodyBytes = 4 * 1024 * 1024 // 4MB
	maxRedirects        = 5
)

// HTTPFetcher retrieves pages over plain HTTP.
type HTTPFetcher struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
	guarded      bool
	logger       *slog.Logger
}

var _ domain.PageFetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher creates an HTTP page fetcher. The per-fetch deadline
// comes from the caller's context, not a client timeout.
func NewHTTPFetcher(cfg config.FetchConfig, logger *slog.Logger) *HTTPFetcher {
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     60 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	if cfg.BlockPrivateHosts {
		transport.DialContext = guardedDialContext
	}
	return &HTTPFetcher{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		userAgent:    cfg.UserAgent,
		maxBodyBytes: maxBody,
		guarded:      cfg.BlockPrivateHosts,
		logger:       logger,
	}
}

// Fetch retrieves one page. Ordinary HTTP failures come back as a
// non-OK PageContent with a nil error; only caller cancellation is an
// error.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*domain.PageContent, error) {
	ctx, span := tracer.StartSpan(ctx, "fetch.http")
	defer span.End()
	span.SetAttributes(tracer.StringAttr("fetch.url", url))

	pc := &domain.PageContent{URL: url}

	if f.guarded {
		if err := validatePublicURL(url); err != nil {
			pc.Status = domain.FetchError
			f.logger.Debug("fetch blocked", "url", url, "error", err)
			return pc, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		pc.Status = domain.FetchError
		f.logger.Debug("fetch request invalid", "url", url, "error", err)
		return pc, nil
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, ctx.Err()
		}
		pc.Status = classifyFetchError(err)
		tracer.RecordError(span, err)
		f.logger.Debug("fetch failed", "url", url, "status", pc.Status, "error", err)
		return pc, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, ctx.Err()
		}
		pc.Status = classifyFetchError(err)
		tracer.RecordError(span, err)
		f.logger.Debug("fetch body read failed", "url", url, "error", err)
		return pc, nil
	}

	if resp.StatusCode != http.StatusOK {
		pc.Status = domain.FetchError
		f.logger.Debug("fetch non-200", "url", url, "http_status", resp.StatusCode)
		return pc, nil
	}

	pc.RawText = string(body)
	if strings.TrimSpace(pc.RawText) == "" {
		pc.Status = domain.FetchEmpty
	} else {
		pc.Status = domain.FetchOK
		tracer.SetOK(span)
	}

	f.logger.Debug("fetch completed", "url", url, "status", pc.Status, "size", len(body))
	return pc, nil
}

// classifyFetchError separates deadline expiry from other transport
// failures.
func classifyFetchError(err error) domain.FetchStatus {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.FetchTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.FetchTimeout
	}
	return domain.FetchError
}
