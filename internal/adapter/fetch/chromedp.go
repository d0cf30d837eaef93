package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/Burhanuddin-2001/WebMind/internal/infra/config"
	"github.com/Burhanuddin-2001/WebMind/internal/infra/tracer"
)

// Renderer produces a page's visible text after scripts have run.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
	Close() error
}

// ChromeDPRenderer drives a headless Chrome via chromedp. The browser
// is started lazily on first use so runs that never escalate pay
// nothing.
type ChromeDPRenderer struct {
	remoteURL string
	headless  bool
	timeout   time.Duration
	logger    *slog.Logger

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	started       bool
	closed        bool
}

// NewChromeDPRenderer creates a renderer from fetch config. No browser
// process exists until the first Render call.
func NewChromeDPRenderer(cfg config.FetchConfig, logger *slog.Logger) *ChromeDPRenderer {
	timeout := cfg.BrowserTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChromeDPRenderer{
		remoteURL: cfg.BrowserCDPURL,
		headless:  cfg.BrowserHeadless,
		timeout:   timeout,
		logger:    logger,
	}
}

// start launches or attaches to Chrome. Caller must hold mu.
func (r *ChromeDPRenderer) start() error {
	if r.closed {
		return fmt.Errorf("renderer closed")
	}

	var allocCtx context.Context
	if r.remoteURL != "" {
		allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(
			context.Background(), r.remoteURL,
		)
		r.logger.Info("chromedp connecting to remote browser", "url", r.remoteURL)
	} else {
		// Copy default options to avoid mutating the package-level slice.
		opts := make([]chromedp.ExecAllocatorOption, len(chromedp.DefaultExecAllocatorOptions))
		copy(opts, chromedp.DefaultExecAllocatorOptions[:])
		opts = append(opts,
			chromedp.Flag("headless", r.headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.WindowSize(1280, 720),
		)
		allocCtx, r.allocCancel = chromedp.NewExecAllocator(
			context.Background(), opts...,
		)
		r.logger.Info("chromedp launching local browser", "headless", r.headless)
	}

	r.browserCtx, r.browserCancel = chromedp.NewContext(allocCtx)

	// Start the browser by running an empty action.
	// IMPORTANT: We must NOT wrap browserCtx in context.WithTimeout because
	// chromedp binds the CDP session to the context passed to the first Run.
	// Canceling a derived context would kill the session immediately.
	startDone := make(chan error, 1)
	go func() { startDone <- chromedp.Run(r.browserCtx) }()
	select {
	case err := <-startDone:
		if err != nil {
			r.teardown()
			return fmt.Errorf("start browser: %w", err)
		}
	case <-time.After(r.timeout):
		r.teardown()
		return fmt.Errorf("start browser: timed out after %v", r.timeout)
	}

	r.started = true
	r.logger.Info("chromedp browser started")
	return nil
}

// teardown cancels browser contexts. Caller must hold mu.
func (r *ChromeDPRenderer) teardown() {
	if r.browserCancel != nil {
		r.browserCancel()
		r.browserCancel = nil
	}
	if r.allocCancel != nil {
		r.allocCancel()
		r.allocCancel = nil
	}
	r.started = false
}

// Render navigates to url in a fresh tab and returns the body's
// visible text.
func (r *ChromeDPRenderer) Render(ctx context.Context, url string) (string, error) {
	_, span := tracer.StartSpan(ctx, "fetch.render")
	defer span.End()
	span.SetAttributes(tracer.StringAttr("fetch.url", url))

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		if err := r.start(); err != nil {
			tracer.RecordError(span, err)
			return "", err
		}
	}

	tabCtx, tabCancel := chromedp.NewContext(r.browserCtx)
	defer tabCancel()

	tctx, cancel := context.WithTimeout(tabCtx, r.timeout)
	defer cancel()

	// Honor caller cancellation while the tab context drives chromedp.
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	var text string
	err := chromedp.Run(tctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &text),
	)
	if err != nil {
		tracer.RecordError(span, err)
		return "", fmt.Errorf("render %s: %w", url, err)
	}

	tracer.SetOK(span)
	r.logger.Debug("render completed", "url", url, "chars", len(text))
	return text, nil
}

// Close shuts the browser down. Safe to call without a prior Render.
func (r *ChromeDPRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	if r.started {
		r.teardown()
		r.logger.Info("chromedp browser closed")
	}
	return nil
}
