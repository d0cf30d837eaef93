// Package usecase drives the query pipeline: search, bounded concurrent
// page acquisition, verdict aggregation, and answer selection.
package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Burhanuddin-2001/WebMind/internal/domain"
	"github.com/Burhanuddin-2001/WebMind/internal/infra/logger"
	"github.com/Burhanuddin-2001/WebMind/internal/infra/tracer"
	"github.com/Burhanuddin-2001/WebMind/internal/usecase/eventbus"
)

// Options bound a run: candidate count, worker pool size, and the
// per-stage timeout budgets.
type Options struct {
	MaxCandidates  int
	Concurrency    int
	RunTimeout     time.Duration
	SearchTimeout  time.Duration
	PageTimeout    time.Duration
	ExtractTimeout time.Duration
}

func (o *Options) applyDefaults() {
	if o.MaxCandidates <= 0 {
		o.MaxCandidates = 5
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 2
	}
	if o.SearchTimeout <= 0 {
		o.SearchTimeout = 15 * time.Second
	}
	if o.PageTimeout <= 0 {
		o.PageTimeout = 30 * time.Second
	}
	if o.ExtractTimeout <= 0 {
		o.ExtractTimeout = 60 * time.Second
	}
}

// Deps are the orchestrator's collaborators.
type Deps struct {
	Search     domain.SearchProvider
	Fetcher    domain.PageFetcher
	Normalizer domain.ContentNormalizer
	Extractor  domain.AnswerExtractor
	Bus        *eventbus.Bus
	Logger     *slog.Logger
}

// Orchestrator runs one query end to end. Individual page failures are
// absorbed; only the inability to even begin searching fails a run.
type Orchestrator struct {
	search     domain.SearchProvider
	fetcher    domain.PageFetcher
	normalizer domain.ContentNormalizer
	extractor  domain.AnswerExtractor
	bus        *eventbus.Bus
	opts       Options
	logger     *slog.Logger
}

// NewOrchestrator creates an orchestrator with the given collaborators.
func NewOrchestrator(deps Deps, opts Options) *Orchestrator {
	opts.applyDefaults()
	return &Orchestrator{
		search:     deps.Search,
		fetcher:    deps.Fetcher,
		normalizer: deps.Normalizer,
		extractor:  deps.Extractor,
		bus:        deps.Bus,
		opts:       opts,
		logger:     deps.Logger,
	}
}

// Run executes the pipeline for one query. The returned error is
// non-nil only for invalid input or a fatal orchestration error; a run
// with zero usable pages still completes with "no answer found", and a
// cancelled run returns its result with status Cancelled.
func (o *Orchestrator) Run(ctx context.Context, query string) (*domain.RunResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.NewDomainError("run", domain.ErrInvalidInput, "query must not be empty")
	}

	if o.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.RunTimeout)
		defer cancel()
	}

	run := domain.NewSearchRun(query)
	ctx, span := tracer.StartSpan(ctx, "run")
	defer span.End()
	span.SetAttributes(tracer.StringAttr("run.id", run.ID))

	log := logger.WithRun(o.logger, run.ID)
	log.Info("run started", "query", query)
	o.emit(ctx, run.ID, domain.EventSearchStarted, domain.SearchStartedPayload{Query: query})

	candidates, err := o.searchStage(ctx, run)
	if err != nil {
		if isCancellation(ctx, err) {
			return o.cancelled(ctx, run), nil
		}
		run.Fail()
		tracer.RecordError(span, err)
		o.emit(ctx, run.ID, domain.EventRunFailed, domain.RunFailedPayload{
			Code:   domain.ErrorCodeOf(err),
			Detail: err.Error(),
		})
		log.Error("run failed", "error", err)
		return o.result(run, nil, nil), err
	}

	o.emit(ctx, run.ID, domain.EventCandidatesFound, domain.CandidatesFoundPayload{
		Count: len(candidates),
		URLs:  candidateURLs(candidates),
	})

	if len(candidates) == 0 {
		run.Complete(nil)
		o.emit(ctx, run.ID, domain.EventRunCompleted, domain.RunCompletedPayload{})
		log.Info("run completed", "answer", false, "candidates", 0)
		return o.result(run, nil, nil), nil
	}

	tried, outcomes := o.acquireStage(ctx, run, candidates)

	if ctx.Err() != nil {
		return o.cancelledWith(ctx, run, tried, outcomes), nil
	}

	answer := SelectAnswer(run.Verdicts())
	run.Complete(answer)
	tracer.SetOK(span)
	o.emit(ctx, run.ID, domain.EventRunCompleted, domain.RunCompletedPayload{Answer: answer})
	log.Info("run completed", "answer", answer != nil, "candidates", len(candidates))
	return o.result(run, tried, outcomes), nil
}

// searchStage resolves candidates under the search timeout. Any backend
// failure is fatal to the run.
func (o *Orchestrator) searchStage(ctx context.Context, run *domain.SearchRun) ([]domain.Candidate, error) {
	sctx, cancel := context.WithTimeout(ctx, o.opts.SearchTimeout)
	defer cancel()

	ctxSpan, span := tracer.StartSpan(sctx, "run.search")
	defer span.End()

	urls, err := o.search.Search(ctxSpan, run.Query, o.opts.MaxCandidates)
	if err != nil {
		tracer.RecordError(span, err)
		if errors.Is(err, domain.ErrSearchUnavailable) || errors.Is(err, domain.ErrInvalidInput) {
			return nil, err
		}
		return nil, domain.NewDomainError("run.search", domain.ErrSearchUnavailable, err.Error())
	}
	span.SetAttributes(tracer.IntAttr("search.candidates", len(urls)))
	tracer.SetOK(span)

	return run.SetCandidates(urls), nil
}

// acquireStage fans candidate pipelines out over the worker pool.
// Dispatch follows rank order; completion order is irrelevant because
// selection restores determinism.
func (o *Orchestrator) acquireStage(ctx context.Context, run *domain.SearchRun, candidates []domain.Candidate) ([]string, map[string]domain.PageOutcome) {
	sem := make(chan struct{}, o.opts.Concurrency)
	var wg sync.WaitGroup

	var mu sync.Mutex
	tried := make([]string, 0, len(candidates))
	outcomes := make(map[string]domain.PageOutcome, len(candidates))

	for _, cand := range candidates {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			// Stop dispatching; in-flight workers unwind on their own.
			wg.Wait()
			return tried, outcomes
		}

		mu.Lock()
		tried = append(tried, cand.URL)
		mu.Unlock()

		wg.Add(1)
		go func(cand domain.Candidate) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome := o.processCandidate(ctx, run, cand)

			mu.Lock()
			outcomes[cand.URL] = outcome
			mu.Unlock()

			if ctx.Err() == nil {
				o.emit(ctx, run.ID, domain.EventPageCompleted, domain.PageCompletedPayload{
					URL:     cand.URL,
					Rank:    cand.Rank,
					Outcome: outcome,
				})
			}
		}(cand)
	}

	wg.Wait()
	return tried, outcomes
}

// processCandidate runs one candidate's fetch → normalize → extract
// pipeline. Every failure mode maps to an outcome; none fails the run.
func (o *Orchestrator) processCandidate(ctx context.Context, run *domain.SearchRun, cand domain.Candidate) domain.PageOutcome {
	cctx, span := tracer.StartSpan(ctx, "run.candidate")
	defer span.End()
	span.SetAttributes(
		tracer.StringAttr("candidate.url", cand.URL),
		tracer.IntAttr("candidate.rank", cand.Rank),
	)

	o.emit(cctx, run.ID, domain.EventPageStarted, domain.PageStartedPayload{URL: cand.URL, Rank: cand.Rank})

	fctx, fcancel := context.WithTimeout(cctx, o.opts.PageTimeout)
	pc, err := o.fetcher.Fetch(fctx, cand.URL)
	fcancel()
	if err != nil {
		// Only caller cancellation reaches here; HTTP-level failures
		// come back encoded in the status.
		o.logger.Debug("candidate abandoned", "url", cand.URL, "error", err)
		return domain.OutcomeSkipped
	}

	o.normalizer.Normalize(pc)

	switch pc.Status {
	case domain.FetchOK:
	case domain.FetchTimeout:
		o.logger.Debug("candidate fetch timed out", "url", cand.URL)
		return domain.OutcomeTimeout
	case domain.FetchEmpty:
		// Nothing to ask the model about; skip the call entirely.
		o.logger.Debug("candidate had no usable content", "url", cand.URL)
		return domain.OutcomeEmpty
	default:
		o.logger.Debug("candidate fetch failed", "url", cand.URL, "status", pc.Status)
		return domain.OutcomeError
	}

	ectx, ecancel := context.WithTimeout(cctx, o.opts.ExtractTimeout)
	payload, err := o.extractor.Extract(ectx, run.Query, pc)
	ecancel()
	if err != nil {
		if isCancellation(ctx, err) {
			return domain.OutcomeSkipped
		}
		tracer.RecordError(span, err)
		o.logger.Warn("candidate extraction failed", "url", cand.URL, "error", err)
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.OutcomeTimeout
		}
		return domain.OutcomeError
	}

	run.AddVerdict(domain.Verdict{
		URL:        cand.URL,
		Rank:       cand.Rank,
		IsRelevant: payload.IsRelevant,
		AnswerText: payload.AnswerText,
		Confidence: payload.Confidence,
	})
	tracer.SetOK(span)

	if payload.IsRelevant && payload.AnswerText != "" {
		return domain.OutcomeAnswered
	}
	return domain.OutcomeIrrelevant
}

func (o *Orchestrator) cancelled(ctx context.Context, run *domain.SearchRun) *domain.RunResult {
	return o.cancelledWith(ctx, run, nil, nil)
}

func (o *Orchestrator) cancelledWith(ctx context.Context, run *domain.SearchRun, tried []string, outcomes map[string]domain.PageOutcome) *domain.RunResult {
	run.Cancel()
	// The run context is dead; emit on a fresh one so subscribers hear it.
	o.emit(context.WithoutCancel(ctx), run.ID, domain.EventRunCancelled, nil)
	o.logger.Info("run cancelled", "run_id", run.ID)
	return o.result(run, tried, outcomes)
}

func (o *Orchestrator) result(run *domain.SearchRun, tried []string, outcomes map[string]domain.PageOutcome) *domain.RunResult {
	return &domain.RunResult{
		RunID:      run.ID,
		Query:      run.Query,
		Status:     run.Status(),
		Answer:     run.Answer(),
		TriedURLs:  tried,
		Outcomes:   outcomes,
		StartedAt:  run.StartedAt,
		FinishedAt: time.Now(),
	}
}

func (o *Orchestrator) emit(ctx context.Context, runID string, eventType domain.EventType, payload any) {
	if o.bus == nil {
		return
	}
	o.bus.Emit(ctx, runID, eventType, payload)
}

// isCancellation reports whether err reflects the run context ending
// rather than a stage's own failure.
func isCancellation(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, context.Canceled)
}

func candidateURLs(candidates []domain.Candidate) []string {
	urls := make([]string, len(candidates))
	for i, c := range candidates {
		urls[i] = c.URL
	}
	return urls
}
