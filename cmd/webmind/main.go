// Command webmind answers a natural-language question from the web:
// search, fetch the candidate pages, and let a language model decide
// which page actually answers it.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Burhanuddin-2001/WebMind/internal/adapter/extract"
	"github.com/Burhanuddin-2001/WebMind/internal/adapter/fetch"
	"github.com/Burhanuddin-2001/WebMind/internal/adapter/llm"
	"github.com/Burhanuddin-2001/WebMind/internal/adapter/normalize"
	"github.com/Burhanuddin-2001/WebMind/internal/adapter/search"
	"github.com/Burhanuddin-2001/WebMind/internal/domain"
	"github.com/Burhanuddin-2001/WebMind/internal/infra/config"
	"github.com/Burhanuddin-2001/WebMind/internal/infra/logger"
	"github.com/Burhanuddin-2001/WebMind/internal/infra/tracer"
	"github.com/Burhanuddin-2001/WebMind/internal/usecase"
	"github.com/Burhanuddin-2001/WebMind/internal/usecase/eventbus"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

type cliFlags struct {
	query          string
	configPath     string
	timeout        time.Duration
	maxCandidates  int
	explainFailure bool
	verbose        bool
}

func parseFlags() cliFlags {
	var flags cliFlags
	flag.StringVar(&flags.query, "q", "", "the question to answer (required)")
	flag.StringVar(&flags.configPath, "config", "config.yaml", "path to config file")
	flag.DurationVar(&flags.timeout, "timeout", 0, "overall run timeout (overrides config)")
	flag.IntVar(&flags.maxCandidates, "max-candidates", 0, "max search results to try (overrides config)")
	flag.BoolVar(&flags.explainFailure, "explain-failure", false, "when no answer is found, ask the model why")
	flag.BoolVar(&flags.verbose, "verbose", false, "debug logging")
	flag.Parse()
	return flags
}

func run() error {
	flags := parseFlags()
	if flags.query == "" {
		flag.Usage()
		return fmt.Errorf("-q is required")
	}

	// 1. Config
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if flags.timeout > 0 {
		cfg.Run.Timeout = flags.timeout
	}
	if flags.maxCandidates > 0 {
		cfg.Run.MaxCandidates = flags.maxCandidates
	}
	if flags.verbose {
		cfg.Logger.Level = "debug"
	}

	// 2. Logger & Tracer
	log, logCloser, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logCloser()

	ctx := context.Background()
	tracerShutdown, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer tracerShutdown(ctx)

	// 3. LLM provider
	registry, err := llm.BuildRegistry(cfg.LLM, log)
	if err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	provider, err := registry.Get(cfg.LLM.DefaultProvider)
	if err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	warmupOllama(ctx, cfg, log)

	// 4. Event bus with a progress printer
	bus := eventbus.New(log)
	defer bus.Close()
	bus.SubscribeAll(printProgress)

	// 5. Pipeline components
	backend, err := search.NewBackend(cfg, log)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	searcher := search.NewProvider(backend, cfg.Search, log)

	var renderer fetch.Renderer
	if cfg.Fetch.BrowserEnabled {
		r := fetch.NewChromeDPRenderer(cfg.Fetch, log)
		defer r.Close()
		renderer = r
	}
	fetcher := fetch.NewFetcher(cfg.Fetch, renderer, log)

	counter := normalize.NewCounter(cfg.Extract.Encoding, log)
	normalizer := normalize.NewNormalizer(cfg.Extract, counter, log)
	extractor := extract.NewExtractor(provider, cfg.Extract, log)

	orchestrator := usecase.NewOrchestrator(usecase.Deps{
		Search:     searcher,
		Fetcher:    fetcher,
		Normalizer: normalizer,
		Extractor:  extractor,
		Bus:        bus,
		Logger:     log,
	}, usecase.Options{
		MaxCandidates:  cfg.Run.MaxCandidates,
		Concurrency:    cfg.Run.Concurrency,
		RunTimeout:     cfg.Run.Timeout,
		SearchTimeout:  cfg.Run.SearchTimeout,
		PageTimeout:    cfg.Run.PageTimeout,
		ExtractTimeout: cfg.Run.ExtractTimeout,
	})

	// 6. Run, cancelled by Ctrl-C
	runCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result, err := orchestrator.Run(runCtx, flags.query)
	if err != nil {
		return err
	}

	return printResult(ctx, result, extractor, flags.explainFailure)
}

// warmupOllama probes a local Ollama and preloads the model so the
// first extraction call doesn't pay the load time. Best effort.
func warmupOllama(ctx context.Context, cfg *config.Config, log *slog.Logger) {
	for _, pc := range cfg.LLM.Providers {
		if pc.Name != cfg.LLM.DefaultProvider {
			continue
		}
		if pc.Type != "ollama" && pc.Type != "" {
			return
		}
		probe := llm.NewOllamaProvider(pc, log)
		wctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if !probe.IsHealthy(wctx) {
			log.Warn("ollama server not reachable; extraction calls will fail until it is up", "base_url", pc.BaseURL)
			return
		}
		if err := probe.Warmup(wctx); err != nil {
			log.Warn("ollama warmup failed", "model", pc.Model, "error", err)
		}
		return
	}
}

// printProgress renders run events as status lines on stderr, keeping
// stdout clean for the answer.
func printProgress(_ context.Context, event domain.Event) {
	switch event.Type {
	case domain.EventSearchStarted:
		var p domain.SearchStartedPayload
		if json.Unmarshal(event.Payload, &p) == nil {
			fmt.Fprintf(os.Stderr, "Searching for: %s\n", p.Query)
		}
	case domain.EventCandidatesFound:
		var p domain.CandidatesFoundPayload
		if json.Unmarshal(event.Payload, &p) == nil {
			fmt.Fprintf(os.Stderr, "Found %d candidate page(s)\n", p.Count)
		}
	case domain.EventPageStarted:
		var p domain.PageStartedPayload
		if json.Unmarshal(event.Payload, &p) == nil {
			fmt.Fprintf(os.Stderr, "  [%d] trying %s\n", p.Rank+1, p.URL)
		}
	case domain.EventPageCompleted:
		var p domain.PageCompletedPayload
		if json.Unmarshal(event.Payload, &p) == nil {
			fmt.Fprintf(os.Stderr, "  [%d] %s: %s\n", p.Rank+1, p.URL, p.Outcome)
		}
	case domain.EventRunCancelled:
		fmt.Fprintln(os.Stderr, "Run cancelled")
	}
}

func printResult(ctx context.Context, result *domain.RunResult, extractor *extract.Extractor, explainFailure bool) error {
	switch result.Status {
	case domain.RunCancelled:
		fmt.Println("Run cancelled; no answer.")
		return nil
	case domain.RunCompleted:
	default:
		return fmt.Errorf("run ended with status %s", result.Status)
	}

	if result.HasAnswer() {
		fmt.Println(result.Answer.Text)
		fmt.Println()
		fmt.Printf("Source: %s\n", result.Answer.SourceURL)
		return nil
	}

	fmt.Printf("Could not find a sufficient answer after trying %d URL(s).\n", len(result.TriedURLs))
	if explainFailure {
		ectx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		summary, err := extractor.ExplainFailure(ectx, result.Query, result.TriedURLs)
		if err != nil {
			// Cosmetic only; the run result stands.
			fmt.Fprintf(os.Stderr, "failure summary unavailable: %v\n", err)
			return nil
		}
		fmt.Printf("\n%s\n", summary)
	}
	return nil
}
