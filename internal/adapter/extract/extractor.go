// Package extract judges page content against the query with an LLM:
// either the text answers the question, or it doesn't.
package extract

import (
	"context"
	"log/slog"

	"github.com/Burhanuddin-2001/WebMind/internal/domain"
	"github.com/Burhanuddin-2001/WebMind/internal/infra/config"
	"github.com/Burhanuddin-2001/WebMind/internal/infra/tracer"
)

// Extractor implements domain.AnswerExtractor over an LLM provider.
type Extractor struct {
	llm         domain.LLMProvider
	temperature float64
	logger      *slog.Logger
}

var _ domain.AnswerExtractor = (*Extractor)(nil)

// NewExtractor creates an extractor backed by the given provider.
func NewExtractor(llm domain.LLMProvider, cfg config.ExtractConfig, logger *slog.Logger) *Extractor {
	return &Extractor{
		llm:         llm,
		temperature: cfg.Temperature,
		logger:      logger,
	}
}

// Extract asks the model whether content answers the query. Backend
// failures surface as ErrExtraction; a delivered reply always becomes a
// verdict payload.
func (e *Extractor) Extract(ctx context.Context, query string, content *domain.PageContent) (*domain.VerdictPayload, error) {
	ctx, span := tracer.StartSpan(ctx, "extract.llm")
	defer span.End()
	span.SetAttributes(
		tracer.StringAttr("extract.url", content.URL),
		tracer.StringAttr("llm.provider", e.llm.Name()),
	)

	prompt := buildSufficiencyPrompt(query, content.URL, content.CleanText)
	resp, err := e.llm.Chat(ctx, domain.ChatRequest{
		Messages: []domain.Message{
			{Role: domain.RoleUser, Content: prompt},
		},
		Temperature: e.temperature,
	})
	if err != nil {
		tracer.RecordError(span, err)
		return nil, domain.NewDomainError("extract", domain.ErrExtraction, err.Error())
	}

	payload := parseSufficiencyResponse(resp.Message.Content)
	tracer.SetOK(span)
	e.logger.Debug("extraction completed",
		"url", content.URL, "relevant", payload.IsRelevant, "confidence", payload.Confidence)
	return payload, nil
}

// ExplainFailure asks the model why no tried URL answered the query.
// Best effort; callers must treat errors as cosmetic.
func (e *Extractor) ExplainFailure(ctx context.Context, query string, triedURLs []string) (string, error) {
	prompt := BuildFailureSummaryPrompt(query, triedURLs)
	resp, err := e.llm.Chat(ctx, domain.ChatRequest{
		Messages: []domain.Message{
			{Role: domain.RoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", domain.WrapOp("explain failure", err)
	}
	return resp.Message.Content, nil
}
