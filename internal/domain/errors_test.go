package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorFormat(t *testing.T) {
	err := NewDomainError("Fetcher.Fetch", ErrFetchFailed, "https://example.com")
	want := "Fetcher.Fetch: https://example.com: page fetch failed"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestDomainErrorFormatNoDetail(t *testing.T) {
	err := NewDomainError("Orchestrator.Run", ErrSearchUnavailable, "")
	want := "Orchestrator.Run: search provider unavailable"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestDomainErrorUnwrap(t *testing.T) {
	err := NewDomainError("Extractor.Extract", ErrExtraction, "bad response shape")
	if !errors.Is(err, ErrExtraction) {
		t.Error("errors.Is should match ErrExtraction")
	}
}

func TestDomainErrorAs(t *testing.T) {
	err := NewDomainError("LLM.Chat", ErrProviderNotFound, "ollama")
	var de *DomainError
	if !errors.As(err, &de) {
		t.Fatal("errors.As should match *DomainError")
	}
	if de.Op != "LLM.Chat" {
		t.Errorf("Op = %q, want %q", de.Op, "LLM.Chat")
	}
}

// --- ErrorCode tests ---

func TestErrorCodeOf_DirectSentinel(t *testing.T) {
	assert.Equal(t, CodeSearchUnavailable, ErrorCodeOf(ErrSearchUnavailable))
	assert.Equal(t, CodeFetchFailed, ErrorCodeOf(ErrFetchFailed))
	assert.Equal(t, CodeRateLimit, ErrorCodeOf(ErrRateLimit))
	assert.Equal(t, CodeEmptyContent, ErrorCodeOf(ErrEmptyContent))
}

func TestErrorCodeOf_DomainError(t *testing.T) {
	err := NewDomainError("Fetcher.Fetch", ErrFetchFailed, "https://example.com")
	assert.Equal(t, CodeFetchFailed, ErrorCodeOf(err))
}

func TestErrorCodeOf_WrappedError(t *testing.T) {
	// fmt.Errorf with %w wraps the sentinel.
	wrapped := fmt.Errorf("context: %w", ErrExtraction)
	assert.Equal(t, CodeExtraction, ErrorCodeOf(wrapped))
}

func TestErrorCodeOf_UnknownError(t *testing.T) {
	assert.Equal(t, CodeUnknown, ErrorCodeOf(fmt.Errorf("some random error")))
}

func TestErrorCodeOf_Nil(t *testing.T) {
	assert.Equal(t, CodeUnknown, ErrorCodeOf(nil))
}

func TestDomainError_Code(t *testing.T) {
	err := NewDomainError("Search.Search", ErrSearchUnavailable, "searxng")
	assert.Equal(t, CodeSearchUnavailable, err.Code())
}

func TestDomainError_CodeUnknownSentinel(t *testing.T) {
	err := NewDomainError("Op", fmt.Errorf("custom"), "detail")
	assert.Equal(t, CodeUnknown, err.Code())
}

func TestAllSentinelsHaveCodes(t *testing.T) {
	// Verify every sentinel in errorCodeMap maps to a non-empty code.
	require.NotEmpty(t, errorCodeMap)
	for sentinel, code := range errorCodeMap {
		assert.NotEmpty(t, code, "sentinel %v has empty code", sentinel)
		assert.NotEqual(t, CodeUnknown, code, "sentinel %v maps to UNKNOWN", sentinel)
	}
}

// --- WrapOp tests ---

func TestWrapOp_Nil(t *testing.T) {
	assert.Nil(t, WrapOp("anything", nil))
}

func TestWrapOp_Format(t *testing.T) {
	err := WrapOp("Run.Search", ErrSearchUnavailable)
	assert.Equal(t, "Run.Search: search provider unavailable", err.Error())
}

func TestWrapOp_PreservesIs(t *testing.T) {
	err := WrapOp("Run.Search", ErrSearchUnavailable)
	assert.True(t, errors.Is(err, ErrSearchUnavailable))
}

func TestWrapOp_PreservesErrorCode(t *testing.T) {
	err := WrapOp("Run.Search", ErrSearchUnavailable)
	assert.Equal(t, CodeSearchUnavailable, ErrorCodeOf(err))
}

func TestWrapOp_Chain(t *testing.T) {
	inner := WrapOp("inner", ErrFetchFailed)
	outer := WrapOp("outer", inner)
	assert.Equal(t, "outer: inner: page fetch failed", outer.Error())
	assert.True(t, errors.Is(outer, ErrFetchFailed))
}

// --- IsRetryableError tests ---

func TestIsRetryableError_RateLimit(t *testing.T) {
	assert.True(t, IsRetryableError(ErrRateLimit))
}

func TestIsRetryableError_ContextOverflow(t *testing.T) {
	assert.True(t, IsRetryableError(ErrContextOverflow))
}

func TestIsRetryableError_Wrapped(t *testing.T) {
	err := fmt.Errorf("llm call: %w", ErrRateLimit)
	assert.True(t, IsRetryableError(err))
}

func TestIsRetryableError_NotRetryable(t *testing.T) {
	assert.False(t, IsRetryableError(ErrFetchFailed))
	assert.False(t, IsRetryableError(ErrAuthInvalid))
	assert.False(t, IsRetryableError(fmt.Errorf("random error")))
}

func TestIsRetryableError_Nil(t *testing.T) {
	assert.False(t, IsRetryableError(nil))
}
