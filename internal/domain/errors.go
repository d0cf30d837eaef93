package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the domain layer.
var (
	ErrInvalidInput      = fmt.Errorf("invalid input")
	ErrTimeout           = fmt.Errorf("operation timed out")
	ErrSearchUnavailable = fmt.Errorf("search provider unavailable")
	ErrFetchFailed       = fmt.Errorf("page fetch failed")
	ErrEmptyContent      = fmt.Errorf("page content empty")
	ErrExtraction        = fmt.Errorf("answer extraction failed")
	ErrProviderNotFound  = fmt.Errorf("llm provider not found")
	ErrProviderError     = fmt.Errorf("provider error")
	ErrRunTerminal       = fmt.Errorf("run already in terminal state")
	ErrConfigLoad        = fmt.Errorf("failed to load configuration")
	ErrRateLimit         = fmt.Errorf("rate limit exceeded")
	ErrContextOverflow   = fmt.Errorf("context window exceeded")
	ErrAuthInvalid       = fmt.Errorf("authentication failed")
	ErrBlockedURL        = fmt.Errorf("url blocked")
)

// DomainError wraps a sentinel error with context.
type DomainError struct {
	Op     string // operation name (e.g., "Orchestrator.Run")
	Err    error  // underlying sentinel or wrapped error
	Detail string // human-readable detail
}

func (e *DomainError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError creates a new DomainError.
func NewDomainError(op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail}
}

// WrapOp adds operation context to an error using fmt.Errorf wrapping.
// Returns nil if err is nil, enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// IsRetryableError reports whether err is a transient error that may succeed on retry.
func IsRetryableError(err error) bool {
	return errors.Is(err, ErrRateLimit) || errors.Is(err, ErrContextOverflow)
}

// ErrorCode is a machine-parseable error category for monitoring and alerting.
type ErrorCode string

// Error codes. Every sentinel error maps to exactly one code.
const (
	CodeUnknown           ErrorCode = "UNKNOWN"
	CodeInvalidInput      ErrorCode = "INVALID_INPUT"
	CodeTimeout           ErrorCode = "TIMEOUT"
	CodeSearchUnavailable ErrorCode = "SEARCH_UNAVAILABLE"
	CodeFetchFailed       ErrorCode = "FETCH_FAILED"
	CodeEmptyContent      ErrorCode = "EMPTY_CONTENT"
	CodeExtraction        ErrorCode = "EXTRACTION_FAILED"
	CodeProviderNotFound  ErrorCode = "PROVIDER_NOT_FOUND"
	CodeProviderError     ErrorCode = "PROVIDER_ERROR"
	CodeRunTerminal       ErrorCode = "RUN_TERMINAL"
	CodeConfigLoad        ErrorCode = "CONFIG_LOAD"
	CodeRateLimit         ErrorCode = "RATE_LIMIT"
	CodeContextOverflow   ErrorCode = "CONTEXT_OVERFLOW"
	CodeAuthInvalid       ErrorCode = "AUTH_INVALID"
	CodeBlockedURL        ErrorCode = "BLOCKED_URL"
)

// errorCodeMap maps sentinel errors to their machine-parseable codes.
var errorCodeMap = map[error]ErrorCode{
	ErrInvalidInput:      CodeInvalidInput,
	ErrTimeout:           CodeTimeout,
	ErrSearchUnavailable: CodeSearchUnavailable,
	ErrFetchFailed:       CodeFetchFailed,
	ErrEmptyContent:      CodeEmptyContent,
	ErrExtraction:        CodeExtraction,
	ErrProviderNotFound:  CodeProviderNotFound,
	ErrProviderError:     CodeProviderError,
	ErrRunTerminal:       CodeRunTerminal,
	ErrConfigLoad:        CodeConfigLoad,
	ErrRateLimit:         CodeRateLimit,
	ErrContextOverflow:   CodeContextOverflow,
	ErrAuthInvalid:       CodeAuthInvalid,
	ErrBlockedURL:        CodeBlockedURL,
}

// ErrorCodeOf returns the machine-parseable error code for the given error.
// It unwraps DomainError and uses errors.Is to match sentinel errors.
// Returns CodeUnknown if no matching sentinel is found.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}

	if code, ok := errorCodeMap[err]; ok {
		return code
	}

	var de *DomainError
	if errors.As(err, &de) {
		if code, ok := errorCodeMap[de.Err]; ok {
			return code
		}
	}

	for sentinel, code := range errorCodeMap {
		if errors.Is(err, sentinel) {
			return code
		}
	}

	return CodeUnknown
}

// Code returns the ErrorCode for this DomainError's underlying sentinel.
func (e *DomainError) Code() ErrorCode {
	if code, ok := errorCodeMap[e.Err]; ok {
		return code
	}
	return CodeUnknown
}
