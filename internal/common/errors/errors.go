// Package errors provides the standardized error taxonomy surfaced by the comparison pipeline.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInputValidation ErrorCode = "INPUT_VALIDATION_FAILED"
	ErrCodeNotFound        ErrorCode = "CONVERSATION_NOT_FOUND"

	ErrCodeGenerationValidation ErrorCode = "GENERATION_VALIDATION_FAILED"
	ErrCodeLLMTimeout           ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMRateLimited       ErrorCode = "LLM_RATE_LIMITED"
	ErrCodeLLMUnavailable       ErrorCode = "LLM_UNAVAILABLE"

	ErrCodeSearchTimeout     ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeSearchUnavailable ErrorCode = "SEARCH_UNAVAILABLE"

	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"

	ErrCodeRequestCanceled ErrorCode = "REQUEST_CANCELED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause so errors.Is keeps matching component sentinels.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches another StandardError carrying the same code.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewInputValidationError rejects a request before any external call is made.
func NewInputValidationError(details string) *StandardError {
	return newError(ErrCodeInputValidation, "Invalid comparison request", details, false, nil)
}

// NewNotFoundError reports an unknown conversation.
func NewNotFoundError(comparisonID string) *StandardError {
	return newError(ErrCodeNotFound, "Comparison not found. Please create a comparison first.",
		fmt.Sprintf("comparisonId: %s", comparisonID), false, nil)
}

// NewGenerationValidationError is terminal: the model output never satisfied the schema.
func NewGenerationValidationError(attempts int, err error) *StandardError {
	return newError(ErrCodeGenerationValidation, "Model output failed schema validation",
		fmt.Sprintf("attempts: %d, error: %v", attempts, err), false, err)
}

func NewLLMTimeoutError(err error) *StandardError {
	return newError(ErrCodeLLMTimeout, "Generative model timeout", errDetails(err), true, err)
}

func NewLLMRateLimitedError(err error) *StandardError {
	return newError(ErrCodeLLMRateLimited, "Generative model rate limited", errDetails(err), true, err)
}

func NewLLMUnavailableError(err error) *StandardError {
	return newError(ErrCodeLLMUnavailable, "Generative model unavailable", errDetails(err), true, err)
}

func NewSearchTimeoutError(item string) *StandardError {
	return newError(ErrCodeSearchTimeout, "Search provider timeout", fmt.Sprintf("item: %s", item), false, nil)
}

func NewSearchUnavailableError(err error) *StandardError {
	return newError(ErrCodeSearchUnavailable, "Search provider unavailable", errDetails(err), false, err)
}

func NewCacheUnavailableError(err error) *StandardError {
	return newError(ErrCodeCacheUnavailable, "Comparison cache unavailable", errDetails(err), true, err)
}

func NewStoreUnavailableError(err error) *StandardError {
	return newError(ErrCodeStoreUnavailable, "Conversation store unavailable", errDetails(err), true, err)
}

// NewRequestCanceledError reports a caller that went away before the pipeline finished.
func NewRequestCanceledError(err error) *StandardError {
	return newError(ErrCodeRequestCanceled, "Request canceled by client", errDetails(err), false, err)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", errDetails(err), false, err)
}

func errDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// AsStandardError normalizes any error into a StandardError.
func AsStandardError(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeLLMRateLimited,
		ErrCodeCacheUnavailable,
		ErrCodeStoreUnavailable:
		return 3

	case ErrCodeLLMUnavailable:
		return 2

	case ErrCodeLLMTimeout:
		return 1

	default:
		return 0
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "LLM") || strings.Contains(codeStr, "GENERATION"):
		return "AI"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "CACHE") || strings.Contains(codeStr, "STORE"):
		return "STORAGE"
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "NOT_FOUND"):
		return "VALIDATION"
	case strings.Contains(codeStr, "CANCELED"):
		return "CLIENT"
	default:
		return "OTHER"
	}
}
