// internal/common/errors/handler_test.go
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	messages []string
	infos    []string
}

func (l *recordingLogger) Info(msg string, fields map[string]interface{}) {
	l.infos = append(l.infos, msg)
}

func (l *recordingLogger) Error(msg string, fields map[string]interface{}) {
	l.messages = append(l.messages, msg)
}

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeInputValidation, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeLLMRateLimited, http.StatusTooManyRequests},
		{ErrCodeLLMTimeout, http.StatusGatewayTimeout},
		{ErrCodeSearchTimeout, http.StatusGatewayTimeout},
		{ErrCodeLLMUnavailable, http.StatusServiceUnavailable},
		{ErrCodeStoreUnavailable, http.StatusServiceUnavailable},
		{ErrCodeGenerationValidation, http.StatusBadGateway},
		{ErrCodeRequestCanceled, StatusClientClosedRequest},
		{ErrCodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, ToHTTPStatus(tt.code))
		})
	}
}

func TestWriteError_StandardError(t *testing.T) {
	log := &recordingLogger{}
	h := NewErrorHandler(log)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ask-followup", nil)
	h.WriteError(rec, req, NewNotFoundError("abc"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ErrCodeNotFound, body.Error.Code)
	assert.Equal(t, "VALIDATION", body.Error.Category)
	assert.Len(t, log.messages, 1)
}

func TestWriteError_PlainErrorBecomesInternal(t *testing.T) {
	h := NewErrorHandler(nil)

	rec := httptest.NewRecorder()
	h.WriteError(rec, nil, fmt.Errorf("boom"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ErrCodeInternal, body.Error.Code)
}

func TestWriteError_CanceledIsNotAServerError(t *testing.T) {
	log := &recordingLogger{}
	h := NewErrorHandler(log)

	rec := httptest.NewRecorder()
	h.WriteError(rec, httptest.NewRequest(http.MethodPost, "/compare", nil), NewRequestCanceledError(context.Canceled))

	assert.Equal(t, StatusClientClosedRequest, rec.Code)
	assert.Empty(t, log.messages)
	assert.Equal(t, []string{"Request canceled by client"}, log.infos)
	assert.Equal(t, "CLIENT", GetErrorCategory(ErrCodeRequestCanceled))
}

func TestAsStandardError_UnwrapsChain(t *testing.T) {
	cause := stderrors.New("connection refused")
	wrapped := fmt.Errorf("compare: %w", NewLLMUnavailableError(cause))

	stdErr := AsStandardError(wrapped)
	require.NotNil(t, stdErr)
	assert.Equal(t, ErrCodeLLMUnavailable, stdErr.Code)
	assert.True(t, stderrors.Is(wrapped, cause))
	assert.True(t, stderrors.Is(wrapped, &StandardError{Code: ErrCodeLLMUnavailable}))
	assert.Nil(t, AsStandardError(nil))
}

func TestRetryPolicy(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeLLMRateLimited))
	assert.False(t, IsRetryableErrorCode(ErrCodeInputValidation))
	assert.False(t, IsRetryableErrorCode(ErrCodeGenerationValidation))
	assert.Equal(t, "AI", GetErrorCategory(ErrCodeGenerationValidation))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeSearchTimeout))
	assert.Equal(t, "STORAGE", GetErrorCategory(ErrCodeCacheUnavailable))
}
