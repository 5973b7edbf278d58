// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
)

// StatusClientClosedRequest is written when the caller canceled the request.
const StatusClientClosedRequest = 499

// ErrorHandler renders pipeline errors as HTTP responses.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// ErrorResponse is the JSON body written for failed requests.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Category  string    `json:"category"`
}

// ToHTTPStatus maps an error code onto the status returned to clients.
func ToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInputValidation:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeLLMRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeLLMTimeout, ErrCodeSearchTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeLLMUnavailable, ErrCodeSearchUnavailable,
		ErrCodeCacheUnavailable, ErrCodeStoreUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeGenerationValidation:
		return http.StatusBadGateway
	case ErrCodeRequestCanceled:
		return StatusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// WriteError normalizes err, logs it and writes the JSON error body.
func (h *ErrorHandler) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := AsStandardError(err)
	status := ToHTTPStatus(stdErr.Code)

	if h.logger != nil {
		fields := map[string]interface{}{
			"errorCode": stdErr.Code,
			"message":   stdErr.Message,
			"details":   stdErr.Details,
			"status":    status,
			"category":  GetErrorCategory(stdErr.Code),
		}
		if r != nil {
			fields["path"] = r.URL.Path
			fields["method"] = r.Method
		}
		if stdErr.Code == ErrCodeRequestCanceled {
			h.logger.Info("Request canceled by client", fields)
		} else {
			h.logger.Error("Request failed", fields)
		}
	}

	WriteJSON(w, status, ErrorResponse{Error: ErrorBody{
		Code:      stdErr.Code,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Category:  GetErrorCategory(stdErr.Code),
	}})
}

// WriteJSON writes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
