// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "compair/internal/common/errors"
	"compair/internal/common/logger"
	"compair/internal/common/validation"
	"compair/internal/models"
	conversationmemory "compair/internal/pipeline/conversation-memory"
)

const maxBodyBytes = 64 << 10

// Service is the comparison pipeline as seen by the HTTP surface.
type Service interface {
	Compare(ctx context.Context, req models.ComparisonRequest) (models.Envelope, error)
	AskFollowup(ctx context.Context, comparisonID, question string) (conversationmemory.Reply, error)
	History(ctx context.Context, comparisonID string) ([]models.Message, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Recorder receives one observation per handled request.
type Recorder interface {
	RecordRequest(ctx context.Context, route string, status int, duration time.Duration)
}

type Handler struct {
	service  Service
	store    Pinger
	recorder Recorder
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(service Service, store Pinger, recorder Recorder, log logger.Logger) *Handler {
	log = logger.ForComponent(log, "api")
	return &Handler{
		service:  service,
		store:    store,
		recorder: recorder,
		errors:   apperrors.NewErrorHandler(log),
		logger:   log,
	}
}

// Routes registers the JSON endpoints. /metrics is mounted by the caller.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.Handle("POST /compare", h.instrument("/compare", h.handleCompare))
	mux.Handle("POST /ask-followup", h.instrument("/ask-followup", h.handleFollowup))
	mux.Handle("GET /followup-history/{id}", h.instrument("/followup-history", h.handleHistory))
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /health/store", h.handleStoreHealth)
}

func (h *Handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	var body CompareRequest
	if err := decodeAndValidate(w, r, compareSchema, &body); err != nil {
		h.errors.WriteError(w, r, err)
		return
	}

	req, err := models.NewComparisonRequest(body.Category, body.Items, body.Criteria, body.UserPreferences)
	if err != nil {
		h.errors.WriteError(w, r, err)
		return
	}

	env, err := h.service.Compare(r.Context(), req)
	if err != nil {
		h.errors.WriteError(w, r, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, newCompareResponse(env))
}

func (h *Handler) handleFollowup(w http.ResponseWriter, r *http.Request) {
	var body FollowupRequest
	if err := decodeAndValidate(w, r, followupSchema, &body); err != nil {
		h.errors.WriteError(w, r, err)
		return
	}

	reply, err := h.service.AskFollowup(r.Context(), strings.TrimSpace(body.ComparisonID), body.Question)
	if err != nil {
		h.errors.WriteError(w, r, err)
		return
	}

	history := reply.History
	if history == nil {
		history = []models.Message{}
	}
	apperrors.WriteJSON(w, http.StatusOK, FollowupResponse{
		Answer:              reply.Answer,
		ComparisonID:        reply.ComparisonID,
		ConversationHistory: history,
	})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	history, err := h.service.History(r.Context(), id)
	if err != nil {
		h.errors.WriteError(w, r, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, HistoryResponse{ComparisonID: id, History: history})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) handleStoreHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.errors.WriteError(w, r, apperrors.NewStoreUnavailableError(err))
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// decodeAndValidate checks the body shape against schema before decoding into dst.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, schema *validation.Schema, dst interface{}) error {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return apperrors.NewInputValidationError(fmt.Sprintf("read body: %v", err))
	}

	result, err := schema.ValidateBytes(raw)
	if err != nil {
		return apperrors.NewInputValidationError(fmt.Sprintf("body must be a JSON object: %v", err))
	}
	if !result.Valid {
		return apperrors.NewInputValidationError(strings.Join(result.GetErrorMessages(), "; "))
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return apperrors.NewInputValidationError(fmt.Sprintf("decode body: %v", err))
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) instrument(route string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		duration := time.Since(start)
		if h.recorder != nil {
			h.recorder.RecordRequest(r.Context(), route, rec.status, duration)
		}
		h.logger.Debug("Handled request", map[string]interface{}{
			"route":      route,
			"status":     rec.status,
			"durationMs": duration.Milliseconds(),
		})
	})
}
