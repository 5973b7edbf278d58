// internal/api/handler_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "compair/internal/common/errors"
	"compair/internal/common/logger"
	"compair/internal/models"
	conversationmemory "compair/internal/pipeline/conversation-memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	lastRequest models.ComparisonRequest
	envelope    models.Envelope
	reply       conversationmemory.Reply
	history     []models.Message
	err         error
}

func (s *stubService) Compare(ctx context.Context, req models.ComparisonRequest) (models.Envelope, error) {
	s.lastRequest = req
	return s.envelope, s.err
}

func (s *stubService) AskFollowup(ctx context.Context, comparisonID, question string) (conversationmemory.Reply, error) {
	return s.reply, s.err
}

func (s *stubService) History(ctx context.Context, comparisonID string) ([]models.Message, error) {
	return s.history, s.err
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

type countingRecorder struct {
	routes []string
	codes  []int
}

func (c *countingRecorder) RecordRequest(ctx context.Context, route string, status int, duration time.Duration) {
	c.routes = append(c.routes, route)
	c.codes = append(c.codes, status)
}

func setupServer(t *testing.T, svc Service, pinger Pinger) (*httptest.Server, *countingRecorder) {
	t.Helper()
	rec := &countingRecorder{}
	mux := http.NewServeMux()
	NewHandler(svc, pinger, rec, logger.NewNoOpLogger()).Routes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, rec
}

func postJSON(t *testing.T, url string, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestCompare_FlattensEnvelope(t *testing.T) {
	svc := &stubService{envelope: models.Envelope{
		ComparisonID: "cmp-1",
		Category:     models.CategoryGadgets,
		Items:        []string{"iPhone 15 Pro", "Galaxy S24 Ultra"},
		Grounded:     true,
		CreatedAt:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Outcome: models.Comparable{
			Introduction:   "Two phones.",
			Table:          []models.Row{{"feature": "Display", "iPhone 15 Pro": "6.1 in", "Galaxy S24 Ultra": "6.8 in"}},
			Pros:           []string{"p"},
			Cons:           []string{"c"},
			Recommendation: "Depends on screen size.",
		},
	}}
	server, rec := setupServer(t, svc, stubPinger{})

	resp, out := postJSON(t, server.URL+"/compare", `{
		"category": "gadgets",
		"items": [" iPhone 15 Pro ", "Galaxy S24 Ultra"],
		"user_preferences": {"priorities": ["Camera Quality"]}
	}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cmp-1", out["comparison_id"])
	assert.Equal(t, "Depends on screen size.", out["recommendation"])
	assert.Equal(t, true, out["grounded"])
	assert.NotContains(t, out, "message")
	assert.NotContains(t, out, "personalized_winner")

	assert.Equal(t, models.CategoryGadgets, svc.lastRequest.Category)
	assert.Equal(t, "iPhone 15 Pro", svc.lastRequest.Items[0])
	assert.True(t, svc.lastRequest.HasPreferences())
	assert.Equal(t, []string{"/compare"}, rec.routes)
	assert.Equal(t, []int{http.StatusOK}, rec.codes)
}

func TestCompare_MessageVariant(t *testing.T) {
	svc := &stubService{envelope: models.Envelope{
		Category: models.CategoryGadgets,
		Items:    []string{"a", "b"},
		Outcome:  models.NotComparable{Message: models.MessageUnclearItems},
	}}
	server, _ := setupServer(t, svc, stubPinger{})

	resp, out := postJSON(t, server.URL+"/compare", `{"category": "Gadgets", "items": ["a", "b"]}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.MessageUnclearItems, out["message"])
	assert.NotContains(t, out, "table")
	assert.NotContains(t, out, "recommendation")
	assert.NotContains(t, out, "comparison_id")
}

func TestCompare_RejectsMalformedBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `category=Gadgets`},
		{"missing items", `{"category": "Gadgets"}`},
		{"one item", `{"category": "Gadgets", "items": ["iPhone 15 Pro"]}`},
		{"five items", `{"category": "Gadgets", "items": ["a1", "b2", "c3", "d4", "e5"]}`},
		{"items not strings", `{"category": "Gadgets", "items": [1, 2]}`},
		{"null category", `{"category": null, "items": ["x1", "y2"]}`},
		{"null items", `{"category": "Gadgets", "items": null}`},
		{"array body", `[{"category": "Gadgets"}]`},
		{"bad priority", `{"category": "Gadgets", "items": ["x1", "y2"], "user_preferences": {"priorities": ["Horsepower"]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{}
			server, _ := setupServer(t, svc, stubPinger{})

			resp, out := postJSON(t, server.URL+"/compare", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body := out["error"].(map[string]interface{})
			assert.Equal(t, string(apperrors.ErrCodeInputValidation), body["code"])
			assert.Empty(t, svc.lastRequest.Items)
		})
	}
}

func TestCompare_AcceptsNullOptionalFields(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantPrefs bool
	}{
		{"null preferences", `{"category": "Gadgets", "items": ["iPhone 15 Pro", "Galaxy S24 Ultra"], "user_preferences": null}`, false},
		{"null criteria", `{"category": "Gadgets", "items": ["iPhone 15 Pro", "Galaxy S24 Ultra"], "criteria": null}`, false},
		{"null priorities", `{"category": "Gadgets", "items": ["iPhone 15 Pro", "Galaxy S24 Ultra"], "user_preferences": {"priorities": null, "budget": "under $1000"}}`, true},
		{"null preference fields", `{"category": "Gadgets", "items": ["iPhone 15 Pro", "Galaxy S24 Ultra"], "user_preferences": {"priorities": null, "budget": null, "use_case": null}}`, false},
		{"extra field ignored", `{"category": "Gadgets", "items": ["iPhone 15 Pro", "Galaxy S24 Ultra"], "theme": "dark"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{envelope: models.Envelope{
				Category: models.CategoryGadgets,
				Items:    []string{"iPhone 15 Pro", "Galaxy S24 Ultra"},
				Outcome:  models.Comparable{Recommendation: "Either."},
			}}
			server, _ := setupServer(t, svc, stubPinger{})

			resp, out := postJSON(t, server.URL+"/compare", tt.body)
			require.Equal(t, http.StatusOK, resp.StatusCode, "body: %v", out)
			assert.Equal(t, []string{"iPhone 15 Pro", "Galaxy S24 Ultra"}, svc.lastRequest.Items)
			assert.Empty(t, svc.lastRequest.Criteria)
			assert.Equal(t, tt.wantPrefs, svc.lastRequest.HasPreferences())
		})
	}
}

func TestCompare_MapsPipelineErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{apperrors.NewGenerationValidationError(3, errors.New("bad output")), http.StatusBadGateway},
		{apperrors.NewLLMUnavailableError(errors.New("down")), http.StatusServiceUnavailable},
		{apperrors.NewLLMRateLimitedError(errors.New("429")), http.StatusTooManyRequests},
		{apperrors.NewLLMTimeoutError(errors.New("deadline")), http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		svc := &stubService{err: tt.err}
		server, _ := setupServer(t, svc, stubPinger{})
		resp, _ := postJSON(t, server.URL+"/compare", `{"category": "Gadgets", "items": ["iPhone 15 Pro", "Galaxy S24 Ultra"]}`)
		assert.Equal(t, tt.status, resp.StatusCode, tt.err.Error())
	}
}

func TestAskFollowup(t *testing.T) {
	now := time.Now().UTC()
	svc := &stubService{reply: conversationmemory.Reply{
		ComparisonID: "cmp-1",
		Answer:       "The Galaxy.",
		History: []models.Message{
			{Role: models.RoleUser, Content: "Which is bigger?", Timestamp: now},
			{Role: models.RoleAssistant, Content: "The Galaxy.", Timestamp: now},
		},
	}}
	server, _ := setupServer(t, svc, stubPinger{})

	resp, out := postJSON(t, server.URL+"/ask-followup", `{"comparison_id": "cmp-1", "question": "Which is bigger?"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "The Galaxy.", out["answer"])
	assert.Equal(t, "cmp-1", out["comparison_id"])
	assert.Len(t, out["conversation_history"], 2)

	resp, _ = postJSON(t, server.URL+"/ask-followup", `{"comparison_id": "cmp-1"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAskFollowup_NotFound(t *testing.T) {
	svc := &stubService{err: apperrors.NewNotFoundError("missing")}
	server, _ := setupServer(t, svc, stubPinger{})

	resp, out := postJSON(t, server.URL+"/ask-followup", `{"comparison_id": "missing", "question": "hi"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := out["error"].(map[string]interface{})
	assert.Equal(t, string(apperrors.ErrCodeNotFound), body["code"])
}

func TestFollowupHistory(t *testing.T) {
	svc := &stubService{history: []models.Message{}}
	server, _ := setupServer(t, svc, stubPinger{})

	resp, err := http.Get(server.URL + "/followup-history/cmp-1")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out HistoryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cmp-1", out.ComparisonID)
	assert.NotNil(t, out.History)
}

func TestHealth(t *testing.T) {
	server, _ := setupServer(t, &stubService{}, stubPinger{err: errors.New("redis down")})

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/health/store")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
