// internal/pipeline/grounding-fetcher/brave_test.go
package groundingfetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createBraveConfig(url string) *BraveConfig {
	return &BraveConfig{
		BaseURL: url,
		APIKey:  "test-token",
		Timeout: 2 * time.Second,
	}
}

func TestBraveSearcher_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		q := r.URL.Query()
		assert.Equal(t, "iPhone 15 Pro Gadgets", q.Get("q"))
		assert.Equal(t, "3", q.Get("count"))
		assert.Equal(t, "en", q.Get("search_lang"))
		assert.Equal(t, "US", q.Get("country"))
		assert.Equal(t, "moderate", q.Get("safesearch"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"web":{"results":[
			{"title":"Apple iPhone 15 Pro","description":"Titanium design, A17 Pro chip.","url":"https://apple.example/15pro"},
			{"title":"Review","description":"Great camera.","url":"https://review.example"}
		]}}`))
	}))
	defer server.Close()

	s := NewBraveSearcher(createBraveConfig(server.URL), nil)
	snippets, err := s.Search(context.Background(), "iPhone 15 Pro Gadgets", 3)

	require.NoError(t, err)
	require.Len(t, snippets, 2)
	assert.Equal(t, "Apple iPhone 15 Pro", snippets[0].Title)
	assert.Equal(t, "Titanium design, A17 Pro chip.", snippets[0].Snippet)
	assert.Equal(t, "https://apple.example/15pro", snippets[0].URL)
}

func TestBraveSearcher_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr: ErrSearchUnavailable,
		},
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			wantErr: ErrSearchUnavailable,
		},
		{
			name: "malformed payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"web": [`))
			},
			wantErr: ErrMalformedPayload,
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-time.After(500 * time.Millisecond):
				case <-r.Context().Done():
				}
			},
			wantErr: ErrSearchTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			s := NewBraveSearcher(createBraveConfig(server.URL), nil)
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			_, err := s.Search(ctx, "anything", 5)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBraveSearcher_NoWebSection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"query":{"original":"x"}}`))
	}))
	defer server.Close()

	s := NewBraveSearcher(createBraveConfig(server.URL), nil)
	snippets, err := s.Search(context.Background(), "x", 5)
	require.NoError(t, err)
	assert.Empty(t, snippets)
}
