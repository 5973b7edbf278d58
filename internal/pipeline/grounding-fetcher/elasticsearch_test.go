// internal/pipeline/grounding-fetcher/elasticsearch_test.go
package groundingfetcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestElasticsearch(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return client
}

func TestElasticsearchSearcher_Success(t *testing.T) {
	client := createTestElasticsearch(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/grounding/_search"))
		assert.Equal(t, "2", r.URL.Query().Get("size"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mm := body["query"].(map[string]interface{})["multi_match"].(map[string]interface{})
		assert.Equal(t, "Tesla Model 3 Cars", mm["query"])

		w.Write([]byte(`{"hits":{"hits":[
			{"_source":{"title":"Model 3","content":"Range 333 miles.","url":"https://tesla.example"}},
			{"_source":{"title":"Model 3 review","description":"Fun to drive.","url":"https://review.example"}}
		]}}`))
	})

	s := NewElasticsearchSearcher(client, "grounding")
	snippets, err := s.Search(context.Background(), "Tesla Model 3 Cars", 2)

	require.NoError(t, err)
	require.Len(t, snippets, 2)
	assert.Equal(t, "Range 333 miles.", snippets[0].Snippet)
	assert.Equal(t, "Fun to drive.", snippets[1].Snippet)
}

func TestElasticsearchSearcher_IndexMissing(t *testing.T) {
	client := createTestElasticsearch(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"type":"index_not_found_exception"},"status":404}`))
	})

	s := NewElasticsearchSearcher(client, "missing")
	_, err := s.Search(context.Background(), "x", 5)
	assert.ErrorIs(t, err, ErrSearchUnavailable)
}
