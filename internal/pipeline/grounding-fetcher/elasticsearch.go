// internal/pipeline/grounding-fetcher/elasticsearch.go
package groundingfetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ElasticsearchSearcher runs a multi_match query against a self-hosted index of
// documents shaped {title, content, url}.
type ElasticsearchSearcher struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchSearcher(client *elasticsearch.Client, index string) *ElasticsearchSearcher {
	return &ElasticsearchSearcher{client: client, index: index}
}

type esSearchResponse struct {
	Hits struct {
		Hits []struct {
			Source struct {
				Title       string `json:"title"`
				Content     string `json:"content"`
				Description string `json:"description"`
				URL         string `json:"url"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func buildGroundingQuery(query string) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"title^2", "content", "description"},
				"type":   "best_fields",
			},
		},
		"_source": []string{"title", "content", "description", "url"},
	}
}

func (e *ElasticsearchSearcher) Search(ctx context.Context, query string, count int) ([]Snippet, error) {
	body, err := json.Marshal(buildGroundingQuery(query))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
	}

	size := count
	req := esapi.SearchRequest{
		Index: []string{e.index},
		Body:  strings.NewReader(string(body)),
		Size:  &size,
	}

	res, err := req.Do(ctx, e.client)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrSearchTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: search query failed: %s", ErrSearchUnavailable, res.Status())
	}

	var parsed esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	out := make([]Snippet, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		text := h.Source.Content
		if text == "" {
			text = h.Source.Description
		}
		out = append(out, Snippet{Title: h.Source.Title, Snippet: text, URL: h.Source.URL})
	}
	return out, nil
}
