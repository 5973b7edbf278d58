// internal/pipeline/grounding-fetcher/brave.go
package groundingfetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"compair/internal/common/config"
	commonhttp "compair/internal/common/http"

	"golang.org/x/time/rate"
)

const DefaultBraveURL = "https://api.search.brave.com/res/v1/web/search"

type BraveConfig struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
}

func LoadBraveConfig(cfg *config.Config) *BraveConfig {
	c := &BraveConfig{
		BaseURL: DefaultBraveURL,
		Timeout: 10 * time.Second,
	}
	if cfg == nil {
		return c
	}
	if cfg.APIs.Search.BaseURL != "" {
		c.BaseURL = cfg.APIs.Search.BaseURL
	}
	c.APIKey = cfg.APIs.Search.APIKey
	if cfg.APIs.Search.Timeout > 0 {
		c.Timeout = config.GetDuration(cfg.APIs.Search.Timeout)
	}
	c.RequestsPerSecond = cfg.APIs.Search.RequestsPerSecond
	return c
}

// BraveSearcher queries the Brave web search API.
type BraveSearcher struct {
	config  *BraveConfig
	client  *commonhttp.Client
	limiter *rate.Limiter
}

func NewBraveSearcher(cfg *BraveConfig, client *commonhttp.Client) *BraveSearcher {
	if client == nil {
		client = commonhttp.NewClient(cfg.Timeout)
	}
	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		burst = int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
	}
	return &BraveSearcher{
		config:  cfg,
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
	}
}

type braveResponse struct {
	Web *struct {
		Results []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
		} `json:"results"`
	} `json:"web"`
}

func (b *BraveSearcher) Search(ctx context.Context, query string, count int) ([]Snippet, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrSearchTimeout, err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(count))
	params.Set("search_lang", "en")
	params.Set("country", "US")
	params.Set("safesearch", "moderate")
	params.Set("text_decorations", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.config.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.config.APIKey)

	body, err := b.client.GetBody(ctx, req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrSearchTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
	}

	var parsed braveResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if parsed.Web == nil {
		return []Snippet{}, nil
	}

	out := make([]Snippet, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		if count > 0 && len(out) >= count {
			break
		}
		out = append(out, Snippet{Title: r.Title, Snippet: r.Description, URL: r.URL})
	}
	return out, nil
}
