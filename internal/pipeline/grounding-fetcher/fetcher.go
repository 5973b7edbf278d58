// internal/pipeline/grounding-fetcher/fetcher.go
package groundingfetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"compair/internal/common/logger"
	"compair/internal/common/metrics"
	"compair/internal/models"

	"golang.org/x/sync/errgroup"
)

var (
	ErrSearchTimeout     = errors.New("SEARCH_TIMEOUT")
	ErrSearchUnavailable = errors.New("SEARCH_UNAVAILABLE")
	ErrMalformedPayload  = errors.New("SEARCH_MALFORMED_PAYLOAD")
	ErrSearchDisabled    = errors.New("SEARCH_DISABLED")
)

// Searcher is the external search capability.
type Searcher interface {
	Search(ctx context.Context, query string, count int) ([]Snippet, error)
}

// Fetcher gathers grounding for every item in parallel. A failed item never
// fails the bundle.
type Fetcher struct {
	config   *Config
	searcher Searcher
	logger   logger.Logger
}

// New builds a Fetcher. A nil searcher disables grounding.
func New(cfg *Config, searcher Searcher, log logger.Logger) *Fetcher {
	if cfg == nil {
		cfg = LoadConfig(nil)
	}
	return &Fetcher{
		config:   cfg,
		searcher: searcher,
		logger:   logger.ForComponent(log, "grounding-fetcher"),
	}
}

// BuildQuery adds the category as context unless it is Other.
func BuildQuery(item string, category models.Category) string {
	item = strings.TrimSpace(item)
	if category == "" || category == models.CategoryOther {
		return item
	}
	return item + " " + string(category)
}

// Fetch returns within the overall timeout regardless of how the searcher behaves.
func (f *Fetcher) Fetch(ctx context.Context, items []string, category models.Category) Bundle {
	bundle := Bundle{Items: make([]ItemGrounding, len(items))}
	for i, item := range items {
		bundle.Items[i] = ItemGrounding{Item: item, Query: BuildQuery(item, category), Snippets: []Snippet{}}
	}

	if f.searcher == nil {
		for i := range bundle.Items {
			bundle.Items[i].Failed = true
			bundle.Items[i].Failure = ErrSearchDisabled.Error()
			bundle.Items[i].Err = ErrSearchDisabled
		}
		return bundle
	}

	overallCtx, cancel := context.WithTimeout(ctx, f.config.OverallTimeout)
	defer cancel()

	start := time.Now()
	g, gctx := errgroup.WithContext(overallCtx)
	for i := range bundle.Items {
		g.Go(func() error {
			f.fetchOne(gctx, &bundle.Items[i])
			return nil
		})
	}
	_ = g.Wait()

	fields := map[string]interface{}{
		"items":      len(items),
		"failures":   bundle.Failures(),
		"grounded":   bundle.Grounded(),
		"durationMs": time.Since(start).Milliseconds(),
	}
	if bundle.Failures() == len(items) && len(items) > 0 {
		f.logger.Warn("All grounding fetches failed, continuing ungrounded", fields)
	} else {
		f.logger.Info("Grounding complete", fields)
	}
	return bundle
}

type searchResult struct {
	snippets []Snippet
	err      error
}

func (f *Fetcher) fetchOne(ctx context.Context, ig *ItemGrounding) {
	itemCtx, cancel := context.WithTimeout(ctx, f.config.ItemTimeout)
	defer cancel()

	done := make(chan searchResult, 1)
	go func() {
		snippets, err := f.searcher.Search(itemCtx, ig.Query, f.config.ResultCount)
		done <- searchResult{snippets: snippets, err: err}
	}()

	var res searchResult
	select {
	case res = <-done:
	case <-itemCtx.Done():
		res = searchResult{err: fmt.Errorf("%w: %v", ErrSearchTimeout, itemCtx.Err())}
	}

	if res.err != nil {
		if errors.Is(res.err, context.DeadlineExceeded) && !errors.Is(res.err, ErrSearchTimeout) {
			res.err = fmt.Errorf("%w: %v", ErrSearchTimeout, res.err)
		}
		ig.Failed = true
		ig.Failure = res.err.Error()
		ig.Err = res.err
		outcome := "error"
		if errors.Is(res.err, ErrSearchTimeout) {
			outcome = "timeout"
		}
		metrics.GroundingFetches.WithLabelValues(outcome).Inc()
		f.logger.Warn("Grounding fetch failed", map[string]interface{}{
			"item":  ig.Item,
			"query": ig.Query,
			"error": res.err.Error(),
		})
		return
	}

	ig.Snippets = f.truncate(res.snippets)
	if len(ig.Snippets) == 0 {
		metrics.GroundingFetches.WithLabelValues("empty").Inc()
		return
	}
	metrics.GroundingFetches.WithLabelValues("ok").Inc()
}

// truncate drops repeated URLs, then bounds the snippet count and the length of
// each text field.
func (f *Fetcher) truncate(in []Snippet) []Snippet {
	seen := make(map[string]bool)
	out := make([]Snippet, 0, len(in))
	for _, s := range in {
		if len(out) >= f.config.MaxSnippets {
			break
		}
		text := strings.TrimSpace(s.Snippet)
		if text == "" && strings.TrimSpace(s.Title) == "" {
			continue
		}

		link := strings.TrimSpace(s.URL)
		if link != "" {
			if seen[link] {
				continue
			}
			seen[link] = true
		}

		out = append(out, Snippet{
			Title:   clip(strings.TrimSpace(s.Title), f.config.MaxSnippetLength),
			Snippet: clip(text, f.config.MaxSnippetLength),
			URL:     link,
		})
	}
	return out
}

func clip(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 3 {
		return string(r[:limit])
	}
	return string(r[:limit-3]) + "..."
}
