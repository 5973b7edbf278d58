// internal/pipeline/grounding-fetcher/fetcher_test.go
package groundingfetcher

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"compair/internal/common/logger"
	"compair/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSearcher answers per query; a query listed in hang blocks until released,
// ignoring its context.
type stubSearcher struct {
	mu      sync.Mutex
	results map[string][]Snippet
	errs    map[string]error
	hang    map[string]bool
	release chan struct{}
	queries []string
}

func newStubSearcher() *stubSearcher {
	return &stubSearcher{
		results: map[string][]Snippet{},
		errs:    map[string]error{},
		hang:    map[string]bool{},
		release: make(chan struct{}),
	}
}

func (s *stubSearcher) Search(ctx context.Context, query string, count int) ([]Snippet, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	hang := s.hang[query]
	res, err := s.results[query], s.errs[query]
	s.mu.Unlock()

	if hang {
		<-s.release
	}
	return res, err
}

func createTestConfig() *Config {
	return &Config{
		OverallTimeout:   500 * time.Millisecond,
		ItemTimeout:      100 * time.Millisecond,
		ResultCount:      5,
		MaxSnippets:      2,
		MaxSnippetLength: 20,
	}
}

func TestBuildQuery(t *testing.T) {
	assert.Equal(t, "iPhone 15 Gadgets", BuildQuery(" iPhone 15 ", models.CategoryGadgets))
	assert.Equal(t, "Tea", BuildQuery("Tea", models.CategoryOther))
}

func TestFetch_PartialFailure(t *testing.T) {
	s := newStubSearcher()
	defer close(s.release)
	s.results["A1 Gadgets"] = []Snippet{{Title: "A1", Snippet: "fast", URL: "https://a.example"}}
	s.results["C1 Gadgets"] = []Snippet{{Title: "C1", Snippet: "slow", URL: "https://c.example"}}
	s.hang["B1 Gadgets"] = true

	f := New(createTestConfig(), s, logger.NewTestLogger(t))

	start := time.Now()
	bundle := f.Fetch(context.Background(), []string{"A1", "B1", "C1"}, models.CategoryGadgets)
	assert.Less(t, time.Since(start), 400*time.Millisecond)

	require.Len(t, bundle.Items, 3)
	assert.Equal(t, "A1", bundle.Items[0].Item)
	assert.False(t, bundle.Items[0].Failed)
	assert.Len(t, bundle.Items[0].Snippets, 1)

	assert.True(t, bundle.Items[1].Failed)
	assert.Contains(t, bundle.Items[1].Failure, ErrSearchTimeout.Error())
	assert.Empty(t, bundle.Items[1].Snippets)

	assert.False(t, bundle.Items[2].Failed)
	assert.True(t, bundle.Grounded())
	assert.Equal(t, 1, bundle.Failures())
}

func TestFetch_AllFail(t *testing.T) {
	s := newStubSearcher()
	s.errs["A1 Cars"] = ErrSearchUnavailable
	s.errs["B1 Cars"] = errors.New("boom")

	f := New(createTestConfig(), s, logger.NewTestLogger(t))
	bundle := f.Fetch(context.Background(), []string{"A1", "B1"}, models.CategoryCars)

	assert.False(t, bundle.Grounded())
	assert.Equal(t, 2, bundle.Failures())
}

func TestFetch_Disabled(t *testing.T) {
	f := New(createTestConfig(), nil, logger.NewNoOpLogger())
	bundle := f.Fetch(context.Background(), []string{"A1", "B1"}, models.CategoryCars)

	assert.False(t, bundle.Grounded())
	assert.Equal(t, 2, bundle.Failures())
	assert.Equal(t, ErrSearchDisabled.Error(), bundle.Items[0].Failure)
}

func TestFetch_Truncates(t *testing.T) {
	s := newStubSearcher()
	long := strings.Repeat("x", 50)
	s.results["A1"] = []Snippet{
		{Title: "one", Snippet: long},
		{Title: "", Snippet: "  "},
		{Title: "two", Snippet: "short"},
		{Title: "three", Snippet: "dropped"},
	}

	f := New(createTestConfig(), s, logger.NewNoOpLogger())
	bundle := f.Fetch(context.Background(), []string{"A1"}, models.CategoryOther)

	snippets := bundle.Items[0].Snippets
	require.Len(t, snippets, 2)
	assert.Equal(t, 20, len([]rune(snippets[0].Snippet)))
	assert.True(t, strings.HasSuffix(snippets[0].Snippet, "..."))
	assert.Equal(t, "two", snippets[1].Title)
}

func TestFetch_DedupesByURL(t *testing.T) {
	s := newStubSearcher()
	s.results["A1"] = []Snippet{
		{Title: "review", Snippet: "first", URL: "https://example.com/a"},
		{Title: "mirror", Snippet: "same page", URL: " https://example.com/a "},
		{Title: "specs", Snippet: "second", URL: "https://example.com/b"},
	}

	f := New(createTestConfig(), s, logger.NewNoOpLogger())
	bundle := f.Fetch(context.Background(), []string{"A1"}, models.CategoryOther)

	snippets := bundle.Items[0].Snippets
	require.Len(t, snippets, 2)
	assert.Equal(t, "https://example.com/a", snippets[0].URL)
	assert.Equal(t, "https://example.com/b", snippets[1].URL)
}

func TestFetch_EmptyResultsAreNotFailures(t *testing.T) {
	s := newStubSearcher()
	f := New(createTestConfig(), s, logger.NewNoOpLogger())
	bundle := f.Fetch(context.Background(), []string{"A1", "B1"}, models.CategoryOther)

	assert.Equal(t, 0, bundle.Failures())
	assert.False(t, bundle.Grounded())
}

func TestClip(t *testing.T) {
	assert.Equal(t, "abc", clip("abc", 5))
	assert.Equal(t, "ab...", clip("abcdefgh", 5))
	assert.Equal(t, "héllo wo...", clip("héllo world!", 11))
	assert.Equal(t, "ab", clip("abcdef", 2))
}
