// internal/pipeline/comparison-orchestrator/models.go
package comparisonorchestrator

import (
	"context"
	"time"

	"compair/internal/models"
	conversationmemory "compair/internal/pipeline/conversation-memory"
	fingerprintcache "compair/internal/pipeline/fingerprint-cache"
	groundingfetcher "compair/internal/pipeline/grounding-fetcher"
	promptcomposer "compair/internal/pipeline/prompt-composer"
	structuredgenerator "compair/internal/pipeline/structured-generator"
)

type Cache interface {
	Lookup(ctx context.Context, fp fingerprintcache.Fingerprint) (fingerprintcache.Hit, bool, error)
	Store(ctx context.Context, fp fingerprintcache.Fingerprint, req models.ComparisonRequest, result models.Outcome, grounded bool, ttl time.Duration) error
}

type Grounder interface {
	Fetch(ctx context.Context, items []string, category models.Category) groundingfetcher.Bundle
}

type Composer interface {
	ComposeForComparison(req models.ComparisonRequest, bundle groundingfetcher.Bundle) promptcomposer.Prompt
}

type Generator interface {
	Generate(ctx context.Context, prompt promptcomposer.Prompt, exp structuredgenerator.Expectations) (models.Outcome, error)
}

type Memory interface {
	Seed(ctx context.Context, comparisonID string, result models.Outcome, items []string, category models.Category) error
	AppendAndAsk(ctx context.Context, comparisonID, question string) (conversationmemory.Reply, error)
	History(ctx context.Context, comparisonID string) ([]models.Message, error)
}

// generated is the shared product of one pipeline run.
type generated struct {
	outcome  models.Outcome
	grounded bool
}
