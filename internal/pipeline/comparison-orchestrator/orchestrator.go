// internal/pipeline/comparison-orchestrator/orchestrator.go
package comparisonorchestrator

import (
	"context"
	"errors"
	"time"

	"compair/internal/common/config"
	apperrors "compair/internal/common/errors"
	"compair/internal/common/logger"
	"compair/internal/common/metrics"
	"compair/internal/models"
	conversationmemory "compair/internal/pipeline/conversation-memory"
	fingerprintcache "compair/internal/pipeline/fingerprint-cache"
	groundingfetcher "compair/internal/pipeline/grounding-fetcher"
	structuredgenerator "compair/internal/pipeline/structured-generator"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Orchestrator runs one comparison request through cache, grounding, composition,
// generation, cache write and memory seeding. A request passes each state once.
type Orchestrator struct {
	config    *Config
	cache     Cache
	grounder  Grounder
	composer  Composer
	generator Generator
	memory    Memory
	logger    logger.Logger

	inflight singleflight.Group
	newID    func() string
	now      func() time.Time
}

func New(cfg *Config, cache Cache, grounder Grounder, composer Composer, generator Generator, memory Memory, log logger.Logger) *Orchestrator {
	if cfg == nil {
		cfg = LoadConfig(nil)
	}
	return &Orchestrator{
		config:    cfg,
		cache:     cache,
		grounder:  grounder,
		composer:  composer,
		generator: generator,
		memory:    memory,
		logger:    logger.ForComponent(log, "comparison-orchestrator"),
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// Compare returns an envelope carrying either a comparison or a can't-compare message.
// Errors are *apperrors.StandardError.
func (o *Orchestrator) Compare(ctx context.Context, req models.ComparisonRequest) (models.Envelope, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		o.record("failed", start)
		return models.Envelope{}, apperrors.AsStandardError(err)
	}

	env := models.Envelope{
		Category:  req.Category,
		Items:     append([]string(nil), req.Items...),
		CreatedAt: o.now().UTC(),
	}

	if msg, rejected := req.PreScreen(); rejected {
		o.logger.Info("Request rejected by pre-screen", map[string]interface{}{
			"category": string(req.Category),
			"message":  msg.Message,
		})
		env.Outcome = msg
		o.record("not_comparable", start)
		return env, nil
	}

	fp := fingerprintcache.Compute(req)
	log := o.logger.With(map[string]interface{}{"fingerprint": string(fp)})

	hit, ok, err := o.cache.Lookup(ctx, fp)
	if err != nil {
		o.degrade(log, "Cache lookup failed, treating as miss", apperrors.NewCacheUnavailableError(err))
	}
	if ok {
		env.Outcome = hit.Result
		env.Grounded = hit.Grounded
		env.Cached = true
		env.ComparisonID = o.seed(ctx, hit.Result, req)
		log.Info("Served comparison from cache", map[string]interface{}{"comparisonId": env.ComparisonID})
		o.record("comparable", start)
		return env, nil
	}

	result, err := o.run(ctx, req, fp)
	if err != nil {
		stdErr := o.mapError(ctx, err, "")
		if stdErr.Code == apperrors.ErrCodeRequestCanceled {
			log.Info("Comparison abandoned by caller", nil)
			o.record("canceled", start)
			return models.Envelope{}, stdErr
		}
		log.Error("Comparison failed", map[string]interface{}{
			"code":  string(stdErr.Code),
			"error": err.Error(),
		})
		o.record("failed", start)
		return models.Envelope{}, stdErr
	}

	env.Outcome = result.outcome
	env.Grounded = result.grounded
	if _, full := result.outcome.(models.Comparable); !full {
		o.record("not_comparable", start)
		return env, nil
	}

	env.ComparisonID = o.seed(ctx, result.outcome, req)
	log.Info("Comparison complete", map[string]interface{}{
		"comparisonId": env.ComparisonID,
		"grounded":     env.Grounded,
		"durationMs":   time.Since(start).Milliseconds(),
	})
	o.record("comparable", start)
	return env, nil
}

// run applies the in-flight policy. Under "wait" identical fingerprints share one
// pipeline run, detached from any single caller's cancellation.
func (o *Orchestrator) run(ctx context.Context, req models.ComparisonRequest, fp fingerprintcache.Fingerprint) (generated, error) {
	if o.config.InflightPolicy == config.InflightRace {
		runCtx, cancel := context.WithTimeout(ctx, o.config.RequestTimeout)
		defer cancel()
		return o.generate(runCtx, req, fp)
	}

	leader := false
	ch := o.inflight.DoChan(string(fp), func() (interface{}, error) {
		leader = true
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.config.RequestTimeout)
		defer cancel()
		return o.generate(runCtx, req, fp)
	})

	select {
	case res := <-ch:
		if res.Shared && !leader {
			metrics.InflightJoins.Inc()
		}
		if res.Err != nil {
			return generated{}, res.Err
		}
		return res.Val.(generated), nil
	case <-ctx.Done():
		return generated{}, ctx.Err()
	}
}

func (o *Orchestrator) generate(ctx context.Context, req models.ComparisonRequest, fp fingerprintcache.Fingerprint) (generated, error) {
	bundle := o.grounder.Fetch(ctx, req.Items, req.Category)
	log := o.logger.With(map[string]interface{}{"fingerprint": string(fp)})
	for _, stdErr := range groundingDegradations(bundle) {
		o.degrade(log, "Grounding degraded", stdErr)
	}
	prompt := o.composer.ComposeForComparison(req, bundle)

	log.Debug("Composed comparison prompt", map[string]interface{}{
		"instructionsLength": len(prompt.Instructions),
		"contentLength":      len(prompt.Content),
	})

	outcome, err := o.generator.Generate(ctx, prompt, structuredgenerator.Expectations{
		Items:         req.Items,
		RequireWinner: req.HasPreferences(),
	})
	if err != nil {
		return generated{}, err
	}

	result := generated{outcome: outcome, grounded: bundle.Grounded()}
	if _, full := outcome.(models.Comparable); full {
		if err := o.cache.Store(ctx, fp, req, outcome, result.grounded, o.config.CacheTTL); err != nil {
			o.degrade(log, "Cache write failed", apperrors.NewCacheUnavailableError(err))
		}
	}
	return result, nil
}

// seed mints a comparison id and starts its follow-up thread. An empty id means
// follow-ups are unavailable for this result.
func (o *Orchestrator) seed(ctx context.Context, outcome models.Outcome, req models.ComparisonRequest) string {
	id := o.newID()
	if err := o.memory.Seed(ctx, id, outcome, req.Items, req.Category); err != nil {
		o.degrade(o.logger.With(map[string]interface{}{"comparisonId": id}),
			"Failed to seed conversation thread", apperrors.NewStoreUnavailableError(err))
		return ""
	}
	return id
}

// AskFollowup answers a question about a seeded comparison.
func (o *Orchestrator) AskFollowup(ctx context.Context, comparisonID, question string) (conversationmemory.Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.RequestTimeout)
	defer cancel()

	reply, err := o.memory.AppendAndAsk(ctx, comparisonID, question)
	if err != nil {
		return conversationmemory.Reply{}, o.mapError(ctx, err, comparisonID)
	}
	return reply, nil
}

// History returns the follow-up turns of a seeded comparison.
func (o *Orchestrator) History(ctx context.Context, comparisonID string) ([]models.Message, error) {
	history, err := o.memory.History(ctx, comparisonID)
	if err != nil {
		return nil, o.mapError(ctx, err, comparisonID)
	}
	if history == nil {
		history = []models.Message{}
	}
	return history, nil
}

func (o *Orchestrator) mapError(ctx context.Context, err error, comparisonID string) *apperrors.StandardError {
	var stdErr *apperrors.StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(ctx.Err(), context.Canceled):
		return apperrors.NewRequestCanceledError(err)
	case errors.Is(err, conversationmemory.ErrNotFound):
		return apperrors.NewNotFoundError(comparisonID)
	case errors.Is(err, conversationmemory.ErrEmptyQuestion):
		return apperrors.NewInputValidationError("question is required")
	case errors.Is(err, conversationmemory.ErrStoreUnavailable):
		return apperrors.NewStoreUnavailableError(err)
	case errors.Is(err, structuredgenerator.ErrSchemaViolation):
		return apperrors.NewGenerationValidationError(o.config.GenerationAttempts, err)
	case errors.Is(err, structuredgenerator.ErrModelRateLimited):
		return apperrors.NewLLMRateLimitedError(err)
	case errors.Is(err, structuredgenerator.ErrModelTimeout), errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewLLMTimeoutError(err)
	case errors.Is(err, structuredgenerator.ErrModelUnavailable):
		return apperrors.NewLLMUnavailableError(err)
	default:
		return apperrors.NewInternalError(err)
	}
}

func (o *Orchestrator) record(outcome string, start time.Time) {
	metrics.Comparisons.WithLabelValues(outcome).Inc()
	metrics.ComparisonDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

// degrade records an upstream failure the pipeline absorbs instead of returning.
func (o *Orchestrator) degrade(log logger.Logger, msg string, stdErr *apperrors.StandardError) {
	metrics.Degradations.WithLabelValues(string(stdErr.Code)).Inc()
	log.Warn(msg, map[string]interface{}{
		"code":     string(stdErr.Code),
		"category": apperrors.GetErrorCategory(stdErr.Code),
		"details":  stdErr.Details,
	})
}

// groundingDegradations maps failed item fetches to error codes. A disabled
// searcher is configuration, not a failure.
func groundingDegradations(bundle groundingfetcher.Bundle) []*apperrors.StandardError {
	var out []*apperrors.StandardError
	for _, ig := range bundle.Items {
		if !ig.Failed || errors.Is(ig.Err, groundingfetcher.ErrSearchDisabled) {
			continue
		}
		if errors.Is(ig.Err, groundingfetcher.ErrSearchTimeout) {
			out = append(out, apperrors.NewSearchTimeoutError(ig.Item))
			continue
		}
		err := ig.Err
		if err == nil {
			err = errors.New(ig.Failure)
		}
		out = append(out, apperrors.NewSearchUnavailableError(err))
	}
	return out
}
