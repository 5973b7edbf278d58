// internal/pipeline/fingerprint-cache/cache.go
package fingerprintcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"compair/internal/common/logger"
	"compair/internal/common/metrics"
	"compair/internal/models"
	"compair/internal/store"
)

const (
	keyPrefix = "cache:"

	// noPreferences is the canonical preference segment when none were given.
	noPreferences = "{}"
)

var (
	ErrCacheUnavailable = errors.New("CACHE_UNAVAILABLE")
	ErrNotCacheable     = errors.New("CACHE_NOT_CACHEABLE")
)

// Compute derives the fingerprint of req: category, the lower-cased trimmed and
// sorted item set, and the canonical preferences.
func Compute(req models.ComparisonRequest) Fingerprint {
	items := make([]string, len(req.Items))
	for i, it := range req.Items {
		items[i] = strings.ToLower(strings.TrimSpace(it))
	}
	sort.Strings(items)

	prefs := noPreferences
	if req.HasPreferences() {
		b, err := json.Marshal(req.Preferences.Canonical())
		if err == nil {
			prefs = string(b)
		}
	}

	parts := []string{
		strings.ToLower(string(req.Category)),
		strings.Join(items, "\x1f"),
		prefs,
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1e")))
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// Cache is a TTL cache of comparable results keyed by fingerprint. Expired
// entries read as misses and are only removed by Sweep.
type Cache struct {
	config *Config
	store  store.Store
	logger logger.Logger
	now    func() time.Time
}

func New(cfg *Config, st store.Store, log logger.Logger) *Cache {
	if cfg == nil {
		cfg = &Config{TTL: DefaultTTL}
	}
	return &Cache{
		config: cfg,
		store:  st,
		logger: logger.ForComponent(log, "fingerprint-cache"),
		now:    time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

func key(fp Fingerprint) string {
	return keyPrefix + string(fp)
}

// Lookup returns the cached result for fp. ok is false on a miss or expiry.
func (c *Cache) Lookup(ctx context.Context, fp Fingerprint) (Hit, bool, error) {
	raw, err := c.store.Get(ctx, key(fp))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.CacheLookups.WithLabelValues("miss").Inc()
			return Hit{}, false, nil
		}
		return Hit{}, false, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.Warn("Discarding unreadable cache entry", map[string]interface{}{
			"fingerprint": string(fp),
			"error":       err.Error(),
		})
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return Hit{}, false, nil
	}

	if !c.now().Before(entry.ExpiresAt) {
		metrics.CacheLookups.WithLabelValues("expired").Inc()
		return Hit{}, false, nil
	}

	full, ok := entry.Result.Outcome().(models.Comparable)
	if !ok {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return Hit{}, false, nil
	}

	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return Hit{Result: full, Grounded: entry.Grounded, Created: entry.CreatedAt}, true, nil
}

// Store writes result under fp. A ttl of zero uses the configured TTL.
func (c *Cache) Store(ctx context.Context, fp Fingerprint, req models.ComparisonRequest, result models.Outcome, grounded bool, ttl time.Duration) error {
	full, ok := result.(models.Comparable)
	if !ok {
		return ErrNotCacheable
	}
	if ttl <= 0 {
		ttl = c.config.TTL
	}

	now := c.now().UTC()
	entry := Entry{
		Fingerprint: fp,
		Category:    req.Category,
		Items:       append([]string(nil), req.Items...),
		Result:      full.Document(),
		Grounded:    grounded,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := c.store.Put(ctx, key(fp), raw, ttl); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	c.logger.Debug("Cached comparison", map[string]interface{}{
		"fingerprint": string(fp),
		"expiresAt":   entry.ExpiresAt,
	})
	return nil
}

// Sweep deletes expired and unreadable entries and returns how many were removed.
func (c *Cache) Sweep(ctx context.Context) (int, error) {
	keys, err := c.store.List(ctx, keyPrefix)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	removed := 0
	now := c.now()
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		raw, err := c.store.Get(ctx, k)
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(raw, &entry); err == nil && now.Before(entry.ExpiresAt) {
			continue
		}
		if err := c.store.Delete(ctx, k); err != nil {
			return removed, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
		}
		removed++
	}

	if removed > 0 {
		c.logger.Info("Swept expired cache entries", map[string]interface{}{"removed": removed})
	}
	return removed, nil
}
