// internal/pipeline/fingerprint-cache/cache_test.go
package fingerprintcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"compair/internal/common/logger"
	"compair/internal/models"
	"compair/internal/store"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestRequest(items ...string) models.ComparisonRequest {
	return models.ComparisonRequest{Category: models.CategoryGadgets, Items: items}
}

func createTestResult() models.Comparable {
	return models.Comparable{
		Introduction:   "Let's compare iPhone 15 Pro and Galaxy S24 Ultra.",
		Table:          []models.Row{{"feature": "Price", "iPhone 15 Pro": "$999", "Galaxy S24 Ultra": "$1299"}},
		Pros:           []string{"iPhone 15 Pro: ecosystem"},
		Cons:           []string{"Galaxy S24 Ultra: price"},
		Recommendation: "Both are excellent.",
	}
}

func TestCompute_OrderInsensitive(t *testing.T) {
	a := Compute(createTestRequest("iPhone 15 Pro", "Galaxy S24 Ultra"))
	b := Compute(createTestRequest("galaxy s24 ultra ", " IPHONE 15 PRO"))
	assert.Equal(t, a, b)
}

func TestCompute_PreferenceSensitive(t *testing.T) {
	plain := createTestRequest("iPhone 15 Pro", "Galaxy S24 Ultra")
	withPrefs := plain
	withPrefs.Preferences = &models.UserPreferences{Priorities: []string{"Camera Quality"}}
	emptyPrefs := plain
	emptyPrefs.Preferences = &models.UserPreferences{Priorities: []string{"  "}}

	assert.NotEqual(t, Compute(plain), Compute(withPrefs))
	assert.Equal(t, Compute(plain), Compute(emptyPrefs))

	reordered := plain
	reordered.Preferences = &models.UserPreferences{Priorities: []string{"price", "Camera Quality"}}
	other := plain
	other.Preferences = &models.UserPreferences{Priorities: []string{"camera quality", "Price"}}
	assert.Equal(t, Compute(reordered), Compute(other))
}

func TestCompute_CategorySensitive(t *testing.T) {
	gadgets := createTestRequest("Model S", "Model 3")
	cars := gadgets
	cars.Category = models.CategoryCars
	assert.NotEqual(t, Compute(gadgets), Compute(cars))
}

func TestCache_RoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	st := store.NewMemoryStore().WithClock(func() time.Time { return now })
	cache := New(&Config{TTL: 24 * time.Hour}, st, logger.NewTestLogger(t))

	cacheNow := now
	cache.WithClock(func() time.Time { return cacheNow })

	req := createTestRequest("iPhone 15 Pro", "Galaxy S24 Ultra")
	fp := Compute(req)
	want := createTestResult()

	_, ok, err := cache.Lookup(ctx, fp)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Store(ctx, fp, req, want, true, 0))

	hit, ok, err := cache.Lookup(ctx, fp)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want.Document(), hit.Result.Document())
	assert.True(t, hit.Grounded)

	cacheNow = now.Add(25 * time.Hour)
	_, ok, err = cache.Lookup(ctx, fp)
	require.NoError(t, err)
	assert.False(t, ok, "expired entries read as misses")
}

func TestCache_RejectsMessageVariant(t *testing.T) {
	cache := New(nil, store.NewMemoryStore(), logger.NewNoOpLogger())
	req := createTestRequest("a", "b")
	err := cache.Store(context.Background(), Compute(req), req, models.NotComparable{Message: "nope"}, false, 0)
	assert.ErrorIs(t, err, ErrNotCacheable)
}

func TestCache_Sweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	st := store.NewMemoryStore()
	cache := New(&Config{TTL: time.Hour}, st, logger.NewTestLogger(t))
	cache.WithClock(func() time.Time { return now })

	oldReq := createTestRequest("Pixel 8", "Pixel 9")
	require.NoError(t, cache.Store(ctx, Compute(oldReq), oldReq, createTestResult(), false, time.Minute))
	freshReq := createTestRequest("iPhone 15", "iPhone 16")
	require.NoError(t, cache.Store(ctx, Compute(freshReq), freshReq, createTestResult(), false, 0))
	require.NoError(t, st.Put(ctx, "cache:garbage", []byte("not json"), 0))

	now = now.Add(10 * time.Minute)
	removed, err := cache.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, ok, err := cache.Lookup(ctx, Compute(freshReq))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCache_StoreUnavailable(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := New(nil, store.NewRedisStore(client), logger.NewNoOpLogger())

	fp := Fingerprint("abc")
	mock.ExpectGet("cache:abc").SetErr(errors.New("dial tcp: connection refused"))

	_, ok, err := cache.Lookup(context.Background(), fp)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrCacheUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}
