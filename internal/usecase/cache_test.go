package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbdElbassetKh/PharmaCentral/internal/logging"
)

func TestCacheKeyNormalizesWhitespace(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CacheKey("new  drug\napproved"), CacheKey("new drug approved"))
}

func TestCacheKeyUsesPrefixOnly(t *testing.T) {
	t.Parallel()

	long := make([]byte, 0, 300)
	for i := 0; i < 300; i++ {
		long = append(long, byte('a'+i%26))
	}
	full := string(long)

	assert.Equal(t, CacheKey(full), CacheKey(full+" trailing difference"))
}

func TestCacheKeyFallsBackToDigestForWideRunes(t *testing.T) {
	t.Parallel()

	key := CacheKey("تمت الموافقة على عقار جديد")
	require.NotEmpty(t, key)
	assert.Equal(t, byte('h'), key[0])
	assert.NotEqual(t, key, CacheKey("نص آخر تماما"))
}

func TestTranslationCachePutThenGet(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	cache := NewTranslationCache(repo, logging.Discard(), nil)
	ctx := context.Background()

	cache.Put(ctx, "New drug approved", "تمت الموافقة على عقار جديد")

	got, ok := cache.Get(ctx, "New drug approved")
	require.True(t, ok)
	assert.Equal(t, "تمت الموافقة على عقار جديد", got)

	// A fresh cache over the same repository still finds the entry.
	rehydrated := NewTranslationCache(repo, logging.Discard(), nil)
	got, ok = rehydrated.Get(ctx, "New drug approved")
	require.True(t, ok)
	assert.Equal(t, "تمت الموافقة على عقار جديد", got)
}

func TestTranslationCacheExpiresAfterSevenDays(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	repo := newMemoryRepo()
	cache := NewTranslationCache(repo, logging.Discard(), clock)
	ctx := context.Background()

	cache.Put(ctx, "aspirin dosage", "جرعة الأسبرين")

	now = now.Add(6 * 24 * time.Hour)
	_, ok := cache.Get(ctx, "aspirin dosage")
	assert.True(t, ok, "entry younger than 7 days must survive")

	now = now.Add(2 * 24 * time.Hour)
	_, ok = cache.Get(ctx, "aspirin dosage")
	assert.False(t, ok, "entry older than 7 days is treated as absent")

	// Lazy purge removed the row from the repository as well.
	_, ok, err := repo.Get(ctx, CacheKey("aspirin dosage"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTranslationCacheDegradesOnRepositoryFailure(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	repo.failReads = true
	cache := NewTranslationCache(repo, logging.Discard(), nil)

	_, ok := cache.Get(context.Background(), "anything")
	assert.False(t, ok, "read failures degrade to a miss, never an error")
}
