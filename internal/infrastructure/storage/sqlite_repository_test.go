package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbdElbassetKh/PharmaCentral/internal/domain"
)

func openTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "pharmacentral.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	repo := openTestRepo(t)
	ctx := context.Background()

	refreshedAt := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	articles := []domain.Article{
		{
			ID:                "fiercepharma-0-1",
			Title:             "New antibiotic clears phase three",
			Excerpt:           "Trial data released this morning.",
			URL:               "https://example.org/a1",
			Source:            "fiercepharma",
			Category:          "industry",
			LocalizedCategory: "صناعة",
			Tags:              []string{"trials", "antibiotics"},
			PublishedAt:       refreshedAt.Add(-2 * time.Hour),
			FetchedAt:         refreshedAt,
			LocalizedTitle:    "مضاد حيوي جديد يجتاز المرحلة الثالثة",
		},
		{
			ID:        "drugs-com-0-1",
			Title:     "Recall notice issued",
			Source:    "drugs-com",
			Category:  "safety",
			Tags:      []string{"safety"},
			FetchedAt: refreshedAt,
		},
	}

	require.NoError(t, repo.SaveSnapshot(ctx, articles, refreshedAt))

	loaded, lastUpdate, err := repo.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.True(t, lastUpdate.Equal(refreshedAt))

	require.Len(t, loaded, 2)
	assert.Equal(t, "fiercepharma-0-1", loaded[0].ID, "saved order is preserved")
	assert.Equal(t, "drugs-com-0-1", loaded[1].ID)
	assert.Equal(t, []string{"trials", "antibiotics"}, loaded[0].Tags)
	assert.Equal(t, "مضاد حيوي جديد يجتاز المرحلة الثالثة", loaded[0].LocalizedTitle)
	assert.True(t, loaded[0].PublishedAt.Equal(refreshedAt.Add(-2*time.Hour)))
}

func TestSaveSnapshotReplacesPreviousOne(t *testing.T) {
	t.Parallel()

	repo := openTestRepo(t)
	ctx := context.Background()

	first := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveSnapshot(ctx, []domain.Article{
		{ID: "old-0-1", Title: "Old headline", Source: "who-news", FetchedAt: first},
	}, first))

	second := first.Add(30 * time.Minute)
	require.NoError(t, repo.SaveSnapshot(ctx, []domain.Article{
		{ID: "new-0-1", Title: "Fresh headline", Source: "who-news", FetchedAt: second},
		{ID: "new-0-2", Title: "Another one", Source: "who-news", FetchedAt: second},
	}, second))

	loaded, lastUpdate, err := repo.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.True(t, lastUpdate.Equal(second))
	require.Len(t, loaded, 2)
	assert.Equal(t, "new-0-1", loaded[0].ID)
}

func TestLoadSnapshotFromEmptyDatabase(t *testing.T) {
	t.Parallel()

	repo := openTestRepo(t)

	articles, lastUpdate, err := repo.LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, articles)
	assert.True(t, lastUpdate.IsZero())
}

func TestTranslationEntryLifecycle(t *testing.T) {
	t.Parallel()

	repo := openTestRepo(t)
	ctx := context.Background()

	createdAt := time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)
	entry := domain.TranslationEntry{
		Key:         "QSBuZXcgZHJ1Zw",
		Original:    "A new drug",
		Translation: "عقار جديد",
		CreatedAt:   createdAt,
	}

	_, found, err := repo.Get(ctx, entry.Key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Put(ctx, entry))

	got, found, err := repo.Get(ctx, entry.Key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, entry.Original, got.Original)
	assert.Equal(t, entry.Translation, got.Translation)
	assert.True(t, got.CreatedAt.Equal(createdAt))

	// Upsert overwrites in place.
	entry.Translation = "دواء جديد"
	require.NoError(t, repo.Put(ctx, entry))
	got, found, err = repo.Get(ctx, entry.Key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "دواء جديد", got.Translation)

	require.NoError(t, repo.Delete(ctx, entry.Key))
	_, found, err = repo.Get(ctx, entry.Key)
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting an absent key is a no-op.
	require.NoError(t, repo.Delete(ctx, "missing"))
}
