package activity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/cloudconsole/internal/types"
)

func testEntry(cloudID, category, weight, summary string, hoursAgo int) types.ActivityEntry {
	return types.ActivityEntry{
		EventID:    "test-" + summary,
		EventType:  "cloud.updated",
		OccurredAt: time.Now().Add(-time.Duration(hoursAgo) * time.Hour),
		CloudID:    cloudID,
		CloudName:  "name-" + cloudID,
		Summary:    summary,
		Category:   category,
		Weight:     weight,
		Polarity:   "neutral",
	}
}

func TestMemoryStore_QueryByCloud(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	require.NoError(t, store.WriteEntries(ctx, []types.ActivityEntry{
		testEntry("a", "inventory", "info", "older", 10),
		testEntry("a", "monitoring", "moderate", "newer", 5),
		testEntry("b", "inventory", "info", "other", 1),
	}))

	results, cursor, total, err := store.QueryByCloud(ctx, "a", DefaultQueryOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Empty(t, cursor)
	require.Len(t, results, 2)
	assert.Equal(t, "newer", results[0].Summary)

	opts := DefaultQueryOptions()
	opts.Categories = []string{"inventory"}
	results, _, _, err = store.QueryByCloud(ctx, "a", opts)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "older", results[0].Summary)

	opts = DefaultQueryOptions()
	opts.MinWeight = "moderate"
	results, _, _, err = store.QueryByCloud(ctx, "a", opts)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "newer", results[0].Summary)
}

func TestMemoryStore_QueryByCloud_Pagination(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	for i := range 5 {
		require.NoError(t, store.WriteEntries(ctx, []types.ActivityEntry{testEntry("a", "inventory", "info", "e", i+1)}))
	}
	opts := DefaultQueryOptions()
	opts.Limit = 2
	page, cursor, total, err := store.QueryByCloud(ctx, "a", opts)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page, 2)
	require.NotEmpty(t, cursor)

	opts.Cursor = cursor
	page2, _, _, err := store.QueryByCloud(ctx, "a", opts)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.True(t, page2[0].OccurredAt.Before(page[1].OccurredAt))
}

func TestMemoryStore_Search(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	require.NoError(t, store.WriteEntries(ctx, []types.ActivityEntry{
		testEntry("a", "inventory", "info", "Cloud account connected", 3),
		testEntry("b", "scanning", "weak", "Scheduled scan disabled", 2),
	}))

	results, total, err := store.Search(ctx, "SCAN", DefaultSearchOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "b", results[0].CloudID)

	results, _, err = store.Search(ctx, "name-a", DefaultSearchOptions())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].CloudID)
}

func TestMemoryStore_RecentAndCapacity(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(2)
	require.NoError(t, store.WriteEntries(ctx, []types.ActivityEntry{
		testEntry("a", "inventory", "info", "first", 3),
		testEntry("a", "inventory", "info", "second", 2),
		testEntry("a", "inventory", "info", "third", 1),
	}))

	recent, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "third", recent[0].Summary)
	assert.Equal(t, "second", recent[1].Summary)

	recent, err = store.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	empty, err := NewMemoryStore(0).Recent(ctx, 10)
	require.NoError(t, err)
	assert.NotNil(t, empty)
}
