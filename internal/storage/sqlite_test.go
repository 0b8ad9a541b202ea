package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daisyflowers/budtender/internal/model"
)

func setupTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordSnapshot(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	snap := model.Snapshot{
		FetchedAt: time.Now(),
		Products:  []model.Product{{Name: "A"}, {Name: "B"}},
	}
	require.NoError(t, s.RecordSnapshot(ctx, snap))
	require.NoError(t, s.RecordSnapshot(ctx, snap))

	count, err := s.SnapshotCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestLogAndReadRecommendations(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, query := range []string{"flower please", "something different"} {
		require.NoError(t, s.LogRecommendation(ctx, Recommendation{
			SessionKey:   "ip|ua",
			Query:        query,
			Category:     "flower",
			ProductNames: []string{"Blue Dream", "Sour Diesel"},
			Response:     "Here you go.",
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}))
	}

	recs, err := s.RecentRecommendations(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	// Most recent first.
	assert.Equal(t, "something different", recs[0].Query)
	assert.Equal(t, []string{"Blue Dream", "Sour Diesel"}, recs[0].ProductNames)
	assert.Equal(t, "flower", recs[0].Category)
}

func TestRecentRecommendationsLimit(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.LogRecommendation(ctx, Recommendation{
			SessionKey: "k", Query: "q", Category: "none", Response: "r",
		}))
	}

	recs, err := s.RecentRecommendations(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestLogRecommendationEmptyProducts(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.LogRecommendation(ctx, Recommendation{
		SessionKey: "k", Query: "q", Category: "none", Response: "r",
	}))

	recs, err := s.RecentRecommendations(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Empty(t, recs[0].ProductNames)
}

func TestNewSQLiteStorageRequiresPath(t *testing.T) {
	_, err := NewSQLiteStorage("")
	require.Error(t, err)
}
