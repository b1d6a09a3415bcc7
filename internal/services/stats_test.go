package services

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personcam/internal/models"
	"personcam/internal/repository/sqlite"
)

func newStatsFixture(t *testing.T) (*StatsService, *sqlite.DetectionRepository) {
	t.Helper()

	db, err := sqlite.New(filepath.Join(t.TempDir(), "stats.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := sqlite.NewDetectionRepository(db)
	return NewStatsService(repo), repo
}

func TestStatsService_EmptyStore(t *testing.T) {
	stats, _ := newStatsFixture(t)

	snap, err := stats.Snapshot()
	require.NoError(t, err)

	assert.Zero(t, snap.LiveCount)
	assert.Zero(t, snap.TotalDetections)
	assert.Zero(t, snap.TotalPersons)
	assert.Zero(t, snap.TodayDetections)
	assert.Equal(t, 0.0, snap.AvgPersons, "average is defined as 0 with no detections")
}

func TestStatsService_Aggregates(t *testing.T) {
	stats, repo := newStatsFixture(t)

	for _, count := range []int{1, 2, 2} {
		_, err := repo.Insert(&models.DetectionEvent{PersonCount: count, ImagePath: "d.jpg"})
		require.NoError(t, err)
	}

	snap, err := stats.Snapshot()
	require.NoError(t, err)

	assert.Equal(t, 2, snap.LiveCount, "live count tracks the newest event")
	assert.Equal(t, 3, snap.TotalDetections)
	assert.Equal(t, 5, snap.TotalPersons)
	assert.Equal(t, 3, snap.TodayDetections)
	assert.Equal(t, 5, snap.TodayPersons)
	assert.Equal(t, 1.67, snap.AvgPersons, "5/3 rounded to two decimals")
}

func TestStatsService_AvgRounding(t *testing.T) {
	stats, repo := newStatsFixture(t)

	for _, count := range []int{1, 0} {
		_, err := repo.Insert(&models.DetectionEvent{PersonCount: count, ImagePath: "d.jpg"})
		require.NoError(t, err)
	}

	snap, err := stats.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 0.5, snap.AvgPersons)
}
