package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/gridprofile/internal/analysis"
	"github.com/jgoulah/gridprofile/internal/cache"
	"github.com/jgoulah/gridprofile/pkg/models"
)

var _ cache.Store = (*DB)(nil)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "usage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func records(year int, month time.Month, values ...float64) []models.UsageRecord {
	out := make([]models.UsageRecord, len(values))
	start := models.NewPeriod(year, month)
	for i, v := range values {
		out[i] = models.UsageRecord{Period: start.AddMonths(i), KWh: v}
	}
	return out
}

func TestUpsertAndListUsage(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertUsage(ctx, "alice", models.SourceMonthly, records(2024, time.November, 700, 820, 790)))
	require.NoError(t, db.UpsertUsage(ctx, "bob", models.SourceDaily, records(2024, time.January, 1000)))

	usage, err := db.ListUsage(ctx, "alice", nil)
	require.NoError(t, err)
	require.Len(t, usage, 3)
	assert.Equal(t, models.NewPeriod(2024, time.November), usage[0].Period)
	assert.Equal(t, models.NewPeriod(2025, time.January), usage[2].Period)
	assert.Equal(t, 790.0, usage[2].KWh)
	assert.Equal(t, models.SourceMonthly, usage[0].Source)
	assert.False(t, usage[0].UpdatedAt.IsZero())

	users, err := db.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, users)
}

func TestUpsertReplacesExistingMonth(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertUsage(ctx, "alice", models.SourceDaily, records(2024, time.March, 400)))
	require.NoError(t, db.UpsertUsage(ctx, "alice", models.SourceManual, records(2024, time.March, 950)))

	got, err := db.Records(ctx, "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, records(2024, time.March, 950), got)

	usage, err := db.ListUsage(ctx, "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, models.SourceManual, usage[0].Source)
}

func TestListUsageWindow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.UpsertUsage(ctx, "alice", models.SourceMonthly, records(2024, time.January, 1, 2, 3, 4, 5, 6)))

	window := &models.Window{Start: models.NewPeriod(2024, time.February), End: models.NewPeriod(2024, time.April)}
	got, err := db.Records(ctx, "alice", window)
	require.NoError(t, err)
	assert.Equal(t, records(2024, time.February, 2, 3, 4), got)

	none, err := db.Records(ctx, "nobody", nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeleteUsage(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.UpsertUsage(ctx, "alice", models.SourceMonthly, records(2024, time.January, 1, 2)))

	deleted, err := db.DeleteUsage(ctx, "alice", models.NewPeriod(2024, time.January))
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = db.DeleteUsage(ctx, "alice", models.NewPeriod(2023, time.January))
	require.NoError(t, err)
	assert.False(t, deleted)

	got, err := db.Records(ctx, "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, records(2024, time.February, 2), got)
}

func TestProfileCacheExpiry(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return now }

	require.NoError(t, db.Set(ctx, "fresh", []byte(`{"a":1}`), time.Hour))
	require.NoError(t, db.Set(ctx, "stale", []byte(`{"b":2}`), time.Minute))

	value, found, err := db.Get(ctx, "fresh")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `{"a":1}`, string(value))

	now = now.Add(10 * time.Minute)
	_, found, err = db.Get(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, found)

	purged, err := db.PurgeExpiredProfiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	require.NoError(t, db.Delete(ctx, "fresh"))
	_, found, err = db.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestProfileCacheOverwrite(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Set(ctx, "k", []byte("one"), time.Hour))
	require.NoError(t, db.Set(ctx, "k", []byte("two"), time.Hour))

	value, found, err := db.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "two", string(value))

	cleared, err := db.ClearProfiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)
}

func TestCachedAnalysisSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.db")
	ctx := context.Background()
	req := analysis.Request{
		UserID:  "alice",
		Records: records(2024, time.January, 800, 800, 1000, 1000, 1000, 1600, 1600, 1600, 1200, 1200, 1200, 800),
	}

	db, err := New(path)
	require.NoError(t, err)
	first, err := cache.NewAnalyzer(db, analysis.DefaultConfig(), cache.Options{}).Analyze(ctx, req)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = New(path)
	require.NoError(t, err)
	defer db.Close()

	_, found, err := db.Get(ctx, cache.Key(req.UserID, cache.Fingerprint(analysis.DefaultConfig(), req.Records, nil)))
	require.NoError(t, err)
	require.True(t, found)

	second, err := cache.NewAnalyzer(db, analysis.DefaultConfig(), cache.Options{}).Analyze(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
