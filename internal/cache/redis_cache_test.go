package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesmonitor/backend/internal/domain"
)

func newTestCache(t *testing.T) (*RedisDashboardCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewRedisDashboardCache(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisDashboardCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	require.NoError(t, c.Ping(ctx))

	day := domain.Wednesday
	summary := &domain.DashboardSummary{
		Date:            "2024-01-10",
		SnapshotVersion: 4,
		TotalStores:     12,
		StoreGoal:       96,
		SelectedDay:     &day,
		Targets:         domain.TargetTotals{DDMet: 1, DDTotal: 2},
	}
	key := DashboardKey(4, "2024-01-10", &day)

	require.NoError(t, c.Set(ctx, key, summary, 30*time.Second))
	assert.Equal(t, 30*time.Second, mr.TTL(key))

	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 12, got.TotalStores)
	require.NotNil(t, got.SelectedDay)
	assert.Equal(t, domain.Wednesday, *got.SelectedDay)
	assert.Equal(t, summary.Targets, got.Targets)

	mr.FastForward(31 * time.Second)
	_, ok, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisDashboardCacheMissAndNil(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	_, ok, err := c.Get(ctx, "salesmonitor:dashboard:missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", nil, time.Minute))
	assert.False(t, mr.Exists("k"))
}

func TestRedisDashboardCacheCorruptPayload(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("bad", "{not json"))

	_, ok, err := c.Get(ctx, "bad")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestDashboardKey(t *testing.T) {
	monday := domain.Monday
	base := DashboardKey(3, "2024-01-08", nil)

	assert.True(t, strings.HasPrefix(base, "salesmonitor:dashboard:"))
	assert.Equal(t, base, DashboardKey(3, "2024-01-08", nil))
	assert.NotEqual(t, base, DashboardKey(4, "2024-01-08", nil))
	assert.NotEqual(t, base, DashboardKey(3, "2024-01-09", nil))
	assert.NotEqual(t, base, DashboardKey(3, "2024-01-08", &monday))
}

func TestNoopDashboardCache(t *testing.T) {
	var c DashboardCache = NoopDashboardCache{}
	require.NoError(t, c.Set(context.Background(), "k", &domain.DashboardSummary{}, time.Minute))
	got, ok, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}
