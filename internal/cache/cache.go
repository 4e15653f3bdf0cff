package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"salesmonitor/backend/internal/domain"
)

const keyPrefix = "salesmonitor:dashboard:"

type DashboardCache interface {
	Get(ctx context.Context, key string) (*domain.DashboardSummary, bool, error)
	Set(ctx context.Context, key string, value *domain.DashboardSummary, ttl time.Duration) error
}

type NoopDashboardCache struct{}

func (NoopDashboardCache) Get(_ context.Context, _ string) (*domain.DashboardSummary, bool, error) {
	return nil, false, nil
}

func (NoopDashboardCache) Set(_ context.Context, _ string, _ *domain.DashboardSummary, _ time.Duration) error {
	return nil
}

// DashboardKey identifies a summary by the data version it was built from, the
// local date it was built for and the selected planning day. Any mutation bumps
// the version, so stale entries are simply never read again.
func DashboardKey(version uint64, date string, day *domain.Weekday) string {
	selected := 0
	if day != nil {
		selected = int(*day)
	}
	sum := sha1.Sum([]byte(fmt.Sprintf("%d|%s|%d", version, date, selected)))
	return keyPrefix + hex.EncodeToString(sum[:])
}
