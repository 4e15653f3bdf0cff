package target

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"salesmonitor/backend/internal/domain"
)

func TestWeekStart(t *testing.T) {
	monday := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		today time.Time
	}{
		{"monday morning", time.Date(2024, 1, 8, 7, 15, 0, 0, time.UTC)},
		{"wednesday", time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)},
		{"saturday", time.Date(2024, 1, 13, 18, 0, 0, 0, time.UTC)},
		{"sunday late", time.Date(2024, 1, 14, 23, 59, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, monday, WeekStart(tc.today))
		})
	}
}

func TestWeekStartMondayIsToday(t *testing.T) {
	today := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, today, WeekStart(today))
}

func TestWeekStartSundayIsSixDaysPrior(t *testing.T) {
	sunday := time.Date(2024, 2, 11, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), WeekStart(sunday))
}

func TestWeekStartKeepsLocation(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	// 2024-01-07 20:00 UTC is already Monday 03:00 in Jakarta.
	today := time.Date(2024, 1, 7, 20, 0, 0, 0, time.UTC).In(jakarta)
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, jakarta), WeekStart(today))
}

func TestWeeklyComparisonWindows(t *testing.T) {
	products := []domain.Product{
		{ID: "dd1", Type: domain.ProductDD},
		{ID: "f1", Type: domain.ProductFokus},
	}
	sales := []domain.Sale{
		saleAt("a", "dd1", time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)),
		saleAt("a", "f1", time.Date(2024, 1, 14, 23, 0, 0, 0, time.UTC)),
		saleAt("b", "dd1", time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)),
		saleAt("c", "dd1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		saleAt("c", "f1", time.Date(2024, 1, 7, 23, 59, 59, 0, time.UTC)),
		saleAt("d", "f1", time.Date(2023, 12, 31, 12, 0, 0, 0, time.UTC)),
		saleAt("e", "dd1", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)),
	}

	cmp := WeeklyComparison(sales, products, time.Date(2024, 1, 11, 16, 0, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), cmp.WeekStart)
	assert.Equal(t, time.Date(2024, 1, 14, 23, 59, 59, 999000000, time.UTC), cmp.WeekEnd)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), cmp.LastWeekStart)
	assert.Equal(t, time.Date(2024, 1, 7, 23, 59, 59, 999000000, time.UTC), cmp.LastWeekEnd)

	assert.Equal(t, domain.PeriodStats{VisitedStores: 2, DDAchieved: 2, FokusAchieved: 1}, cmp.ThisWeek)
	assert.Equal(t, domain.PeriodStats{VisitedStores: 1, DDAchieved: 1, FokusAchieved: 1}, cmp.LastWeek)

	deltas := CompareWeeks(cmp)
	assert.Equal(t, domain.MetricDelta{Current: 2, Previous: 1, Change: 1, Trend: domain.TrendUp}, deltas.VisitedStores)
	assert.Equal(t, 1, deltas.DDAchieved.Change)
	assert.Equal(t, domain.TrendFlat, deltas.FokusAchieved.Trend)
}

func TestTrendOf(t *testing.T) {
	assert.Equal(t, domain.TrendUp, TrendOf(3))
	assert.Equal(t, domain.TrendDown, TrendOf(-1))
	assert.Equal(t, domain.TrendFlat, TrendOf(0))
}
