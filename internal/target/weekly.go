package target

import (
	"time"

	"salesmonitor/backend/internal/domain"
)

// WeekStart returns midnight of the Monday that opens today's week. Sunday is
// the seventh day of the week that began the Monday before it.
func WeekStart(today time.Time) time.Time {
	day := StartOfDay(today)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// WeeklyComparison runs StatsForPeriod over the current Monday-start week and
// the one before it.
func WeeklyComparison(sales []domain.Sale, products []domain.Product, today time.Time) domain.WeeklyComparison {
	weekStart := WeekStart(today)
	weekEnd := EndOfDay(weekStart.AddDate(0, 0, 6))
	lastWeekStart := weekStart.AddDate(0, 0, -7)
	lastWeekEnd := EndOfDay(lastWeekStart.AddDate(0, 0, 6))

	return domain.WeeklyComparison{
		WeekStart:     weekStart,
		WeekEnd:       weekEnd,
		LastWeekStart: lastWeekStart,
		LastWeekEnd:   lastWeekEnd,
		ThisWeek:      StatsForPeriod(sales, products, weekStart, weekEnd),
		LastWeek:      StatsForPeriod(sales, products, lastWeekStart, lastWeekEnd),
	}
}

// CompareWeeks turns a weekly comparison into per-metric deltas.
func CompareWeeks(cmp domain.WeeklyComparison) domain.WeeklyDeltas {
	return domain.WeeklyDeltas{
		VisitedStores: Delta(cmp.ThisWeek.VisitedStores, cmp.LastWeek.VisitedStores),
		DDAchieved:    Delta(cmp.ThisWeek.DDAchieved, cmp.LastWeek.DDAchieved),
		FokusAchieved: Delta(cmp.ThisWeek.FokusAchieved, cmp.LastWeek.FokusAchieved),
	}
}

func Delta(current, previous int) domain.MetricDelta {
	change := current - previous
	return domain.MetricDelta{
		Current:  current,
		Previous: previous,
		Change:   change,
		Trend:    TrendOf(change),
	}
}

func TrendOf(change int) domain.Trend {
	switch {
	case change > 0:
		return domain.TrendUp
	case change < 0:
		return domain.TrendDown
	default:
		return domain.TrendFlat
	}
}
