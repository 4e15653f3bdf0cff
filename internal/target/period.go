package target

import (
	"time"

	"salesmonitor/backend/internal/domain"
)

// StartOfDay is 00:00:00.000 of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay is 23:59:59.999 of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// StatsForPeriod aggregates the sales dated within [start, end], both bounds
// widened to whole days. Sale events are counted per record; sales whose
// product is unknown only contribute to the visited-store count.
func StatsForPeriod(sales []domain.Sale, products []domain.Product, start, end time.Time) domain.PeriodStats {
	from := StartOfDay(start)
	to := EndOfDay(end)

	typeByID := make(map[string]domain.ProductType, len(products))
	for _, p := range products {
		typeByID[p.ID] = p.Type
	}

	visited := make(map[string]struct{})
	var stats domain.PeriodStats
	for _, sale := range sales {
		if sale.Date.Before(from) || sale.Date.After(to) {
			continue
		}
		visited[sale.StoreID] = struct{}{}

		productType, ok := typeByID[sale.ProductID]
		if !ok {
			continue
		}
		switch productType {
		case domain.ProductDD:
			stats.DDAchieved++
		case domain.ProductFokus:
			stats.FokusAchieved++
		}
	}
	stats.VisitedStores = len(visited)
	return stats
}
