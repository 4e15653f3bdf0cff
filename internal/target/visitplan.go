package target

import (
	"sort"
	"time"

	"salesmonitor/backend/internal/domain"
)

// ResolveDay filters stores down to the ones planned for day. A nil day means
// no filter and returns stores as given; a day with no plan yields an empty,
// non-nil slice.
func ResolveDay(plan domain.VisitPlan, day *domain.Weekday, stores []domain.Store) []domain.Store {
	if day == nil {
		return stores
	}

	planned := make(map[string]struct{}, len(plan[*day]))
	for _, id := range plan[*day] {
		planned[id] = struct{}{}
	}

	out := make([]domain.Store, 0, len(planned))
	for _, s := range stores {
		if _, ok := planned[s.ID]; ok {
			out = append(out, s)
		}
	}
	return out
}

// ToggleStore returns a copy of selected with storeID's membership flipped.
func ToggleStore(selected map[string]struct{}, storeID string) map[string]struct{} {
	next := make(map[string]struct{}, len(selected)+1)
	for id := range selected {
		next[id] = struct{}{}
	}
	if _, ok := next[storeID]; ok {
		delete(next, storeID)
	} else {
		next[storeID] = struct{}{}
	}
	return next
}

// NormalizePlanDay deduplicates storeIDs and drops ids not present in stores.
// The result is sorted so that equal plans compare equal.
func NormalizePlanDay(storeIDs []string, stores []domain.Store) []string {
	known := make(map[string]struct{}, len(stores))
	for _, s := range stores {
		known[s.ID] = struct{}{}
	}

	seen := make(map[string]struct{}, len(storeIDs))
	out := make([]string, 0, len(storeIDs))
	for _, id := range storeIDs {
		if _, ok := known[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// WeekDays builds the Monday..Saturday planning cards for today's week.
func WeekDays(today time.Time, plan domain.VisitPlan) []domain.WeekDay {
	monday := WeekStart(today)
	todayStart := StartOfDay(today)

	days := make([]domain.WeekDay, 0, int(domain.Saturday))
	for d := domain.Monday; d <= domain.Saturday; d++ {
		date := monday.AddDate(0, 0, int(d)-1)
		days = append(days, domain.WeekDay{
			Day:        d,
			Name:       d.Name(),
			Date:       date.Day(),
			IsToday:    date.Equal(todayStart),
			StoreCount: len(plan[d]),
		})
	}
	return days
}
