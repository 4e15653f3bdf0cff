package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"salesmonitor/backend/internal/cache"
	"salesmonitor/backend/internal/domain"
	"salesmonitor/backend/internal/metrics"
	"salesmonitor/backend/internal/target"
)

// Dashboard returns the summary for today, optionally narrowed to the stores
// planned for day. Summaries are cached per snapshot version, so any mutation
// invalidates them without explicit eviction.
func (s *Service) Dashboard(ctx context.Context, day *domain.Weekday) (domain.DashboardSummary, error) {
	if day != nil && !day.Valid() {
		return domain.DashboardSummary{}, ErrValidation
	}

	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return domain.DashboardSummary{}, err
	}

	now := s.today()
	key := cache.DashboardKey(snap.Version, now.Format("2006-01-02"), day)

	cached, found, err := s.dashboard.Get(ctx, key)
	if err != nil {
		s.logger.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
	}
	if found && cached != nil {
		metrics.DashboardBuilds.WithLabelValues(metrics.CacheHit).Inc()
		summary := *cached
		summary.Cached = true
		return summary, nil
	}

	summary := BuildDashboard(snap, now, day, s.storeGoal)
	if err := s.dashboard.Set(ctx, key, &summary, s.cacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
		metrics.DashboardBuilds.WithLabelValues(metrics.CacheBypass).Inc()
	} else {
		metrics.DashboardBuilds.WithLabelValues(metrics.CacheMiss).Inc()
	}
	return summary, nil
}

// BuildDashboard assembles the summary from one snapshot and one reference
// time. Overall targets count every store; the store cards follow the
// selected day.
func BuildDashboard(snap domain.Snapshot, now time.Time, day *domain.Weekday, storeGoal int) domain.DashboardSummary {
	ddProducts := target.ActiveProducts(snap.Products, domain.ProductDD)
	fokusProducts := target.ActiveProducts(snap.Products, domain.ProductFokus)
	ddMet, fokusMet := target.CountTargetsMet(snap.Products, snap.Stores, snap.Sales)

	weekly := target.WeeklyComparison(snap.Sales, snap.Products, now)

	summary := domain.DashboardSummary{
		Date:            now.Format("2006-01-02"),
		SnapshotVersion: snap.Version,
		DeadlineWarning: target.ShouldWarn(snap.Settings.Deadline, now),
		TotalStores:     len(snap.Stores),
		StoreGoal:       storeGoal,
		Targets: domain.TargetTotals{
			DDMet:      ddMet,
			DDTotal:    len(ddProducts),
			FokusMet:   fokusMet,
			FokusTotal: len(fokusProducts),
		},
		Weekly:        weekly,
		Deltas:        target.CompareWeeks(weekly),
		WeekDays:      target.WeekDays(now, snap.VisitPlan),
		DDProducts:    coverageList(ddProducts, snap),
		FokusProducts: coverageList(fokusProducts, snap),
	}

	if snap.Settings.Deadline != nil {
		days := target.DaysRemaining(*snap.Settings.Deadline, now)
		summary.DaysRemaining = &days
	}
	if day != nil {
		selected := *day
		summary.SelectedDay = &selected
	}

	visible := target.ResolveDay(snap.VisitPlan, day, snap.Stores)
	summary.Stores = make([]domain.StoreProgress, 0, len(visible))
	for _, st := range visible {
		summary.Stores = append(summary.Stores, target.StoreProgressFor(st, snap.Products, snap.Sales))
	}
	return summary
}

func coverageList(products []domain.Product, snap domain.Snapshot) []domain.CoverageStatus {
	out := make([]domain.CoverageStatus, 0, len(products))
	for _, p := range products {
		out = append(out, target.EvaluateCoverage(p, snap.Stores, snap.Sales))
	}
	return out
}
