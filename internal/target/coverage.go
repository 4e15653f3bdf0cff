// Package target holds the pure computations behind the sales dashboard:
// coverage targets, period and weekly aggregates, visit-plan filtering and the
// deadline warning. Nothing in here performs I/O or mutates its inputs.
package target

import (
	"math"
	"sort"

	"salesmonitor/backend/internal/domain"
)

// IsProductTargetMet reports whether every store level named in the product's
// coverage target has enough stores with a sale of the product. Levels without
// stores are skipped; a product with no target is never met.
func IsProductTargetMet(product domain.Product, stores []domain.Store, sales []domain.Sale) bool {
	if len(product.TargetCoverage) == 0 {
		return false
	}

	byLevel := groupByLevel(stores)
	achievedAt := storesWithProduct(sales, product.ID)

	for level, percent := range product.TargetCoverage {
		levelStores := byLevel[level]
		if len(levelStores) == 0 {
			continue
		}
		if countAchieved(levelStores, achievedAt) < requiredCount(len(levelStores), percent) {
			return false
		}
	}
	return true
}

// EvaluateCoverage is IsProductTargetMet with the per-level breakdown kept.
// Unlike the boolean form it does not stop at the first failing level.
func EvaluateCoverage(product domain.Product, stores []domain.Store, sales []domain.Sale) domain.CoverageStatus {
	status := domain.CoverageStatus{
		ProductID:   product.ID,
		ProductName: product.Name,
		Type:        product.Type,
		Levels:      make([]domain.LevelCoverage, 0, len(product.TargetCoverage)),
	}
	if len(product.TargetCoverage) == 0 {
		return status
	}

	byLevel := groupByLevel(stores)
	achievedAt := storesWithProduct(sales, product.ID)

	met := true
	for _, level := range orderedLevels(product.TargetCoverage) {
		percent := product.TargetCoverage[level]
		levelStores := byLevel[level]
		lc := domain.LevelCoverage{
			Level:         level,
			TargetPercent: percent,
			StoreCount:    len(levelStores),
		}
		if len(levelStores) == 0 {
			lc.Skipped = true
			lc.Met = true
			status.Levels = append(status.Levels, lc)
			continue
		}
		lc.Required = requiredCount(len(levelStores), percent)
		lc.Achieved = countAchieved(levelStores, achievedAt)
		lc.Met = lc.Achieved >= lc.Required
		if !lc.Met {
			met = false
		}
		status.Levels = append(status.Levels, lc)
	}
	status.Met = met
	return status
}

// CountTargetsMet counts active products whose coverage target is met, split by
// product type.
func CountTargetsMet(products []domain.Product, stores []domain.Store, sales []domain.Sale) (dd int, fokus int) {
	for _, product := range products {
		if !product.Active || !IsProductTargetMet(product, stores, sales) {
			continue
		}
		switch product.Type {
		case domain.ProductDD:
			dd++
		case domain.ProductFokus:
			fokus++
		}
	}
	return dd, fokus
}

// ActiveProducts filters products to the active ones of the given type,
// preserving order.
func ActiveProducts(products []domain.Product, productType domain.ProductType) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.Active && p.Type == productType {
			out = append(out, p)
		}
	}
	return out
}

func requiredCount(storeCount int, percent float64) int {
	return int(math.Ceil(float64(storeCount) * percent / 100))
}

func groupByLevel(stores []domain.Store) map[domain.StoreLevel][]domain.Store {
	grouped := make(map[domain.StoreLevel][]domain.Store)
	for _, s := range stores {
		grouped[s.Level] = append(grouped[s.Level], s)
	}
	return grouped
}

func storesWithProduct(sales []domain.Sale, productID string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, sale := range sales {
		if sale.ProductID == productID {
			set[sale.StoreID] = struct{}{}
		}
	}
	return set
}

func countAchieved(levelStores []domain.Store, achievedAt map[string]struct{}) int {
	n := 0
	for _, s := range levelStores {
		if _, ok := achievedAt[s.ID]; ok {
			n++
		}
	}
	return n
}

// orderedLevels returns the coverage keys in canonical level order, followed by
// any keys outside the known set.
func orderedLevels(coverage map[domain.StoreLevel]float64) []domain.StoreLevel {
	out := make([]domain.StoreLevel, 0, len(coverage))
	seen := make(map[domain.StoreLevel]struct{}, len(coverage))
	for _, level := range domain.StoreLevels() {
		if _, ok := coverage[level]; ok {
			out = append(out, level)
			seen[level] = struct{}{}
		}
	}
	extra := make([]domain.StoreLevel, 0)
	for level := range coverage {
		if _, ok := seen[level]; !ok {
			extra = append(extra, level)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}
