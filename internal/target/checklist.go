package target

import (
	"github.com/shopspring/decimal"

	"salesmonitor/backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// StoreProgressFor counts how many active DD and Fokus products have a sale
// recorded at store.
func StoreProgressFor(store domain.Store, products []domain.Product, sales []domain.Sale) domain.StoreProgress {
	sold := productsSoldAt(sales, store.ID)
	progress := domain.StoreProgress{Store: store}
	for _, p := range products {
		if !p.Active {
			continue
		}
		_, ok := sold[p.ID]
		switch p.Type {
		case domain.ProductDD:
			progress.DDTotal++
			if ok {
				progress.DDAchieved++
			}
		case domain.ProductFokus:
			progress.FokusTotal++
			if ok {
				progress.FokusAchieved++
			}
		}
	}
	return progress
}

// Checklist lists every active product for store with its checked state and the
// price after the store level's discount.
func Checklist(store domain.Store, products []domain.Product, sales []domain.Sale, settings domain.Settings) domain.StoreChecklist {
	sold := productsSoldAt(sales, store.ID)
	discount := settings.Discounts[store.Level]

	list := domain.StoreChecklist{
		Store: store,
		DD:    make([]domain.ChecklistItem, 0),
		Fokus: make([]domain.ChecklistItem, 0),
	}
	for _, p := range products {
		if !p.Active {
			continue
		}
		_, checked := sold[p.ID]
		item := domain.ChecklistItem{
			ProductID:       p.ID,
			ProductName:     p.Name,
			Type:            p.Type,
			Checked:         checked,
			BasePrice:       p.BasePrice,
			DiscountPercent: discount,
			FinalPrice:      DiscountedPrice(p.BasePrice, discount),
		}
		switch p.Type {
		case domain.ProductDD:
			list.DD = append(list.DD, item)
		case domain.ProductFokus:
			list.Fokus = append(list.Fokus, item)
		}
	}
	return list
}

// DiscountedPrice is basePrice * (1 - percent/100), rounded to two places.
func DiscountedPrice(basePrice int64, percent float64) decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(percent).Div(hundred))
	return decimal.NewFromInt(basePrice).Mul(factor).Round(2)
}

func productsSoldAt(sales []domain.Sale, storeID string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, sale := range sales {
		if sale.StoreID == storeID {
			set[sale.ProductID] = struct{}{}
		}
	}
	return set
}
