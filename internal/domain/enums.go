package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownStoreLevel  = errors.New("unknown store level")
	ErrUnknownProductType = errors.New("unknown product type")
	ErrInvalidWeekday     = errors.New("weekday must be between 1 (Monday) and 6 (Saturday)")
)

// StoreLevel is the store tier. It drives both the discount rate and which
// coverage bucket a store is counted in.
type StoreLevel string

const (
	LevelWS1    StoreLevel = "WS1"
	LevelWS2    StoreLevel = "WS2"
	LevelRitelL StoreLevel = "RitelL"
	LevelRitel  StoreLevel = "Ritel"
	LevelOthers StoreLevel = "Others"
)

var storeLevels = []StoreLevel{LevelWS1, LevelWS2, LevelRitelL, LevelRitel, LevelOthers}

// StoreLevels returns every level in canonical order.
func StoreLevels() []StoreLevel {
	out := make([]StoreLevel, len(storeLevels))
	copy(out, storeLevels)
	return out
}

// ParseStoreLevel matches raw exactly (case-sensitive) against the known levels.
func ParseStoreLevel(raw string) (StoreLevel, error) {
	for _, level := range storeLevels {
		if string(level) == raw {
			return level, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStoreLevel, raw)
}

func (l StoreLevel) Valid() bool {
	_, err := ParseStoreLevel(string(l))
	return err == nil
}

type ProductType string

const (
	ProductDD    ProductType = "DD"
	ProductFokus ProductType = "Fokus"
)

func ParseProductType(raw string) (ProductType, error) {
	switch ProductType(raw) {
	case ProductDD:
		return ProductDD, nil
	case ProductFokus:
		return ProductFokus, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProductType, raw)
	}
}

func (t ProductType) Valid() bool {
	return t == ProductDD || t == ProductFokus
}

// Weekday indexes the planning week: 1=Monday .. 6=Saturday. Sunday has no plan.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayNames = map[Weekday]string{
	Monday:    "Senin",
	Tuesday:   "Selasa",
	Wednesday: "Rabu",
	Thursday:  "Kamis",
	Friday:    "Jumat",
	Saturday:  "Sabtu",
}

func ParseWeekday(day int) (Weekday, error) {
	w := Weekday(day)
	if !w.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidWeekday, day)
	}
	return w, nil
}

func (w Weekday) Valid() bool {
	return w >= Monday && w <= Saturday
}

// Name is the Indonesian day name shown on the planning cards.
func (w Weekday) Name() string {
	return weekdayNames[w]
}

type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)
