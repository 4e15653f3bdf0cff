package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Store struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Level     StoreLevel `json:"level"`
	CreatedAt time.Time  `json:"created_at"`
}

// StoreInput is a store that has not been assigned an id yet (form or import row).
type StoreInput struct {
	Name  string     `json:"name" validate:"required,max=120"`
	Level StoreLevel `json:"level" validate:"required,store_level"`
}

type StoreUpdateRequest struct {
	Name  *string     `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Level *StoreLevel `json:"level,omitempty" validate:"omitempty,store_level"`
}

type Product struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	Type           ProductType            `json:"type"`
	BasePrice      int64                  `json:"base_price"`
	Active         bool                   `json:"active"`
	TargetCoverage map[StoreLevel]float64 `json:"target_coverage"`
}

type ProductCreateRequest struct {
	Name           string                 `json:"name" validate:"required,max=120"`
	Type           ProductType            `json:"type" validate:"required,product_type"`
	BasePrice      int64                  `json:"base_price" validate:"gte=0"`
	TargetCoverage map[StoreLevel]float64 `json:"target_coverage" validate:"omitempty,dive,keys,store_level,endkeys,gte=0,lte=100"`
}

type ProductUpdateRequest struct {
	Name           *string                `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Type           *ProductType           `json:"type,omitempty" validate:"omitempty,product_type"`
	BasePrice      *int64                 `json:"base_price,omitempty" validate:"omitempty,gte=0"`
	Active         *bool                  `json:"active,omitempty"`
	TargetCoverage map[StoreLevel]float64 `json:"target_coverage,omitempty" validate:"omitempty,dive,keys,store_level,endkeys,gte=0,lte=100"`
}

// Sale records that a product was achieved at a store. Only the presence of the
// (StoreID, ProductID) pair matters for targets; Quantity is informational.
type Sale struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"store_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Date      time.Time `json:"date"`
}

type SaleToggleRequest struct {
	Checked bool `json:"checked"`
}

// VisitPlan maps a weekday to the store ids planned for it. A missing key is an
// empty plan for that day.
type VisitPlan map[Weekday][]string

type VisitPlanDayRequest struct {
	StoreIDs []string `json:"store_ids" validate:"dive,required"`
}

type Settings struct {
	Discounts map[StoreLevel]float64 `json:"discounts"`
	Deadline  *time.Time             `json:"deadline,omitempty"`
}

type SettingsUpdateRequest struct {
	Discounts     map[StoreLevel]float64 `json:"discounts,omitempty" validate:"omitempty,dive,keys,store_level,endkeys,gte=0,lte=100"`
	Deadline      *string                `json:"deadline,omitempty"`
	ClearDeadline bool                   `json:"clear_deadline,omitempty"`
}

// Snapshot is the read-only view of everything the target engine needs.
type Snapshot struct {
	Version   uint64
	Stores    []Store
	Products  []Product
	Sales     []Sale
	VisitPlan VisitPlan
	Settings  Settings
}

type PeriodStats struct {
	VisitedStores int `json:"visited_stores"`
	DDAchieved    int `json:"dd_achieved"`
	FokusAchieved int `json:"fokus_achieved"`
}

type WeeklyComparison struct {
	WeekStart     time.Time   `json:"week_start"`
	WeekEnd       time.Time   `json:"week_end"`
	LastWeekStart time.Time   `json:"last_week_start"`
	LastWeekEnd   time.Time   `json:"last_week_end"`
	ThisWeek      PeriodStats `json:"this_week"`
	LastWeek      PeriodStats `json:"last_week"`
}

type MetricDelta struct {
	Current  int   `json:"current"`
	Previous int   `json:"previous"`
	Change   int   `json:"change"`
	Trend    Trend `json:"trend"`
}

type WeeklyDeltas struct {
	VisitedStores MetricDelta `json:"visited_stores"`
	DDAchieved    MetricDelta `json:"dd_achieved"`
	FokusAchieved MetricDelta `json:"fokus_achieved"`
}

type LevelCoverage struct {
	Level         StoreLevel `json:"level"`
	TargetPercent float64    `json:"target_percent"`
	StoreCount    int        `json:"store_count"`
	Required      int        `json:"required"`
	Achieved      int        `json:"achieved"`
	Skipped       bool       `json:"skipped"`
	Met           bool       `json:"met"`
}

type CoverageStatus struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Type        ProductType     `json:"type"`
	Met         bool            `json:"met"`
	Levels      []LevelCoverage `json:"levels"`
}

type TargetTotals struct {
	DDMet      int `json:"dd_met"`
	DDTotal    int `json:"dd_total"`
	FokusMet   int `json:"fokus_met"`
	FokusTotal int `json:"fokus_total"`
}

type StoreProgress struct {
	Store         Store `json:"store"`
	DDAchieved    int   `json:"dd_achieved"`
	DDTotal       int   `json:"dd_total"`
	FokusAchieved int   `json:"fokus_achieved"`
	FokusTotal    int   `json:"fokus_total"`
}

type ChecklistItem struct {
	ProductID       string          `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Type            ProductType     `json:"type"`
	Checked         bool            `json:"checked"`
	BasePrice       int64           `json:"base_price"`
	DiscountPercent float64         `json:"discount_percent"`
	FinalPrice      decimal.Decimal `json:"final_price"`
}

type StoreChecklist struct {
	Store Store           `json:"store"`
	DD    []ChecklistItem `json:"dd"`
	Fokus []ChecklistItem `json:"fokus"`
}

type WeekDay struct {
	Day        Weekday `json:"day"`
	Name       string  `json:"name"`
	Date       int     `json:"date"`
	IsToday    bool    `json:"is_today"`
	StoreCount int     `json:"store_count"`
}

type DashboardSummary struct {
	Date            string           `json:"date"`
	SnapshotVersion uint64           `json:"snapshot_version"`
	DeadlineWarning bool             `json:"deadline_warning"`
	DaysRemaining   *int             `json:"days_remaining,omitempty"`
	TotalStores     int              `json:"total_stores"`
	StoreGoal       int              `json:"store_goal"`
	Targets         TargetTotals     `json:"targets"`
	Weekly          WeeklyComparison `json:"weekly"`
	Deltas          WeeklyDeltas     `json:"deltas"`
	WeekDays        []WeekDay        `json:"week_days"`
	SelectedDay     *Weekday         `json:"selected_day,omitempty"`
	DDProducts      []CoverageStatus `json:"dd_products"`
	FokusProducts   []CoverageStatus `json:"fokus_products"`
	Stores          []StoreProgress  `json:"stores"`
	Cached          bool             `json:"cached"`
}

type LineError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

type ImportResult struct {
	Imported int         `json:"imported"`
	Stores   []Store     `json:"stores"`
	Errors   []LineError `json:"errors"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type UserAccount struct {
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}
