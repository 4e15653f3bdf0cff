package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"salesmonitor/backend/internal/cache"
	"salesmonitor/backend/internal/domain"
	"salesmonitor/backend/internal/importer"
	"salesmonitor/backend/internal/metrics"
	"salesmonitor/backend/internal/store"
	"salesmonitor/backend/internal/target"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("admin role required")
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Options struct {
	// StoreGoal is the total store count the team is working towards.
	StoreGoal int
	Location  *time.Location
	CacheTTL  time.Duration
	Now       func() time.Time
}

type Service struct {
	repo      store.Repository
	dashboard cache.DashboardCache
	logger    *zap.Logger
	storeGoal int
	location  *time.Location
	cacheTTL  time.Duration
	now       func() time.Time
}

func New(repo store.Repository, dashboardCache cache.DashboardCache, logger *zap.Logger, opts Options) *Service {
	if dashboardCache == nil {
		dashboardCache = cache.NoopDashboardCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.StoreGoal < 1 {
		opts.StoreGoal = 96
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		repo:      repo,
		dashboard: dashboardCache,
		logger:    logger,
		storeGoal: opts.StoreGoal,
		location:  opts.Location,
		cacheTTL:  opts.CacheTTL,
		now:       opts.Now,
	}
}

// today is the current instant in the configured timezone.
func (s *Service) today() time.Time {
	return s.now().In(s.location)
}

func (s *Service) ListStores(ctx context.Context) ([]domain.Store, error) {
	return s.repo.ListStores(ctx)
}

func (s *Service) CreateStore(ctx context.Context, req domain.StoreInput) (domain.Store, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate(req); err != nil {
		return domain.Store{}, err
	}

	created, err := s.repo.CreateStore(ctx, domain.Store{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Level:     req.Level,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return domain.Store{}, err
	}

	s.logAudit(ctx, "store_create", "store", created.ID, fmt.Sprintf("name=%s,level=%s", created.Name, created.Level))
	return *created, nil
}

func (s *Service) UpdateStore(ctx context.Context, id string, req domain.StoreUpdateRequest) (domain.Store, error) {
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	if err := validate(req); err != nil {
		return domain.Store{}, err
	}

	existing, err := s.repo.GetStore(ctx, id)
	if err != nil {
		return domain.Store{}, err
	}
	updated := *existing
	if req.Name != nil {
		if *req.Name == "" {
			return domain.Store{}, fmt.Errorf("%w: name must not be empty", ErrValidation)
		}
		updated.Name = *req.Name
	}
	if req.Level != nil {
		updated.Level = *req.Level
	}

	result, err := s.repo.UpdateStore(ctx, updated)
	if err != nil {
		return domain.Store{}, err
	}

	s.logAudit(ctx, "store_update", "store", result.ID, fmt.Sprintf("name=%s,level=%s", result.Name, result.Level))
	return *result, nil
}

func (s *Service) DeleteStore(ctx context.Context, id string) error {
	existing, err := s.repo.GetStore(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteStore(ctx, id); err != nil {
		return err
	}

	s.logAudit(ctx, "store_delete", "store", id, fmt.Sprintf("name=%s", existing.Name))
	return nil
}

// ImportStores parses an uploaded store list and inserts every valid row.
// Invalid rows are reported back by line; a bad header or empty file rejects
// the whole upload.
func (s *Service) ImportStores(ctx context.Context, format importer.Format, r io.Reader) (domain.ImportResult, error) {
	parsed, err := importer.Parse(format, r)
	if err != nil {
		return domain.ImportResult{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	now := s.now().UTC()
	stores := make([]domain.Store, 0, len(parsed.Rows))
	for _, row := range parsed.Rows {
		stores = append(stores, domain.Store{
			ID:        uuid.NewString(),
			Name:      row.Name,
			Level:     row.Level,
			CreatedAt: now,
		})
	}

	created := make([]domain.Store, 0)
	if len(stores) > 0 {
		created, err = s.repo.BulkCreateStores(ctx, stores)
		if err != nil {
			return domain.ImportResult{}, err
		}
	}

	metrics.StoreImportRows.WithLabelValues(string(format), "imported").Add(float64(len(created)))
	metrics.StoreImportRows.WithLabelValues(string(format), "rejected").Add(float64(len(parsed.Errors)))
	s.logAudit(ctx, "store_import", "store", "", fmt.Sprintf("format=%s,imported=%d,rejected=%d", format, len(created), len(parsed.Errors)))

	lineErrors := parsed.Errors
	if lineErrors == nil {
		lineErrors = []domain.LineError{}
	}
	return domain.ImportResult{
		Imported: len(created),
		Stores:   created,
		Errors:   lineErrors,
	}, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := validate(req); err != nil {
		return domain.Product{}, err
	}

	coverage := req.TargetCoverage
	if coverage == nil {
		coverage = map[domain.StoreLevel]float64{}
	}
	created, err := s.repo.CreateProduct(ctx, domain.Product{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Type:           req.Type,
		BasePrice:      req.BasePrice,
		Active:         true,
		TargetCoverage: coverage,
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_create", "product", created.ID, fmt.Sprintf("name=%s,type=%s,price=%d", created.Name, created.Type, created.BasePrice))
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	if err := validate(req); err != nil {
		return domain.Product{}, err
	}

	existing, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	updated := *existing
	if req.Name != nil {
		if *req.Name == "" {
			return domain.Product{}, fmt.Errorf("%w: name must not be empty", ErrValidation)
		}
		updated.Name = *req.Name
	}
	if req.Type != nil {
		updated.Type = *req.Type
	}
	if req.BasePrice != nil {
		updated.BasePrice = *req.BasePrice
	}
	if req.Active != nil {
		updated.Active = *req.Active
	}
	if req.TargetCoverage != nil {
		updated.TargetCoverage = req.TargetCoverage
	}

	result, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_update", "product", result.ID, fmt.Sprintf("name=%s,type=%s,price=%d,active=%t", result.Name, result.Type, result.BasePrice, result.Active))
	return *result, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	existing, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}

	s.logAudit(ctx, "product_delete", "product", id, fmt.Sprintf("name=%s", existing.Name))
	return nil
}

// SetSaleChecked logs (checked) or removes (unchecked) the sale for a store and
// product, then returns the store's refreshed checklist.
func (s *Service) SetSaleChecked(ctx context.Context, storeID string, productID string, checked bool) (domain.StoreChecklist, error) {
	if _, err := s.repo.GetStore(ctx, storeID); err != nil {
		return domain.StoreChecklist{}, err
	}
	if _, err := s.repo.GetProduct(ctx, productID); err != nil {
		return domain.StoreChecklist{}, err
	}

	action := "sale_delete"
	if checked {
		action = "sale_log"
		_, err := s.repo.CreateSale(ctx, domain.Sale{
			ID:        uuid.NewString(),
			StoreID:   storeID,
			ProductID: productID,
			Quantity:  1,
			Date:      s.now().UTC(),
		})
		if err != nil {
			return domain.StoreChecklist{}, err
		}
	} else if err := s.repo.DeleteSale(ctx, storeID, productID); err != nil {
		return domain.StoreChecklist{}, err
	}

	metrics.SaleToggles.WithLabelValues(strconv.FormatBool(checked)).Inc()
	s.logAudit(ctx, action, "sale", storeID+"/"+productID, "")
	return s.StoreChecklist(ctx, storeID)
}

func (s *Service) StoreChecklist(ctx context.Context, storeID string) (domain.StoreChecklist, error) {
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return domain.StoreChecklist{}, err
	}
	for _, st := range snap.Stores {
		if st.ID == storeID {
			return target.Checklist(st, snap.Products, snap.Sales, snap.Settings), nil
		}
	}
	return domain.StoreChecklist{}, store.ErrNotFound
}

func (s *Service) GetVisitPlan(ctx context.Context) (domain.VisitPlan, error) {
	return s.repo.GetVisitPlan(ctx)
}

// SetVisitPlan replaces the store set for day. Duplicate and unknown store ids
// are dropped; the stored set is returned.
func (s *Service) SetVisitPlan(ctx context.Context, day domain.Weekday, req domain.VisitPlanDayRequest) ([]string, error) {
	if !day.Valid() {
		return nil, fmt.Errorf("%w: %w", ErrValidation, domain.ErrInvalidWeekday)
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	stores, err := s.repo.ListStores(ctx)
	if err != nil {
		return nil, err
	}
	ids := target.NormalizePlanDay(req.StoreIDs, stores)
	if err := s.repo.SetVisitPlanDay(ctx, day, ids); err != nil {
		return nil, err
	}

	s.logAudit(ctx, "visit_plan_set", "visit_plan", strconv.Itoa(int(day)), fmt.Sprintf("day=%s,stores=%d", day.Name(), len(ids)))
	return ids, nil
}

func (s *Service) GetSettings(ctx context.Context) (domain.Settings, error) {
	return s.repo.GetSettings(ctx)
}

func (s *Service) UpdateSettings(ctx context.Context, req domain.SettingsUpdateRequest) (domain.Settings, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Settings{}, err
	}
	if err := validate(req); err != nil {
		return domain.Settings{}, err
	}

	current, err := s.repo.GetSettings(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	next := current
	if req.Discounts != nil {
		next.Discounts = req.Discounts
	}
	switch {
	case req.ClearDeadline:
		next.Deadline = nil
	case req.Deadline != nil:
		parsed, err := time.Parse("2006-01-02", strings.TrimSpace(*req.Deadline))
		if err != nil {
			return domain.Settings{}, fmt.Errorf("%w: deadline must be YYYY-MM-DD", ErrValidation)
		}
		next.Deadline = &parsed
	}

	updated, err := s.repo.UpdateSettings(ctx, next)
	if err != nil {
		return domain.Settings{}, err
	}

	deadline := "none"
	if updated.Deadline != nil {
		deadline = updated.Deadline.Format("2006-01-02")
	}
	s.logAudit(ctx, "settings_update", "settings", "settings", fmt.Sprintf("deadline=%s,levels=%d", deadline, len(updated.Discounts)))
	return updated, nil
}

func (s *Service) ListAuditLogs(ctx context.Context, date string, limit int) ([]domain.AuditLog, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 100
	}

	date = strings.TrimSpace(date)
	if date == "" {
		date = s.today().Format("2006-01-02")
	}
	parsed, err := time.ParseInLocation("2006-01-02", date, s.location)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	from := parsed.UTC()
	to := parsed.AddDate(0, 0, 1).UTC()

	return s.repo.ListAuditLogs(ctx, from, to, limit)
}

func requireAdmin(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return ErrForbidden
	}
	return nil
}

// logAudit never fails the caller; a lost audit entry is only logged.
func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            uuid.NewString(),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     s.now().UTC(),
	}); err != nil {
		s.logger.Warn("failed to write audit log",
			zap.String("action", action),
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
	}
}
