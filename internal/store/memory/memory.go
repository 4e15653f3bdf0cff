package memory

import (
	"context"
	"log"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"salesmonitor/backend/internal/domain"
	"salesmonitor/backend/internal/store"
)

type Store struct {
	mu              sync.RWMutex
	version         uint64
	stores          map[string]domain.Store
	products        map[string]domain.Product
	sales           map[saleKey]domain.Sale
	visitPlan       domain.VisitPlan
	settings        domain.Settings
	auditLogs       []domain.AuditLog
	usersByUsername map[string]domain.UserAccount
}

type saleKey struct {
	storeID   string
	productID string
}

// New returns an empty store with default settings and no users.
func New() *Store {
	return &Store{
		stores:          make(map[string]domain.Store),
		products:        make(map[string]domain.Product),
		sales:           make(map[saleKey]domain.Sale),
		visitPlan:       make(domain.VisitPlan),
		settings:        domain.Settings{Discounts: defaultDiscounts()},
		auditLogs:       make([]domain.AuditLog, 0, 128),
		usersByUsername: make(map[string]domain.UserAccount),
	}
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_SALES_PASSWORD; when
// unset, dev defaults are used and a warning is printed. PostgreSQL deployments
// never go through this path.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	salesPwd := envOr("SEED_SALES_PASSWORD", "sales123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_SALES_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_SALES_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"sales", salesPwd, "sales"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultDiscounts() map[domain.StoreLevel]float64 {
	return map[domain.StoreLevel]float64{
		domain.LevelWS1:    10,
		domain.LevelWS2:    8,
		domain.LevelRitelL: 5,
		domain.LevelRitel:  3,
		domain.LevelOthers: 0,
	}
}

// NewSeeded returns a store preloaded with demo stores, products and users.
func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	for _, seed := range []struct {
		id    string
		name  string
		level domain.StoreLevel
	}{
		{"store-sumber-rejeki", "Toko Sumber Rejeki", domain.LevelWS1},
		{"store-makmur-jaya", "Grosir Makmur Jaya", domain.LevelWS2},
		{"store-berkah", "Toko Berkah", domain.LevelRitelL},
		{"store-sinar-abadi", "Toko Sinar Abadi", domain.LevelRitel},
		{"store-bu-ani", "Warung Bu Ani", domain.LevelRitel},
		{"store-pojok", "Kios Pojok", domain.LevelOthers},
	} {
		s.stores[seed.id] = domain.Store{ID: seed.id, Name: seed.name, Level: seed.level, CreatedAt: now}
	}

	coverage := map[domain.StoreLevel]float64{
		domain.LevelWS1:    100,
		domain.LevelWS2:    80,
		domain.LevelRitelL: 60,
		domain.LevelRitel:  50,
	}
	for _, p := range []domain.Product{
		{ID: "prod-kopi-sachet", Name: "Kopi Sachet", Type: domain.ProductDD, BasePrice: 2600},
		{ID: "prod-mie-goreng", Name: "Mie Goreng Instan", Type: domain.ProductDD, BasePrice: 3500},
		{ID: "prod-susu-uht", Name: "Susu UHT 1L", Type: domain.ProductFokus, BasePrice: 18900},
		{ID: "prod-teh-celup", Name: "Teh Celup", Type: domain.ProductFokus, BasePrice: 9800},
	} {
		p.Active = true
		p.TargetCoverage = maps.Clone(coverage)
		s.products[p.ID] = p
	}

	s.usersByUsername = seedUsers()
	return s
}

func (s *Store) Snapshot(_ context.Context) (domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.Snapshot{
		Version:   s.version,
		Stores:    s.sortedStores(),
		Products:  s.sortedProducts(),
		Sales:     s.sortedSales(),
		VisitPlan: cloneVisitPlan(s.visitPlan),
		Settings:  cloneSettings(s.settings),
	}, nil
}

func (s *Store) ListStores(_ context.Context) ([]domain.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedStores(), nil
}

func (s *Store) GetStore(_ context.Context, id string) (*domain.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.stores[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &st, nil
}

func (s *Store) CreateStore(_ context.Context, st domain.Store) (*domain.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.prepareStore(st)
	if err != nil {
		return nil, err
	}
	s.stores[st.ID] = st
	s.version++
	return &st, nil
}

// BulkCreateStores inserts all stores or none.
func (s *Store) BulkCreateStores(_ context.Context, stores []domain.Store) ([]domain.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepared := make([]domain.Store, 0, len(stores))
	seen := make(map[string]struct{}, len(stores))
	for _, st := range stores {
		st, err := s.prepareStore(st)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[st.ID]; dup {
			return nil, store.ErrConflict
		}
		seen[st.ID] = struct{}{}
		prepared = append(prepared, st)
	}
	if len(prepared) == 0 {
		return prepared, nil
	}
	for _, st := range prepared {
		s.stores[st.ID] = st
	}
	s.version++
	return prepared, nil
}

func (s *Store) prepareStore(st domain.Store) (domain.Store, error) {
	st.Name = strings.TrimSpace(st.Name)
	if st.Name == "" || !st.Level.Valid() {
		return domain.Store{}, store.ErrInvalidInput
	}
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	if _, exists := s.stores[st.ID]; exists {
		return domain.Store{}, store.ErrConflict
	}
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}
	return st, nil
}

func (s *Store) UpdateStore(_ context.Context, st domain.Store) (*domain.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st.Name = strings.TrimSpace(st.Name)
	if st.Name == "" || !st.Level.Valid() {
		return nil, store.ErrInvalidInput
	}
	existing, ok := s.stores[st.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	st.CreatedAt = existing.CreatedAt
	s.stores[st.ID] = st
	s.version++
	return &st, nil
}

func (s *Store) DeleteStore(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stores[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.stores, id)
	for key := range s.sales {
		if key.storeID == id {
			delete(s.sales, key)
		}
	}
	for day, ids := range s.visitPlan {
		s.visitPlan[day] = slices.DeleteFunc(slices.Clone(ids), func(v string) bool { return v == id })
	}
	s.version++
	return nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedProducts(), nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	p = cloneProduct(p)
	return &p, nil
}

func (s *Store) CreateProduct(_ context.Context, p domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, exists := s.products[p.ID]; exists {
		return nil, store.ErrConflict
	}
	p = cloneProduct(p)
	s.products[p.ID] = p
	s.version++

	created := cloneProduct(p)
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, p domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if _, exists := s.products[p.ID]; !exists {
		return nil, store.ErrNotFound
	}
	p = cloneProduct(p)
	s.products[p.ID] = p
	s.version++

	updated := cloneProduct(p)
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.products, id)
	for key := range s.sales {
		if key.productID == id {
			delete(s.sales, key)
		}
	}
	s.version++
	return nil
}

func validateProduct(p domain.Product) error {
	if strings.TrimSpace(p.Name) == "" || !p.Type.Valid() || p.BasePrice < 0 {
		return store.ErrInvalidInput
	}
	for level, percent := range p.TargetCoverage {
		if !level.Valid() || percent < 0 || percent > 100 {
			return store.ErrInvalidInput
		}
	}
	return nil
}

func (s *Store) ListSales(_ context.Context) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedSales(), nil
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sale.StoreID == "" || sale.ProductID == "" {
		return nil, store.ErrInvalidInput
	}
	if _, ok := s.stores[sale.StoreID]; !ok {
		return nil, store.ErrNotFound
	}
	if _, ok := s.products[sale.ProductID]; !ok {
		return nil, store.ErrNotFound
	}

	key := saleKey{storeID: sale.StoreID, productID: sale.ProductID}
	if existing, ok := s.sales[key]; ok {
		return &existing, nil
	}
	if sale.ID == "" {
		sale.ID = uuid.NewString()
	}
	if sale.Quantity < 1 {
		sale.Quantity = 1
	}
	if sale.Date.IsZero() {
		sale.Date = time.Now().UTC()
	}
	s.sales[key] = sale
	s.version++
	return &sale, nil
}

// DeleteSale is a no-op when the pair has no sale.
func (s *Store) DeleteSale(_ context.Context, storeID string, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := saleKey{storeID: storeID, productID: productID}
	if _, ok := s.sales[key]; !ok {
		return nil
	}
	delete(s.sales, key)
	s.version++
	return nil
}

func (s *Store) GetVisitPlan(_ context.Context) (domain.VisitPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneVisitPlan(s.visitPlan), nil
}

func (s *Store) SetVisitPlanDay(_ context.Context, day domain.Weekday, storeIDs []string) error {
	if !day.Valid() {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range storeIDs {
		if _, ok := s.stores[id]; !ok {
			return store.ErrNotFound
		}
	}
	if len(storeIDs) == 0 {
		delete(s.visitPlan, day)
	} else {
		s.visitPlan[day] = slices.Clone(storeIDs)
	}
	s.version++
	return nil
}

func (s *Store) GetSettings(_ context.Context) (domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSettings(s.settings), nil
}

func (s *Store) UpdateSettings(_ context.Context, settings domain.Settings) (domain.Settings, error) {
	for level, percent := range settings.Discounts {
		if !level.Valid() || percent < 0 || percent > 100 {
			return domain.Settings{}, store.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = cloneSettings(settings)
	s.version++
	return cloneSettings(s.settings), nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.AuditLog, 0, 64)
	for _, entry := range s.auditLogs {
		if entry.CreatedAt.Before(from) || !entry.CreatedAt.Before(to) {
			continue
		}
		result = append(result, entry)
	}

	slices.SortFunc(result, func(a, b domain.AuditLog) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return strings.Compare(b.ID, a.ID)
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrConflict
	}
	user.Username = username
	if user.Role == "" {
		user.Role = "sales"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}
	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

// Stores are ordered by creation time then name, products by type then name,
// sales by date. Callers rely on the order being stable between reads.

func (s *Store) sortedStores() []domain.Store {
	out := make([]domain.Store, 0, len(s.stores))
	for _, st := range s.stores {
		out = append(out, st)
	}
	slices.SortFunc(out, func(a, b domain.Store) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (s *Store) sortedProducts() []domain.Product {
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, cloneProduct(p))
	}
	slices.SortFunc(out, func(a, b domain.Product) int {
		if c := strings.Compare(string(a.Type), string(b.Type)); c != 0 {
			return c
		}
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (s *Store) sortedSales() []domain.Sale {
	out := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		out = append(out, sale)
	}
	slices.SortFunc(out, func(a, b domain.Sale) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func cloneProduct(p domain.Product) domain.Product {
	p.TargetCoverage = maps.Clone(p.TargetCoverage)
	return p
}

func cloneVisitPlan(plan domain.VisitPlan) domain.VisitPlan {
	out := make(domain.VisitPlan, len(plan))
	for day, ids := range plan {
		if len(ids) == 0 {
			continue
		}
		out[day] = slices.Clone(ids)
	}
	return out
}

func cloneSettings(s domain.Settings) domain.Settings {
	out := domain.Settings{Discounts: maps.Clone(s.Discounts)}
	if out.Discounts == nil {
		out.Discounts = map[domain.StoreLevel]float64{}
	}
	if s.Deadline != nil {
		d := *s.Deadline
		out.Deadline = &d
	}
	return out
}
