package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"salesmonitor/backend/internal/domain"
	"salesmonitor/backend/internal/store"
)

var _ store.Repository = (*Store)(nil)

func newFixture(t *testing.T) (*Store, domain.Store, domain.Product) {
	t.Helper()
	ctx := context.Background()
	s := New()

	st, err := s.CreateStore(ctx, domain.Store{Name: "Toko A", Level: domain.LevelRitel})
	require.NoError(t, err)
	p, err := s.CreateProduct(ctx, domain.Product{
		Name:           "Kopi",
		Type:           domain.ProductDD,
		BasePrice:      2500,
		Active:         true,
		TargetCoverage: map[domain.StoreLevel]float64{domain.LevelRitel: 50},
	})
	require.NoError(t, err)
	return s, *st, *p
}

func TestSnapshotVersionAdvancesOnMutation(t *testing.T) {
	ctx := context.Background()
	s, st, p := newFixture(t)

	before, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), before.Version)

	_, err = s.CreateSale(ctx, domain.Sale{StoreID: st.ID, ProductID: p.ID})
	require.NoError(t, err)
	require.NoError(t, s.SetVisitPlanDay(ctx, domain.Monday, []string{st.ID}))
	_, err = s.UpdateSettings(ctx, domain.Settings{Discounts: map[domain.StoreLevel]float64{domain.LevelRitel: 5}})
	require.NoError(t, err)

	after, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.Version+3, after.Version)

	// Audit logs are not part of the snapshot.
	require.NoError(t, s.CreateAuditLog(ctx, domain.AuditLog{Action: "noop"}))
	again, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, after.Version, again.Version)
}

func TestCreateSaleIsIdempotentPerPair(t *testing.T) {
	ctx := context.Background()
	s, st, p := newFixture(t)

	first, err := s.CreateSale(ctx, domain.Sale{StoreID: st.ID, ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)
	second, err := s.CreateSale(ctx, domain.Sale{StoreID: st.ID, ProductID: p.ID, Quantity: 9})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 3, second.Quantity)

	sales, err := s.ListSales(ctx)
	require.NoError(t, err)
	assert.Len(t, sales, 1)
}

func TestCreateSaleDefaultsAndDanglingReferences(t *testing.T) {
	ctx := context.Background()
	s, st, p := newFixture(t)

	sale, err := s.CreateSale(ctx, domain.Sale{StoreID: st.ID, ProductID: p.ID})
	require.NoError(t, err)
	assert.NotEmpty(t, sale.ID)
	assert.Equal(t, 1, sale.Quantity)
	assert.False(t, sale.Date.IsZero())

	_, err = s.CreateSale(ctx, domain.Sale{StoreID: "ghost", ProductID: p.ID})
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.CreateSale(ctx, domain.Sale{StoreID: st.ID, ProductID: ""})
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestDeleteSale(t *testing.T) {
	ctx := context.Background()
	s, st, p := newFixture(t)

	_, err := s.CreateSale(ctx, domain.Sale{StoreID: st.ID, ProductID: p.ID})
	require.NoError(t, err)
	require.NoError(t, s.DeleteSale(ctx, st.ID, p.ID))
	require.NoError(t, s.DeleteSale(ctx, st.ID, p.ID))

	sales, err := s.ListSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestDeleteStoreCascades(t *testing.T) {
	ctx := context.Background()
	s, st, p := newFixture(t)

	other, err := s.CreateStore(ctx, domain.Store{Name: "Toko B", Level: domain.LevelWS1})
	require.NoError(t, err)
	_, err = s.CreateSale(ctx, domain.Sale{StoreID: st.ID, ProductID: p.ID})
	require.NoError(t, err)
	_, err = s.CreateSale(ctx, domain.Sale{StoreID: other.ID, ProductID: p.ID})
	require.NoError(t, err)
	require.NoError(t, s.SetVisitPlanDay(ctx, domain.Tuesday, []string{st.ID, other.ID}))

	require.NoError(t, s.DeleteStore(ctx, st.ID))

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Stores, 1)
	require.Len(t, snap.Sales, 1)
	assert.Equal(t, other.ID, snap.Sales[0].StoreID)
	assert.Equal(t, []string{other.ID}, snap.VisitPlan[domain.Tuesday])

	assert.ErrorIs(t, s.DeleteStore(ctx, st.ID), store.ErrNotFound)
}

func TestDeleteProductCascadesSales(t *testing.T) {
	ctx := context.Background()
	s, st, p := newFixture(t)

	_, err := s.CreateSale(ctx, domain.Sale{StoreID: st.ID, ProductID: p.ID})
	require.NoError(t, err)
	require.NoError(t, s.DeleteProduct(ctx, p.ID))

	sales, err := s.ListSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)

	_, err = s.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestBulkCreateStoresIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.BulkCreateStores(ctx, []domain.Store{
		{Name: "Toko A", Level: domain.LevelRitel},
		{Name: "Toko B", Level: domain.StoreLevel("Mega")},
	})
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	stores, err := s.ListStores(ctx)
	require.NoError(t, err)
	assert.Empty(t, stores)

	created, err := s.BulkCreateStores(ctx, []domain.Store{
		{Name: " Toko A ", Level: domain.LevelRitel},
		{Name: "Toko B", Level: domain.LevelWS2},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "Toko A", created[0].Name)

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Version)
}

func TestUpdateStoreKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	s, st, _ := newFixture(t)

	updated, err := s.UpdateStore(ctx, domain.Store{ID: st.ID, Name: "Toko A Baru", Level: domain.LevelWS1})
	require.NoError(t, err)
	assert.Equal(t, st.CreatedAt, updated.CreatedAt)
	assert.Equal(t, domain.LevelWS1, updated.Level)

	_, err = s.UpdateStore(ctx, domain.Store{ID: "ghost", Name: "x", Level: domain.LevelWS1})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestProductValidation(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.CreateProduct(ctx, domain.Product{Name: "X", Type: domain.ProductType("Other")})
	assert.ErrorIs(t, err, store.ErrInvalidInput)
	_, err = s.CreateProduct(ctx, domain.Product{Name: "X", Type: domain.ProductDD, TargetCoverage: map[domain.StoreLevel]float64{domain.LevelWS1: 120}})
	assert.ErrorIs(t, err, store.ErrInvalidInput)
	_, err = s.CreateProduct(ctx, domain.Product{Name: "X", Type: domain.ProductDD, BasePrice: -1})
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestSnapshotIsIsolatedFromStore(t *testing.T) {
	ctx := context.Background()
	s, st, _ := newFixture(t)
	require.NoError(t, s.SetVisitPlanDay(ctx, domain.Monday, []string{st.ID}))

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	snap.Products[0].TargetCoverage[domain.LevelRitel] = 0
	snap.VisitPlan[domain.Monday][0] = "mutated"
	snap.Settings.Discounts[domain.LevelWS1] = 99

	fresh, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50.0, fresh.Products[0].TargetCoverage[domain.LevelRitel])
	assert.Equal(t, st.ID, fresh.VisitPlan[domain.Monday][0])
	assert.Equal(t, 10.0, fresh.Settings.Discounts[domain.LevelWS1])
}

func TestSetVisitPlanDay(t *testing.T) {
	ctx := context.Background()
	s, st, _ := newFixture(t)

	assert.ErrorIs(t, s.SetVisitPlanDay(ctx, domain.Weekday(7), nil), store.ErrInvalidInput)
	assert.ErrorIs(t, s.SetVisitPlanDay(ctx, domain.Monday, []string{"ghost"}), store.ErrNotFound)

	require.NoError(t, s.SetVisitPlanDay(ctx, domain.Monday, []string{st.ID}))
	require.NoError(t, s.SetVisitPlanDay(ctx, domain.Monday, nil))

	plan, err := s.GetVisitPlan(ctx)
	require.NoError(t, err)
	_, ok := plan[domain.Monday]
	assert.False(t, ok)
}

func TestSettingsDeadlineRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()

	deadline := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	_, err := s.UpdateSettings(ctx, domain.Settings{Deadline: &deadline})
	require.NoError(t, err)

	got, err := s.GetSettings(ctx)
	require.NoError(t, err)
	require.NotNil(t, got.Deadline)
	assert.True(t, deadline.Equal(*got.Deadline))
	assert.NotNil(t, got.Discounts)

	_, err = s.UpdateSettings(ctx, domain.Settings{Discounts: map[domain.StoreLevel]float64{domain.LevelWS1: -1}})
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestListAuditLogsNewestFirstWithinWindow(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	for i, action := range []string{"a", "b", "c"} {
		require.NoError(t, s.CreateAuditLog(ctx, domain.AuditLog{Action: action, CreatedAt: base.Add(time.Duration(i) * time.Hour)}))
	}

	logs, err := s.ListAuditLogs(ctx, base, base.Add(2*time.Hour), 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "b", logs[0].Action)
	assert.Equal(t, "a", logs[1].Action)

	logs, err = s.ListAuditLogs(ctx, base, base.Add(24*time.Hour), 1)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "c", logs[0].Action)
}

func TestSeededUsersUseBcrypt(t *testing.T) {
	t.Setenv("SEED_ADMIN_PASSWORD", "admin-secret")
	t.Setenv("SEED_SALES_PASSWORD", "sales-secret")
	s := NewSeeded()

	users, err := s.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "admin", users[0].Username)
	assert.Equal(t, "sales", users[1].Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users[0].Password), []byte("admin-secret")))

	snap, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Stores, 6)
	assert.Len(t, snap.Products, 4)
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.CreateUser(ctx, domain.UserAccount{Username: " Budi ", Password: "hash"}))
	assert.ErrorIs(t, s.CreateUser(ctx, domain.UserAccount{Username: "budi", Password: "hash"}), store.ErrConflict)
	assert.ErrorIs(t, s.CreateUser(ctx, domain.UserAccount{Username: "x"}), store.ErrInvalidInput)

	require.NoError(t, s.UpdateUserPassword(ctx, "BUDI", "new-hash"))
	assert.ErrorIs(t, s.UpdateUserPassword(ctx, "nobody", "x"), store.ErrNotFound)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "sales", users[0].Role)
	assert.Equal(t, "new-hash", users[0].Password)
}
