package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesmonitor/backend/internal/domain"
)

func TestDeleteStoreCascadesAgainstPostgres(t *testing.T) {
	databaseURL := os.Getenv("SALESMONITOR_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set SALESMONITOR_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	require.NoError(t, s.Migrate(ctx))

	stamp := time.Now().UnixNano()
	storeID := fmt.Sprintf("store-it-%d", stamp)
	productID := fmt.Sprintf("product-it-%d", stamp)
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, productID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM stores WHERE id = $1`, storeID)
	})

	_, err = s.CreateStore(ctx, domain.Store{ID: storeID, Name: "Toko Integrasi", Level: domain.LevelRitel})
	require.NoError(t, err)
	_, err = s.CreateProduct(ctx, domain.Product{
		ID:             productID,
		Name:           "Produk Integrasi",
		Type:           domain.ProductDD,
		BasePrice:      1000,
		Active:         true,
		TargetCoverage: map[domain.StoreLevel]float64{domain.LevelRitel: 50},
	})
	require.NoError(t, err)

	first, err := s.CreateSale(ctx, domain.Sale{StoreID: storeID, ProductID: productID})
	require.NoError(t, err)
	second, err := s.CreateSale(ctx, domain.Sale{StoreID: storeID, ProductID: productID})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	require.NoError(t, s.SetVisitPlanDay(ctx, domain.Wednesday, []string{storeID}))

	before, err := s.Snapshot(ctx)
	require.NoError(t, err)

	require.NoError(t, s.DeleteStore(ctx, storeID))

	after, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Greater(t, after.Version, before.Version)
	for _, sale := range after.Sales {
		assert.NotEqual(t, storeID, sale.StoreID)
	}
	assert.NotContains(t, after.VisitPlan[domain.Wednesday], storeID)
}
