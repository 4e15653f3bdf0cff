package store

import (
	"context"
	"errors"
	"time"

	"salesmonitor/backend/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
)

// Repository is the persistence boundary for the sales monitor. Every mutation
// of stores, products, sales, the visit plan or settings advances the snapshot
// version; audit logs and users do not.
type Repository interface {
	Snapshot(ctx context.Context) (domain.Snapshot, error)

	ListStores(ctx context.Context) ([]domain.Store, error)
	GetStore(ctx context.Context, id string) (*domain.Store, error)
	CreateStore(ctx context.Context, s domain.Store) (*domain.Store, error)
	BulkCreateStores(ctx context.Context, stores []domain.Store) ([]domain.Store, error)
	UpdateStore(ctx context.Context, s domain.Store) (*domain.Store, error)
	// DeleteStore also removes the store's sales and visit-plan entries.
	DeleteStore(ctx context.Context, id string) error

	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, p domain.Product) (*domain.Product, error)
	// DeleteProduct also removes the product's sales.
	DeleteProduct(ctx context.Context, id string) error

	ListSales(ctx context.Context) ([]domain.Sale, error)
	// CreateSale is idempotent per (store, product): an existing pair is
	// returned unchanged.
	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	DeleteSale(ctx context.Context, storeID string, productID string) error

	GetVisitPlan(ctx context.Context) (domain.VisitPlan, error)
	SetVisitPlanDay(ctx context.Context, day domain.Weekday, storeIDs []string) error

	GetSettings(ctx context.Context) (domain.Settings, error)
	UpdateSettings(ctx context.Context, settings domain.Settings) (domain.Settings, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
