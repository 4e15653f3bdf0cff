package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"salesmonitor/backend/internal/domain"
	"salesmonitor/backend/internal/store"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	db *sql.DB
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// NewWithDB wraps an already opened handle.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// mutate runs fn in a transaction and bumps the snapshot version when fn
// reports a change.
func (s *Store) mutate(ctx context.Context, fn func(tx *sql.Tx) (bool, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	changed, err := fn(tx)
	if err != nil {
		return err
	}
	if changed {
		if _, err := tx.ExecContext(ctx, `UPDATE snapshot_meta SET version = version + 1 WHERE id = 1`); err != nil {
			return fmt.Errorf("bump snapshot version: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return domain.Snapshot{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var snap domain.Snapshot
	var version int64
	if err := tx.QueryRowContext(ctx, `SELECT version FROM snapshot_meta WHERE id = 1`).Scan(&version); err != nil {
		return domain.Snapshot{}, fmt.Errorf("read snapshot version: %w", err)
	}
	snap.Version = uint64(version)

	if snap.Stores, err = listStores(ctx, tx); err != nil {
		return domain.Snapshot{}, err
	}
	if snap.Products, err = listProducts(ctx, tx); err != nil {
		return domain.Snapshot{}, err
	}
	if snap.Sales, err = listSales(ctx, tx); err != nil {
		return domain.Snapshot{}, err
	}
	if snap.VisitPlan, err = getVisitPlan(ctx, tx); err != nil {
		return domain.Snapshot{}, err
	}
	if snap.Settings, err = getSettings(ctx, tx); err != nil {
		return domain.Snapshot{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.Snapshot{}, err
	}
	return snap, nil
}

func (s *Store) ListStores(ctx context.Context) ([]domain.Store, error) {
	return listStores(ctx, s.db)
}

func listStores(ctx context.Context, q queryer) ([]domain.Store, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, level, created_at
		FROM stores
		ORDER BY created_at, name, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stores := make([]domain.Store, 0, 128)
	for rows.Next() {
		var st domain.Store
		if err := rows.Scan(&st.ID, &st.Name, &st.Level, &st.CreatedAt); err != nil {
			return nil, err
		}
		st.CreatedAt = st.CreatedAt.UTC()
		stores = append(stores, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stores, nil
}

func (s *Store) GetStore(ctx context.Context, id string) (*domain.Store, error) {
	var st domain.Store
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, level, created_at
		FROM stores
		WHERE id = $1
	`, id).Scan(&st.ID, &st.Name, &st.Level, &st.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	st.CreatedAt = st.CreatedAt.UTC()
	return &st, nil
}

func (s *Store) CreateStore(ctx context.Context, st domain.Store) (*domain.Store, error) {
	created, err := s.BulkCreateStores(ctx, []domain.Store{st})
	if err != nil {
		return nil, err
	}
	return &created[0], nil
}

// BulkCreateStores inserts all stores in one transaction.
func (s *Store) BulkCreateStores(ctx context.Context, stores []domain.Store) ([]domain.Store, error) {
	prepared := make([]domain.Store, 0, len(stores))
	now := time.Now().UTC()
	for _, st := range stores {
		st.Name = strings.TrimSpace(st.Name)
		if st.Name == "" || !st.Level.Valid() {
			return nil, store.ErrInvalidInput
		}
		if st.ID == "" {
			st.ID = uuid.NewString()
		}
		if st.CreatedAt.IsZero() {
			st.CreatedAt = now
		}
		prepared = append(prepared, st)
	}
	if len(prepared) == 0 {
		return prepared, nil
	}

	err := s.mutate(ctx, func(tx *sql.Tx) (bool, error) {
		for _, st := range prepared {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO stores (id, name, level, created_at)
				VALUES ($1,$2,$3,$4)
			`, st.ID, st.Name, string(st.Level), st.CreatedAt)
			if err != nil {
				if isUniqueViolation(err) {
					return false, store.ErrConflict
				}
				return false, err
			}
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return prepared, nil
}

func (s *Store) UpdateStore(ctx context.Context, st domain.Store) (*domain.Store, error) {
	st.Name = strings.TrimSpace(st.Name)
	if st.Name == "" || !st.Level.Valid() {
		return nil, store.ErrInvalidInput
	}

	err := s.mutate(ctx, func(tx *sql.Tx) (bool, error) {
		err := tx.QueryRowContext(ctx, `
			UPDATE stores
			SET name = $2, level = $3
			WHERE id = $1
			RETURNING created_at
		`, st.ID, st.Name, string(st.Level)).Scan(&st.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return false, store.ErrNotFound
		}
		return err == nil, err
	})
	if err != nil {
		return nil, err
	}
	st.CreatedAt = st.CreatedAt.UTC()
	return &st, nil
}

// DeleteStore relies on ON DELETE CASCADE for sales and visit-plan entries.
func (s *Store) DeleteStore(ctx context.Context, id string) error {
	return s.mutate(ctx, func(tx *sql.Tx) (bool, error) {
		return deleteByID(ctx, tx, `DELETE FROM stores WHERE id = $1`, id)
	})
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return listProducts(ctx, s.db)
}

func listProducts(ctx context.Context, q queryer) ([]domain.Product, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, type, base_price, active, target_coverage
		FROM products
		ORDER BY type, name, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	var coverage []byte
	if err := row.Scan(&p.ID, &p.Name, &p.Type, &p.BasePrice, &p.Active, &coverage); err != nil {
		return domain.Product{}, err
	}
	p.TargetCoverage = map[domain.StoreLevel]float64{}
	if len(coverage) > 0 {
		if err := json.Unmarshal(coverage, &p.TargetCoverage); err != nil {
			return domain.Product{}, fmt.Errorf("decode target coverage for %s: %w", p.ID, err)
		}
	}
	return p, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, `
		SELECT id, name, type, base_price, active, target_coverage
		FROM products
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	coverage, err := encodeLevelMap(p.TargetCoverage)
	if err != nil {
		return nil, err
	}

	err = s.mutate(ctx, func(tx *sql.Tx) (bool, error) {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO products (id, name, type, base_price, active, target_coverage, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,now(),now())
		`, p.ID, p.Name, string(p.Type), p.BasePrice, p.Active, coverage)
		if err != nil {
			if isUniqueViolation(err) {
				return false, store.ErrConflict
			}
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if p.TargetCoverage == nil {
		p.TargetCoverage = map[domain.StoreLevel]float64{}
	}
	return &p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	coverage, err := encodeLevelMap(p.TargetCoverage)
	if err != nil {
		return nil, err
	}

	err = s.mutate(ctx, func(tx *sql.Tx) (bool, error) {
		res, err := tx.ExecContext(ctx, `
			UPDATE products
			SET name = $2, type = $3, base_price = $4, active = $5, target_coverage = $6, updated_at = now()
			WHERE id = $1
		`, p.ID, p.Name, string(p.Type), p.BasePrice, p.Active, coverage)
		if err != nil {
			return false, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return false, err
		}
		if affected == 0 {
			return false, store.ErrNotFound
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if p.TargetCoverage == nil {
		p.TargetCoverage = map[domain.StoreLevel]float64{}
	}
	return &p, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	return s.mutate(ctx, func(tx *sql.Tx) (bool, error) {
		return deleteByID(ctx, tx, `DELETE FROM products WHERE id = $1`, id)
	})
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

func (s *Store) ListSales(ctx context.Context) ([]domain.Sale, error) {
	return listSales(ctx, s.db)
}

func listSales(ctx context.Context, q queryer) ([]domain.Sale, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, store_id, product_id, quantity, sold_at
		FROM sales
		ORDER BY sold_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 256)
	for rows.Next() {
		var sale domain.Sale
		if err := rows.Scan(&sale.ID, &sale.StoreID, &sale.ProductID, &sale.Quantity, &sale.Date); err != nil {
			return nil, err
		}
		sale.Date = sale.Date.UTC()
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.StoreID == "" || sale.ProductID == "" {
		return nil, store.ErrInvalidInput
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

	result := sale
	err := s.mutate(ctx, func(tx *sql.Tx) (bool, error) {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO sales (id, store_id, product_id, quantity, sold_at)
			VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (store_id, product_id) DO NOTHING
		`, sale.ID, sale.StoreID, sale.ProductID, sale.Quantity, sale.Date)
		if err != nil {
			if isForeignKeyViolation(err) {
				return false, store.ErrNotFound
			}
			return false, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return false, err
		}
		if affected == 1 {
			return true, nil
		}

		err = tx.QueryRowContext(ctx, `
			SELECT id, store_id, product_id, quantity, sold_at
			FROM sales
			WHERE store_id = $1 AND product_id = $2
		`, sale.StoreID, sale.ProductID).Scan(&result.ID, &result.StoreID, &result.ProductID, &result.Quantity, &result.Date)
		return false, err
	})
	if err != nil {
		return nil, err
	}
	result.Date = result.Date.UTC()
	return &result, nil
}

// DeleteSale is a no-op when the pair has no sale.
func (s *Store) DeleteSale(ctx context.Context, storeID string, productID string) error {
	return s.mutate(ctx, func(tx *sql.Tx) (bool, error) {
		res, err := tx.ExecContext(ctx, `DELETE FROM sales WHERE store_id = $1 AND product_id = $2`, storeID, productID)
		if err != nil {
			return false, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return false, err
		}
		return affected > 0, nil
	})
}

func (s *Store) GetVisitPlan(ctx context.Context) (domain.VisitPlan, error) {
	return getVisitPlan(ctx, s.db)
}

func getVisitPlan(ctx context.Context, q queryer) (domain.VisitPlan, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT weekday, store_id
		FROM visit_plan_entries
		ORDER BY weekday, position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plan := make(domain.VisitPlan)
	for rows.Next() {
		var day int
		var storeID string
		if err := rows.Scan(&day, &storeID); err != nil {
			return nil, err
		}
		w := domain.Weekday(day)
		plan[w] = append(plan[w], storeID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return plan, nil
}

// SetVisitPlanDay replaces the whole day atomically.
func (s *Store) SetVisitPlanDay(ctx context.Context, day domain.Weekday, storeIDs []string) error {
	if !day.Valid() {
		return store.ErrInvalidInput
	}
	return s.mutate(ctx, func(tx *sql.Tx) (bool, error) {
		if _, err := tx.ExecContext(ctx, `DELETE FROM visit_plan_entries WHERE weekday = $1`, int(day)); err != nil {
			return false, err
		}
		for i, id := range storeIDs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO visit_plan_entries (weekday, store_id, position)
				VALUES ($1,$2,$3)
			`, int(day), id, i)
			if err != nil {
				if isForeignKeyViolation(err) {
					return false, store.ErrNotFound
				}
				if isUniqueViolation(err) {
					return false, store.ErrInvalidInput
				}
				return false, err
			}
		}
		return true, nil
	})
}

func (s *Store) GetSettings(ctx context.Context) (domain.Settings, error) {
	return getSettings(ctx, s.db)
}

func getSettings(ctx context.Context, q queryer) (domain.Settings, error) {
	var discounts []byte
	var deadline sql.NullTime
	err := q.QueryRowContext(ctx, `SELECT discounts, deadline FROM settings WHERE id = 1`).Scan(&discounts, &deadline)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Settings{Discounts: map[domain.StoreLevel]float64{}}, nil
		}
		return domain.Settings{}, err
	}

	settings := domain.Settings{Discounts: map[domain.StoreLevel]float64{}}
	if len(discounts) > 0 {
		if err := json.Unmarshal(discounts, &settings.Discounts); err != nil {
			return domain.Settings{}, fmt.Errorf("decode discounts: %w", err)
		}
	}
	if deadline.Valid {
		d := dateUTC(deadline.Time)
		settings.Deadline = &d
	}
	return settings, nil
}

func (s *Store) UpdateSettings(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	for level, percent := range settings.Discounts {
		if !level.Valid() || percent < 0 || percent > 100 {
			return domain.Settings{}, store.ErrInvalidInput
		}
	}
	discounts, err := encodeLevelMap(settings.Discounts)
	if err != nil {
		return domain.Settings{}, err
	}

	err = s.mutate(ctx, func(tx *sql.Tx) (bool, error) {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO settings (id, discounts, deadline)
			VALUES (1, $1, $2)
			ON CONFLICT (id) DO UPDATE SET discounts = EXCLUDED.discounts, deadline = EXCLUDED.deadline
		`, discounts, nullDate(settings.Deadline))
		return err == nil, err
	})
	if err != nil {
		return domain.Settings{}, err
	}

	out := domain.Settings{Discounts: settings.Discounts}
	if out.Discounts == nil {
		out.Discounts = map[domain.StoreLevel]float64{}
	}
	if settings.Deadline != nil {
		d := dateUTC(*settings.Deadline)
		out.Deadline = &d
	}
	return out, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (
			id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE created_at >= $1
			AND created_at < $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.ActorUsername, &entry.ActorRole, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if user.Role == "" {
		user.Role = "sales"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (username, password, role, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
	`, user.Username, user.Password, user.Role, true, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM app_users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE app_users
		SET password = $2, updated_at = now()
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func deleteByID(ctx context.Context, tx *sql.Tx, query string, id string) (bool, error) {
	res, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, store.ErrNotFound
	}
	return true, nil
}

func encodeLevelMap(m map[domain.StoreLevel]float64) ([]byte, error) {
	if m == nil {
		m = map[domain.StoreLevel]float64{}
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode level map: %w", err)
	}
	return raw, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

func dateUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func nullDate(val *time.Time) any {
	if val == nil {
		return nil
	}
	return dateUTC(*val)
}
