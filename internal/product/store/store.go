package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/vhrodrigues/notinha/internal/category"
	"github.com/vhrodrigues/notinha/internal/product"
)

const uniqueViolation = "23505"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectProductColumns = `
	id, user_id, name, original_name, product_code, ncm_code, brand,
	category, subcategory, is_promotion, purchase_count, avg_unit_price,
	last_purchase_at, created_at, updated_at
`

// scanProduct reads a product row in selectProductColumns order.
func scanProduct(s scanner) (*product.Product, error) {
	var p product.Product

	var categoryStr string

	var code, ncm, brand, subcategory sql.NullString

	var avg string

	if err := s.Scan(
		&p.ID, &p.UserID, &p.Name, &p.OriginalName, &code, &ncm, &brand,
		&categoryStr, &subcategory, &p.IsPromotion, &p.PurchaseCount, &avg,
		&p.LastPurchaseAt, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	p.ProductCode = code.String
	p.NCMCode = ncm.String
	p.Brand = brand.String
	p.Subcategory = subcategory.String
	p.Category = category.Category(categoryStr)

	parsed, err := decimal.NewFromString(avg)
	if err != nil {
		return nil, fmt.Errorf("parsing avg_unit_price: %w", err)
	}

	p.AvgUnitPrice = parsed

	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, p *product.Product) error {
	query := `
		INSERT INTO products (user_id, name, original_name, product_code, ncm_code, brand,
			category, subcategory, is_promotion, purchase_count, avg_unit_price, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, NULLIF($8, ''), $9, 0, 0, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		p.UserID,
		p.Name,
		p.OriginalName,
		p.ProductCode,
		p.NCMCode,
		p.Brand,
		p.Category,
		p.Subcategory,
		p.IsPromotion,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return product.ErrCodeExists
		}

		return fmt.Errorf("creating product: %w", err)
	}

	return nil
}

func (s *Store) GetProduct(ctx context.Context, userID, id uuid.UUID) (*product.Product, error) {
	query := `SELECT ` + selectProductColumns + ` FROM products WHERE id = $1 AND user_id = $2`

	p, err := scanProduct(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, product.ErrNotFound
		}

		return nil, fmt.Errorf("getting product: %w", err)
	}

	return p, nil
}

func (s *Store) GetByCode(ctx context.Context, userID uuid.UUID, code string) (*product.Product, error) {
	query := `SELECT ` + selectProductColumns + ` FROM products WHERE user_id = $1 AND product_code = $2`

	p, err := scanProduct(s.db.QueryRowContext(ctx, query, userID, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, product.ErrNotFound
		}

		return nil, fmt.Errorf("getting product by code: %w", err)
	}

	return p, nil
}

func (s *Store) ListProducts(ctx context.Context, userID uuid.UUID, filter product.ListFilter) ([]*product.Product, error) {
	query := `SELECT ` + selectProductColumns + ` FROM products WHERE user_id = $1`

	args := []any{userID}

	argIdx := 2

	if filter.Category != nil {
		query += fmt.Sprintf(" AND category = $%d", argIdx)
		args = append(args, *filter.Category)
		argIdx++
	}

	if filter.Search != "" {
		query += fmt.Sprintf(" AND name ILIKE $%d", argIdx)
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	query += " ORDER BY name ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filter.Limit)
		argIdx++
	}

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []*product.Product

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}

		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating products: %w", err)
	}

	return products, nil
}

func (s *Store) UpdateCategory(ctx context.Context, userID, id uuid.UUID, c category.Category) error {
	query := `UPDATE products SET category = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3`

	res, err := s.db.ExecContext(ctx, query, c, id, userID)
	if err != nil {
		return fmt.Errorf("updating product category: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating product category: %w", err)
	}

	if affected == 0 {
		return product.ErrNotFound
	}

	return nil
}

func (s *Store) AppendPrice(ctx context.Context, e *product.PriceEntry) error {
	query := `
		INSERT INTO price_history (user_id, product_id, invoice_id, merchant_tax_id,
			merchant_name, unit_price, quantity, purchased_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		e.UserID,
		e.ProductID,
		e.InvoiceID,
		e.MerchantTaxID,
		e.MerchantName,
		e.UnitPrice,
		e.Quantity,
		e.PurchasedAt,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("appending price history: %w", err)
	}

	return nil
}

func (s *Store) ListPrices(ctx context.Context, userID, productID uuid.UUID, limit, offset int) ([]*product.PriceEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, product_id, invoice_id, merchant_tax_id, merchant_name,
			unit_price, quantity, purchased_at, created_at
		FROM price_history
		WHERE user_id = $1 AND product_id = $2
		ORDER BY purchased_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := s.db.QueryContext(ctx, query, userID, productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing price history: %w", err)
	}
	defer rows.Close()

	var entries []*product.PriceEntry

	for rows.Next() {
		var e product.PriceEntry

		var unitPrice, quantity string

		if err := rows.Scan(
			&e.ID, &e.UserID, &e.ProductID, &e.InvoiceID, &e.MerchantTaxID, &e.MerchantName,
			&unitPrice, &quantity, &e.PurchasedAt, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning price history: %w", err)
		}

		if e.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, fmt.Errorf("parsing unit_price: %w", err)
		}

		if e.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, fmt.Errorf("parsing quantity: %w", err)
		}

		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating price history: %w", err)
	}

	return entries, nil
}

func (s *Store) DeletePricesByInvoice(ctx context.Context, userID, invoiceID uuid.UUID) error {
	query := `DELETE FROM price_history WHERE user_id = $1 AND invoice_id = $2`

	if _, err := s.db.ExecContext(ctx, query, userID, invoiceID); err != nil {
		return fmt.Errorf("deleting price history: %w", err)
	}

	return nil
}

// statsLockKey derives the advisory-lock key that serializes statistic
// updates for one product.
func statsLockKey(productID uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write(productID[:])

	return int64(h.Sum64())
}

type statsTx struct {
	tx        *sql.Tx
	userID    uuid.UUID
	productID uuid.UUID
}

func (s *Store) BeginStats(ctx context.Context, userID, productID uuid.UUID) (product.StatsTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning stats tx: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", statsLockKey(productID)); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring stats lock: %w", err)
	}

	return &statsTx{tx: dbTx, userID: userID, productID: productID}, nil
}

func (stx *statsTx) Commit() error   { return stx.tx.Commit() }
func (stx *statsTx) Rollback() error { return stx.tx.Rollback() }

func (stx *statsTx) Product(ctx context.Context) (*product.Product, error) {
	query := `SELECT ` + selectProductColumns + ` FROM products WHERE id = $1 AND user_id = $2`

	p, err := scanProduct(stx.tx.QueryRowContext(ctx, query, stx.productID, stx.userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, product.ErrNotFound
		}

		return nil, fmt.Errorf("getting product: %w", err)
	}

	return p, nil
}

func (stx *statsTx) RemainingPrices(ctx context.Context, excludeInvoiceID uuid.UUID) ([]decimal.Decimal, error) {
	query := `
		SELECT unit_price FROM price_history
		WHERE user_id = $1 AND product_id = $2 AND invoice_id != $3
	`

	rows, err := stx.tx.QueryContext(ctx, query, stx.userID, stx.productID, excludeInvoiceID)
	if err != nil {
		return nil, fmt.Errorf("listing remaining prices: %w", err)
	}
	defer rows.Close()

	var prices []decimal.Decimal

	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning price: %w", err)
		}

		price, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing price: %w", err)
		}

		prices = append(prices, price)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating prices: %w", err)
	}

	return prices, nil
}

func (stx *statsTx) SaveStats(ctx context.Context, count int64, avg decimal.Decimal, lastPurchaseAt *time.Time) error {
	query := `
		UPDATE products
		SET purchase_count = $1, avg_unit_price = $2, last_purchase_at = $3, updated_at = NOW()
		WHERE id = $4 AND user_id = $5
	`

	if _, err := stx.tx.ExecContext(ctx, query, count, avg, lastPurchaseAt, stx.productID, stx.userID); err != nil {
		return fmt.Errorf("saving product stats: %w", err)
	}

	return nil
}
