package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/vhrodrigues/notinha/internal/category"
	"github.com/vhrodrigues/notinha/internal/invoice"
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

const selectInvoiceColumns = `
	id, user_id, access_key, number, series, issued_at,
	merchant_tax_id, merchant_name, merchant_trade_name, merchant_address, merchant_city, merchant_state,
	total, category, linked_transaction_id, linked_account_id, created_at, updated_at
`

func scanInvoice(s scanner) (*invoice.Invoice, error) {
	var inv invoice.Invoice

	var categoryStr, total string

	var number, series, tradeName, address, city, state sql.NullString

	if err := s.Scan(
		&inv.ID, &inv.UserID, &inv.AccessKey, &number, &series, &inv.IssuedAt,
		&inv.MerchantTaxID, &inv.MerchantName, &tradeName, &address, &city, &state,
		&total, &categoryStr, &inv.LinkedTransactionID, &inv.LinkedAccountID,
		&inv.CreatedAt, &inv.UpdatedAt,
	); err != nil {
		return nil, err
	}

	inv.Number = number.String
	inv.Series = series.String
	inv.MerchantTradeName = tradeName.String
	inv.MerchantAddress = address.String
	inv.MerchantCity = city.String
	inv.MerchantState = state.String
	inv.Category = category.Category(categoryStr)

	parsed, err := decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("parsing total: %w", err)
	}

	inv.Total = parsed

	return &inv, nil
}

func (s *Store) FindByKey(ctx context.Context, userID uuid.UUID, accessKey string) (*invoice.Invoice, error) {
	query := `SELECT ` + selectInvoiceColumns + ` FROM invoices WHERE user_id = $1 AND access_key = $2`

	inv, err := scanInvoice(s.db.QueryRowContext(ctx, query, userID, accessKey))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, invoice.ErrNotFound
		}

		return nil, fmt.Errorf("finding invoice by key: %w", err)
	}

	return inv, nil
}

func (s *Store) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	query := `
		INSERT INTO invoices (user_id, access_key, number, series, issued_at,
			merchant_tax_id, merchant_name, merchant_trade_name, merchant_address, merchant_city, merchant_state,
			total, category, linked_transaction_id, linked_account_id, created_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''), $12, $13, $14, $15, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		inv.UserID,
		inv.AccessKey,
		inv.Number,
		inv.Series,
		inv.IssuedAt,
		inv.MerchantTaxID,
		inv.MerchantName,
		inv.MerchantTradeName,
		inv.MerchantAddress,
		inv.MerchantCity,
		inv.MerchantState,
		inv.Total,
		inv.Category,
		inv.LinkedTransactionID,
		inv.LinkedAccountID,
	).Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			// Lost the insert race; surface the winner as the duplicate.
			if existing, findErr := s.FindByKey(ctx, inv.UserID, inv.AccessKey); findErr == nil {
				return &invoice.DuplicateError{ExistingID: existing.ID, CreatedAt: existing.CreatedAt}
			}

			return &invoice.DuplicateError{}
		}

		return fmt.Errorf("creating invoice: %w", err)
	}

	return nil
}

func (s *Store) CreateItems(ctx context.Context, items []*invoice.Item) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning items tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO invoice_items (invoice_id, user_id, product_id, description,
			product_code, ncm_code, quantity, unit_price, total_price, discount, line_number, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, $10, $11, NOW())
		RETURNING id, created_at
	`

	for _, item := range items {
		err := tx.QueryRowContext(ctx, query,
			item.InvoiceID,
			item.UserID,
			item.ProductID,
			item.Description,
			item.ProductCode,
			item.NCMCode,
			item.Quantity,
			item.UnitPrice,
			item.TotalPrice,
			item.Discount,
			item.LineNumber,
		).Scan(&item.ID, &item.CreatedAt)
		if err != nil {
			return fmt.Errorf("creating invoice item %d: %w", item.LineNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing items: %w", err)
	}

	return nil
}

func (s *Store) GetInvoice(ctx context.Context, userID, id uuid.UUID) (*invoice.Invoice, error) {
	query := `SELECT ` + selectInvoiceColumns + ` FROM invoices WHERE id = $1 AND user_id = $2`

	inv, err := scanInvoice(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, invoice.ErrNotFound
		}

		return nil, fmt.Errorf("getting invoice: %w", err)
	}

	return inv, nil
}

func (s *Store) GetItems(ctx context.Context, userID, invoiceID uuid.UUID) ([]*invoice.Item, error) {
	query := `
		SELECT id, invoice_id, user_id, product_id, description, product_code, ncm_code,
			quantity, unit_price, total_price, discount, line_number, created_at
		FROM invoice_items
		WHERE invoice_id = $1 AND user_id = $2
		ORDER BY line_number ASC
	`

	rows, err := s.db.QueryContext(ctx, query, invoiceID, userID)
	if err != nil {
		return nil, fmt.Errorf("listing invoice items: %w", err)
	}
	defer rows.Close()

	var items []*invoice.Item

	for rows.Next() {
		var item invoice.Item

		var code, ncm sql.NullString

		var quantity, unitPrice, totalPrice, discount string

		if err := rows.Scan(
			&item.ID, &item.InvoiceID, &item.UserID, &item.ProductID, &item.Description, &code, &ncm,
			&quantity, &unitPrice, &totalPrice, &discount, &item.LineNumber, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning invoice item: %w", err)
		}

		item.ProductCode = code.String
		item.NCMCode = ncm.String

		for _, pair := range []struct {
			dst *decimal.Decimal
			src string
		}{
			{&item.Quantity, quantity},
			{&item.UnitPrice, unitPrice},
			{&item.TotalPrice, totalPrice},
			{&item.Discount, discount},
		} {
			d, err := decimal.NewFromString(pair.src)
			if err != nil {
				return nil, fmt.Errorf("parsing item decimal: %w", err)
			}

			*pair.dst = d
		}

		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invoice items: %w", err)
	}

	return items, nil
}

func (s *Store) ListInvoices(ctx context.Context, userID uuid.UUID, filter invoice.ListFilter) ([]*invoice.Invoice, error) {
	query := `SELECT ` + selectInvoiceColumns + ` FROM invoices WHERE user_id = $1`

	args := []any{userID}

	argIdx := 2

	if filter.Category != nil {
		query += fmt.Sprintf(" AND category = $%d", argIdx)
		args = append(args, *filter.Category)
		argIdx++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND issued_at >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND issued_at <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	query += " ORDER BY issued_at DESC"

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
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*invoice.Invoice

	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning invoice: %w", err)
		}

		invoices = append(invoices, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invoices: %w", err)
	}

	return invoices, nil
}

// DeleteInvoice removes the invoice and its items in one transaction.
// Price-history rows and statistics are the service's responsibility.
func (s *Store) DeleteInvoice(ctx context.Context, userID, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning delete tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1 AND user_id = $2`, id, userID); err != nil {
		return fmt.Errorf("deleting invoice items: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM invoices WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting invoice: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting invoice: %w", err)
	}

	if affected == 0 {
		return invoice.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}

	return nil
}

func (s *Store) MonthlySummary(ctx context.Context, userID uuid.UUID, year int, month time.Month) ([]invoice.CategoryTotal, error) {
	query := `
		SELECT category, SUM(total), COUNT(*)
		FROM invoices
		WHERE user_id = $1
			AND issued_at >= $2
			AND issued_at < $3
		GROUP BY category
		ORDER BY SUM(total) DESC
	`

	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	rows, err := s.db.QueryContext(ctx, query, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("monthly summary: %w", err)
	}
	defer rows.Close()

	var totals []invoice.CategoryTotal

	for rows.Next() {
		var (
			categoryStr string
			totalStr    string
			count       int
		)

		if err := rows.Scan(&categoryStr, &totalStr, &count); err != nil {
			return nil, fmt.Errorf("scanning summary row: %w", err)
		}

		total, err := decimal.NewFromString(totalStr)
		if err != nil {
			return nil, fmt.Errorf("parsing summary total: %w", err)
		}

		totals = append(totals, invoice.CategoryTotal{
			Category: category.Category(categoryStr),
			Total:    total,
			Count:    count,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating summary rows: %w", err)
	}

	return totals, nil
}
