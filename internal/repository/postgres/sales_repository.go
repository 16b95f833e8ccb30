package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sellsight/analytics/internal/domain"
)

// SalesRepository reads sale line items and products from postgres.
type SalesRepository struct {
	db *DB
}

func NewSalesRepository(db *DB) *SalesRepository {
	return &SalesRepository{db: db}
}

func (r *SalesRepository) ProductSales(ctx context.Context, scope domain.Scope, userID, productID string, from, to time.Time) ([]domain.SaleRecord, error) {
	query := `
		SELECT s.id AS sale_id, s.sold_at, li.product_id, s.user_id,
		       li.quantity, li.unit_price, li.promotion
		FROM sale_line_items li
		JOIN sales s ON s.id = li.sale_id
		WHERE li.product_id = $1
		  AND s.sold_at >= $2 AND s.sold_at < $3
	`
	args := []interface{}{productID, from, to}
	if scope == domain.ScopeUser {
		query += " AND s.user_id = $4"
		args = append(args, userID)
	}
	query += " ORDER BY s.sold_at"

	var records []domain.SaleRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch product sales: %w", err)
	}
	return records, nil
}

func (r *SalesRepository) Sales(ctx context.Context, scope domain.Scope, userID string, from, to time.Time) ([]domain.SaleRecord, error) {
	query := `
		SELECT s.id AS sale_id, s.sold_at, li.product_id, s.user_id,
		       li.quantity, li.unit_price, li.promotion
		FROM sale_line_items li
		JOIN sales s ON s.id = li.sale_id
		WHERE s.sold_at >= $1 AND s.sold_at < $2
	`
	args := []interface{}{from, to}
	if scope == domain.ScopeUser {
		query += " AND s.user_id = $3"
		args = append(args, userID)
	}
	query += " ORDER BY s.sold_at, s.id"

	var records []domain.SaleRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch sales window: %w", err)
	}
	return records, nil
}

func (r *SalesRepository) Products(ctx context.Context, scope domain.Scope, userID, category string) ([]domain.Product, error) {
	query := `SELECT id, name, category FROM products WHERE 1=1`
	var args []interface{}
	idx := 1
	if scope == domain.ScopeUser {
		query += fmt.Sprintf(" AND user_id = $%d", idx)
		args = append(args, userID)
		idx++
	}
	if category != "" {
		query += fmt.Sprintf(" AND category = $%d", idx)
		args = append(args, category)
	}
	query += " ORDER BY name"

	var products []domain.Product
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (r *SalesRepository) Product(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, `SELECT id, name, category FROM products WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("product %s does not exist", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}
	return &p, nil
}
