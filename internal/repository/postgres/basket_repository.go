package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sellsight/analytics/internal/domain"
)

// BasketRepository stores market-basket analysis runs. Itemsets and rules
// go into a single JSONB payload; the run parameters are flattened columns.
type BasketRepository struct {
	db *DB
}

func NewBasketRepository(db *DB) *BasketRepository {
	return &BasketRepository{db: db}
}

type basketRow struct {
	ID            uuid.UUID `db:"id"`
	AnalysisDate  sql.NullTime `db:"analysis_date"`
	RangeStart    sql.NullTime `db:"range_start"`
	RangeEnd      sql.NullTime `db:"range_end"`
	MinSupport    float64   `db:"min_support"`
	MinConfidence float64   `db:"min_confidence"`
	Payload       []byte    `db:"payload"`
}

type basketPayload struct {
	Itemsets []domain.Itemset         `json:"itemsets"`
	Rules    []domain.AssociationRule `json:"rules"`
}

func (r *BasketRepository) Save(ctx context.Context, res *domain.MarketBasketResult, scope domain.Scope, userID string) error {
	payload, err := json.Marshal(basketPayload{Itemsets: res.Itemsets, Rules: res.Rules})
	if err != nil {
		return fmt.Errorf("failed to encode basket payload: %w", err)
	}

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO basket_analyses (
				id, scope, user_id, analysis_date, range_start, range_end,
				min_support, min_confidence, payload
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			res.ID, string(scope), userID, res.AnalysisDate, res.RangeStart,
			res.RangeEnd, res.MinSupport, res.MinConfidence, payload,
		)
		if err != nil {
			return fmt.Errorf("failed to insert basket analysis: %w", err)
		}
		return nil
	})
}

func (r *BasketRepository) List(ctx context.Context, scope domain.Scope, userID string, limit int) ([]domain.MarketBasketResult, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, analysis_date, range_start, range_end,
		       min_support, min_confidence, payload
		FROM basket_analyses
		WHERE scope = $1
	`
	args := []interface{}{string(scope)}
	if scope == domain.ScopeUser {
		query += " AND user_id = $2 ORDER BY analysis_date DESC LIMIT $3"
		args = append(args, userID, limit)
	} else {
		query += " ORDER BY analysis_date DESC LIMIT $2"
		args = append(args, limit)
	}

	var rows []basketRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list basket analyses: %w", err)
	}

	results := make([]domain.MarketBasketResult, 0, len(rows))
	for _, row := range rows {
		var payload basketPayload
		if err := json.Unmarshal(row.Payload, &payload); err != nil {
			return nil, fmt.Errorf("failed to decode basket payload: %w", err)
		}
		results = append(results, domain.MarketBasketResult{
			ID:            row.ID,
			AnalysisDate:  row.AnalysisDate.Time,
			RangeStart:    row.RangeStart.Time,
			RangeEnd:      row.RangeEnd.Time,
			MinSupport:    row.MinSupport,
			MinConfidence: row.MinConfidence,
			Itemsets:      payload.Itemsets,
			Rules:         payload.Rules,
		})
	}
	return results, nil
}
