package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sellsight/analytics/internal/domain"
)

// ForecastRepository stores forecast artifacts. Predictions, features,
// metrics and the insights snapshot live in JSONB columns; top-level fields
// are flattened for querying.
type ForecastRepository struct {
	db *DB
}

func NewForecastRepository(db *DB) *ForecastRepository {
	return &ForecastRepository{db: db}
}

type forecastRow struct {
	ID        uuid.UUID `db:"id"`
	Scope     string    `db:"scope"`
	UserID    string    `db:"user_id"`
	ProductID string    `db:"product_id"`
	Period    string    `db:"period"`
	ModelType string    `db:"model_type"`
	StartDate sql.NullTime `db:"start_date"`
	EndDate   sql.NullTime `db:"end_date"`
	Payload   []byte    `db:"payload"`
	CreatedAt sql.NullTime `db:"created_at"`
}

type forecastPayload struct {
	Predictions []domain.Prediction `json:"predictions"`
	Features    domain.FeatureSet   `json:"features"`
	Metrics     domain.Metrics      `json:"metrics"`
	Alert       domain.Alert        `json:"alert"`
	Insights    *domain.Insights    `json:"insights,omitempty"`
}

func (r *ForecastRepository) Save(ctx context.Context, f *domain.Forecast) error {
	payload, err := json.Marshal(forecastPayload{
		Predictions: f.Predictions,
		Features:    f.Features,
		Metrics:     f.Metrics,
		Alert:       f.Alert,
		Insights:    f.Insights,
	})
	if err != nil {
		return fmt.Errorf("failed to encode forecast payload: %w", err)
	}

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO forecasts (
				id, scope, user_id, product_id, period, model_type,
				start_date, end_date, payload, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			f.ID, string(f.Scope), f.UserID, f.ProductID, string(f.Period),
			string(f.ModelType), f.StartDate, f.EndDate, payload, f.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert forecast: %w", err)
		}
		return nil
	})
}

func (r *ForecastRepository) Latest(ctx context.Context, scope domain.Scope, userID, productID string) (*domain.Forecast, error) {
	query := `
		SELECT id, scope, user_id, product_id, period, model_type,
		       start_date, end_date, payload, created_at
		FROM forecasts
		WHERE scope = $1 AND product_id = $2
	`
	args := []interface{}{string(scope), productID}
	if scope == domain.ScopeUser {
		query += " AND user_id = $3"
		args = append(args, userID)
	}
	query += " ORDER BY created_at DESC LIMIT 1"

	var row forecastRow
	err := r.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest forecast: %w", err)
	}
	return row.toDomain()
}

func (r *ForecastRepository) List(ctx context.Context, scope domain.Scope, userID, productID string, limit int) ([]domain.Forecast, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, scope, user_id, product_id, period, model_type,
		       start_date, end_date, payload, created_at
		FROM forecasts
		WHERE scope = $1
	`
	args := []interface{}{string(scope)}
	idx := 2
	if scope == domain.ScopeUser {
		query += fmt.Sprintf(" AND user_id = $%d", idx)
		args = append(args, userID)
		idx++
	}
	if productID != "" {
		query += fmt.Sprintf(" AND product_id = $%d", idx)
		args = append(args, productID)
		idx++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", idx)
	args = append(args, limit)

	var rows []forecastRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list forecasts: %w", err)
	}

	forecasts := make([]domain.Forecast, 0, len(rows))
	for _, row := range rows {
		f, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		forecasts = append(forecasts, *f)
	}
	return forecasts, nil
}

func (r *ForecastRepository) UpdateFeatureLabels(ctx context.Context, scope domain.Scope, userID, seasonality, economicTrend string) (int64, error) {
	query := `
		UPDATE forecasts
		SET payload = jsonb_set(
			jsonb_set(payload::jsonb, '{features,seasonality}', to_jsonb($1::text)),
			'{features,economic_trend}', to_jsonb($2::text))
		WHERE scope = $3
	`
	args := []interface{}{seasonality, economicTrend, string(scope)}
	if scope == domain.ScopeUser {
		query += " AND user_id = $4"
		args = append(args, userID)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update feature labels: %w", err)
	}
	return res.RowsAffected()
}

func (row forecastRow) toDomain() (*domain.Forecast, error) {
	var payload forecastPayload
	if err := json.Unmarshal(row.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode forecast payload: %w", err)
	}

	return &domain.Forecast{
		ID:          row.ID,
		Scope:       domain.Scope(row.Scope),
		UserID:      row.UserID,
		ProductID:   row.ProductID,
		Period:      domain.Period(row.Period),
		ModelType:   domain.ModelType(row.ModelType),
		StartDate:   row.StartDate.Time,
		EndDate:     row.EndDate.Time,
		Predictions: payload.Predictions,
		Features:    payload.Features,
		Metrics:     payload.Metrics,
		Alert:       payload.Alert,
		Insights:    payload.Insights,
		CreatedAt:   row.CreatedAt.Time,
	}, nil
}
