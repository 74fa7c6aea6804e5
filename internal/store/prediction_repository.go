package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fengyx/quantback/internal/contracts"
)

// PredictionRepository loads model scores from Postgres. The scoring
// pipeline writes them; this side only reads.
type PredictionRepository struct {
	pool *pgxpool.Pool
}

// NewPredictionRepository creates a new prediction repository
func NewPredictionRepository(pool *pgxpool.Pool) *PredictionRepository {
	return &PredictionRepository{pool: pool}
}

// GetByModelAndRange materializes one prediction batch for a model over a
// date range. Tickers come back raw; normalization happens downstream.
func (r *PredictionRepository) GetByModelAndRange(ctx context.Context, modelID string, from, to time.Time) (*contracts.PredictionBatch, error) {
	query := `
		SELECT ticker, trade_date, score, confidence, model_id
		FROM quant.predictions
		WHERE model_id = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date, ticker
	`

	rows, err := r.pool.Query(ctx, query, modelID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	batch := contracts.NewPredictionBatch()
	for rows.Next() {
		var p contracts.Prediction
		if err := rows.Scan(&p.Ticker, &p.Date, &p.Score, &p.Confidence, &p.ModelID); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		if err := batch.Add(p); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read predictions: %w", err)
	}

	return batch, nil
}

// Models returns the distinct model ids with stored predictions.
func (r *PredictionRepository) Models(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT model_id FROM quant.predictions ORDER BY model_id`)
	if err != nil {
		return nil, fmt.Errorf("query models: %w", err)
	}
	defer rows.Close()

	var models []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan model id: %w", err)
		}
		models = append(models, id)
	}
	return models, rows.Err()
}
