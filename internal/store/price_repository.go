package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fengyx/quantback/internal/contracts"
	"github.com/fengyx/quantback/internal/market"
)

// PriceRepository loads daily close prices from Postgres.
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// GetCloses materializes a price book for the given date range. Tickers are
// canonicalized on the way in so the book matches signal tickers exactly.
// Close prices are read as text to keep decimal precision intact.
func (r *PriceRepository) GetCloses(ctx context.Context, from, to time.Time) (*contracts.PriceBook, error) {
	query := `
		SELECT ticker, trade_date, close_price::text
		FROM quant.daily_prices
		WHERE trade_date BETWEEN $1 AND $2
		ORDER BY trade_date, ticker
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query daily prices: %w", err)
	}
	defer rows.Close()

	book := contracts.NewPriceBook()
	for rows.Next() {
		var (
			ticker   string
			day      time.Time
			rawClose string
		)
		if err := rows.Scan(&ticker, &day, &rawClose); err != nil {
			return nil, fmt.Errorf("scan daily price: %w", err)
		}

		canonical, err := market.NormalizeTicker(ticker)
		if err != nil {
			return nil, fmt.Errorf("price row %s: %w", ticker, err)
		}
		close, err := decimal.NewFromString(rawClose)
		if err != nil {
			return nil, fmt.Errorf("parse close for %s: %w", canonical, err)
		}

		book.Add(canonical, market.ToTradingDay(day), close)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read daily prices: %w", err)
	}

	return book, nil
}
