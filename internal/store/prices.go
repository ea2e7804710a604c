package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/chartguess/internal/series"
)

// PriceRepository archives fetched daily price series in PostgreSQL so the
// game can run when the provider is throttled or unreachable.
// ⭐ SSOT: 가격 아카이브 접근은 여기서만
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// SaveSeries upserts every point of a series
func (r *PriceRepository) SaveSeries(ctx context.Context, s *series.Series) error {
	query := `
		INSERT INTO daily_prices (symbol, trade_date, close_price)
		VALUES ($1, $2, $3)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			close_price = EXCLUDED.close_price
	`

	for i := 0; i < s.Len(); i++ {
		p := s.At(i)
		if _, err := r.pool.Exec(ctx, query, s.Symbol(), p.Date, p.Close); err != nil {
			return fmt.Errorf("save point %s/%s: %w", s.Symbol(), p.Date.Format("2006-01-02"), err)
		}
	}
	return nil
}

// GetBySymbol retrieves all archived points for a symbol, oldest first
func (r *PriceRepository) GetBySymbol(ctx context.Context, symbol string) ([]series.Point, error) {
	query := `
		SELECT trade_date, close_price
		FROM daily_prices
		WHERE symbol = $1
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []series.Point
	for rows.Next() {
		var p series.Point
		if err := rows.Scan(&p.Date, &p.Close); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// GetBySymbolAndDateRange retrieves archived points within [from, to]
func (r *PriceRepository) GetBySymbolAndDateRange(ctx context.Context, symbol string, from, to time.Time) ([]series.Point, error) {
	query := `
		SELECT trade_date, close_price
		FROM daily_prices
		WHERE symbol = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, symbol, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []series.Point
	for rows.Next() {
		var p series.Point
		if err := rows.Scan(&p.Date, &p.Close); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// CountBySymbol returns the number of archived points for a symbol
func (r *PriceRepository) CountBySymbol(ctx context.Context, symbol string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM daily_prices WHERE symbol = $1`, symbol,
	).Scan(&count)
	return count, err
}

// Migrate creates the archive table when it does not exist
func (r *PriceRepository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS daily_prices (
			symbol      TEXT             NOT NULL,
			trade_date  DATE             NOT NULL,
			close_price DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (symbol, trade_date)
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate daily_prices: %w", err)
	}
	return nil
}
