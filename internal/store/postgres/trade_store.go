package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

// TradeStore implements domain.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *pgxpool.Pool
}

// NewTradeStore creates a new TradeStore backed by the given connection pool.
func NewTradeStore(pool *pgxpool.Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

const tradeSelectCols = `id, order_id, market_id, token_id, side, strategy,
	price, shares, usdc, slippage, is_exit, status, created_at`

func scanTradeRows(rows pgx.Rows) ([]domain.TradeRecord, error) {
	var records []domain.TradeRecord
	for rows.Next() {
		var rec domain.TradeRecord
		var side, strategy, status string

		if err := rows.Scan(
			&rec.ID, &rec.OrderID, &rec.MarketID, &rec.TokenID,
			&side, &strategy,
			&rec.Price, &rec.Shares, &rec.USDC, &rec.Slippage,
			&rec.IsExit, &status, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		rec.Side = domain.Side(side)
		rec.Strategy = domain.StrategyType(strategy)
		rec.Status = domain.ExecutionStatus(status)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Append inserts a fill record. The log is append-only; records are never
// updated or deleted here.
func (s *TradeStore) Append(ctx context.Context, rec domain.TradeRecord) error {
	const query = `
		INSERT INTO trades (
			id, order_id, market_id, token_id, side, strategy,
			price, shares, usdc, slippage, is_exit, status, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12, $13
		)`

	_, err := s.pool.Exec(ctx, query,
		rec.ID, rec.OrderID, rec.MarketID, rec.TokenID,
		string(rec.Side), string(rec.Strategy),
		rec.Price, rec.Shares, rec.USDC, rec.Slippage,
		rec.IsExit, string(rec.Status), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: append trade %s: %w", rec.ID, err)
	}
	return nil
}

// ListBefore returns all fills recorded strictly before the cutoff, oldest
// first.
func (s *TradeStore) ListBefore(ctx context.Context, before time.Time) ([]domain.TradeRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tradeSelectCols+` FROM trades
		 WHERE created_at < $1
		 ORDER BY created_at ASC`, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades before %s: %w", before.Format(time.RFC3339), err)
	}
	defer rows.Close()

	records, err := scanTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan trades: %w", err)
	}
	return records, nil
}

// ListByMarket returns the market's fills newest first, capped at limit when
// limit is positive.
func (s *TradeStore) ListByMarket(ctx context.Context, marketID string, limit int) ([]domain.TradeRecord, error) {
	query := `SELECT ` + tradeSelectCols + ` FROM trades
		 WHERE market_id = $1
		 ORDER BY created_at DESC`
	args := []any{marketID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades for market %s: %w", marketID, err)
	}
	defer rows.Close()

	records, err := scanTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan trades: %w", err)
	}
	return records, nil
}

// DeleteBefore removes fills older than the cutoff. The archiver calls this
// after a successful export.
func (s *TradeStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM trades WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete trades before %s: %w", before.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}
