package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

// MarketStore implements domain.MarketStore using PostgreSQL.
type MarketStore struct {
	pool *pgxpool.Pool
}

// NewMarketStore creates a new MarketStore backed by the given connection pool.
func NewMarketStore(pool *pgxpool.Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

const marketSelectCols = `id, question, slug, yes_token_id, no_token_id,
	game_start_time, end_date`

func scanMarketRow(row pgx.Row) (domain.Market, error) {
	var m domain.Market
	err := row.Scan(
		&m.ID, &m.Question, &m.Slug,
		&m.YesTokenID, &m.NoTokenID,
		&m.GameStartTime, &m.EndDate,
	)
	if err != nil {
		return domain.Market{}, err
	}
	return m, nil
}

// Upsert inserts the market or replaces its metadata when already known.
func (s *MarketStore) Upsert(ctx context.Context, market domain.Market) error {
	const query = `
		INSERT INTO markets (
			id, question, slug, yes_token_id, no_token_id,
			game_start_time, end_date, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			question        = EXCLUDED.question,
			slug            = EXCLUDED.slug,
			yes_token_id    = EXCLUDED.yes_token_id,
			no_token_id     = EXCLUDED.no_token_id,
			game_start_time = EXCLUDED.game_start_time,
			end_date        = EXCLUDED.end_date,
			updated_at      = NOW()`

	_, err := s.pool.Exec(ctx, query,
		market.ID, market.Question, market.Slug,
		market.YesTokenID, market.NoTokenID,
		market.GameStartTime, market.EndDate,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert market %s: %w", market.ID, err)
	}
	return nil
}

// GetByID retrieves a market by its condition ID.
func (s *MarketStore) GetByID(ctx context.Context, id string) (domain.Market, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+marketSelectCols+` FROM markets WHERE id = $1`, id)

	m, err := scanMarketRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("postgres: get market %s: %w", id, err)
	}
	return m, nil
}

// GetByTokenID retrieves the market holding the given outcome token on either
// side.
func (s *MarketStore) GetByTokenID(ctx context.Context, tokenID string) (domain.Market, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+marketSelectCols+` FROM markets
		 WHERE yes_token_id = $1 OR no_token_id = $1`, tokenID)

	m, err := scanMarketRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("postgres: get market by token %s: %w", tokenID, err)
	}
	return m, nil
}
