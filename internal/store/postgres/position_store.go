package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

// PositionStore implements domain.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *pgxpool.Pool
}

// NewPositionStore creates a new PositionStore backed by the given connection pool.
func NewPositionStore(pool *pgxpool.Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

const positionSelectCols = `market_id, shares_yes, shares_no,
	avg_entry_yes, avg_entry_no, cost_basis_yes, cost_basis_no,
	realized_pnl, opened_at, updated_at`

func scanPositionRow(row pgx.Row) (domain.Position, error) {
	var p domain.Position
	err := row.Scan(
		&p.MarketID,
		&p.SharesYes, &p.SharesNo,
		&p.AvgEntryYes, &p.AvgEntryNo,
		&p.CostBasisYes, &p.CostBasisNo,
		&p.RealizedPnL,
		&p.OpenedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Position{}, err
	}
	return p, nil
}

// Get retrieves the position for a market.
func (s *PositionStore) Get(ctx context.Context, marketID string) (domain.Position, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+positionSelectCols+` FROM positions WHERE market_id = $1`, marketID)

	p, err := scanPositionRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Position{}, domain.ErrNotFound
		}
		return domain.Position{}, fmt.Errorf("postgres: get position %s: %w", marketID, err)
	}
	return p, nil
}

// Upsert applies the mutation to the market's position, creating the row when
// absent. A create race with a concurrent fill on the same market is retried
// as an update; the mutation may therefore run more than once. Contention
// that outlives the retry budget surfaces as domain.ErrConflict.
func (s *PositionStore) Upsert(ctx context.Context, marketID string, mutate domain.PositionMutation) (domain.Position, error) {
	const maxAttempts = 3

	for attempt := 0; attempt < maxAttempts; attempt++ {
		current, err := s.Get(ctx, marketID)
		if errors.Is(err, domain.ErrNotFound) {
			next := mutate(domain.Position{MarketID: marketID})
			if err := s.insert(ctx, next); err != nil {
				if isUniqueViolation(err) {
					continue
				}
				return domain.Position{}, err
			}
			return next, nil
		}
		if err != nil {
			return domain.Position{}, err
		}

		next := mutate(current)
		if err := s.update(ctx, next); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return domain.Position{}, err
		}
		return next, nil
	}
	return domain.Position{}, fmt.Errorf("postgres: upsert position %s: %w", marketID, domain.ErrConflict)
}

// uniqueViolationCode is SQLSTATE 23505, the signature of a lost create race.
const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// List returns all persisted positions.
func (s *PositionStore) List(ctx context.Context) ([]domain.Position, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+positionSelectCols+` FROM positions ORDER BY market_id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list positions: %w", err)
	}
	defer rows.Close()

	var positions []domain.Position
	for rows.Next() {
		var p domain.Position
		if err := rows.Scan(
			&p.MarketID,
			&p.SharesYes, &p.SharesNo,
			&p.AvgEntryYes, &p.AvgEntryNo,
			&p.CostBasisYes, &p.CostBasisNo,
			&p.RealizedPnL,
			&p.OpenedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan positions: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func (s *PositionStore) insert(ctx context.Context, p domain.Position) error {
	const query = `
		INSERT INTO positions (
			market_id, shares_yes, shares_no,
			avg_entry_yes, avg_entry_no, cost_basis_yes, cost_basis_no,
			realized_pnl, opened_at, updated_at
		) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7,
			$8, $9, NOW()
		)`

	_, err := s.pool.Exec(ctx, query,
		p.MarketID,
		p.SharesYes, p.SharesNo,
		p.AvgEntryYes, p.AvgEntryNo,
		p.CostBasisYes, p.CostBasisNo,
		p.RealizedPnL, p.OpenedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create position %s: %w", p.MarketID, err)
	}
	return nil
}

func (s *PositionStore) update(ctx context.Context, p domain.Position) error {
	const query = `
		UPDATE positions SET
			shares_yes     = $2,
			shares_no      = $3,
			avg_entry_yes  = $4,
			avg_entry_no   = $5,
			cost_basis_yes = $6,
			cost_basis_no  = $7,
			realized_pnl   = $8,
			opened_at      = $9,
			updated_at     = NOW()
		WHERE market_id = $1`

	tag, err := s.pool.Exec(ctx, query,
		p.MarketID,
		p.SharesYes, p.SharesNo,
		p.AvgEntryYes, p.AvgEntryNo,
		p.CostBasisYes, p.CostBasisNo,
		p.RealizedPnL, p.OpenedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: update position %s: %w", p.MarketID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
