package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"swapPilot/internal/activity"
	"swapPilot/internal/model"
)

// Store provides Postgres persistence for the activity log.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Append inserts one entry and trims the table to the newest entries.
func (s *Store) Append(ctx context.Context, entry model.ActivityEntry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO activity_log (
			action_type, ts, pool_address, token0, token1, amount0, amount1, tx_hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		entry.Type,
		entry.Timestamp,
		entry.PoolAddress,
		entry.Token0,
		entry.Token1,
		entry.Amount0,
		entry.Amount1,
		entry.TxHash,
	)
	if err != nil {
		return fmt.Errorf("insert activity entry: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		DELETE FROM activity_log
		WHERE id NOT IN (
			SELECT id FROM activity_log ORDER BY ts DESC, id DESC LIMIT $1
		)
	`, activity.MaxEntries)
	if err != nil {
		return fmt.Errorf("trim activity log: %w", err)
	}

	return nil
}

// ReadAll returns every stored entry, oldest first.
func (s *Store) ReadAll(ctx context.Context) ([]model.ActivityEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT action_type, ts, pool_address, token0, token1, amount0, amount1, tx_hash
		FROM activity_log
		ORDER BY ts ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query activity log: %w", err)
	}
	defer rows.Close()

	var entries []model.ActivityEntry
	for rows.Next() {
		var entry model.ActivityEntry
		if err := rows.Scan(
			&entry.Type,
			&entry.Timestamp,
			&entry.PoolAddress,
			&entry.Token0,
			&entry.Token1,
			&entry.Amount0,
			&entry.Amount1,
			&entry.TxHash,
		); err != nil {
			return nil, fmt.Errorf("scan activity entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read activity log: %w", err)
	}

	return entries, nil
}
