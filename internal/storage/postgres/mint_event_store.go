package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-mint-watch/internal/domain"
	"solana-mint-watch/internal/storage"
)

// MintEventStore implements storage.MintEventStore using PostgreSQL.
type MintEventStore struct {
	pool *Pool
}

// NewMintEventStore creates a new MintEventStore.
func NewMintEventStore(pool *Pool) *MintEventStore {
	return &MintEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MintEventStore = (*MintEventStore)(nil)

// Insert adds a new detection. Returns ErrDuplicateKey if the mint exists.
func (s *MintEventStore) Insert(ctx context.Context, e *domain.MintEvent) error {
	if e == nil || e.Mint == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO mint_events (
			mint, slot, block_time, detected_at
		) VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query,
		e.Mint,
		e.Slot,
		e.BlockTime,
		e.DetectedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert mint event: %w", err)
	}
	return nil
}

// GetByMint retrieves the detection for a mint. Returns ErrNotFound if not exists.
func (s *MintEventStore) GetByMint(ctx context.Context, mint string) (*domain.MintEvent, error) {
	query := `
		SELECT mint, slot, block_time, detected_at
		FROM mint_events
		WHERE mint = $1
	`

	row := s.pool.QueryRow(ctx, query, mint)
	e, err := scanMintEvent(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get mint event by mint: %w", err)
	}
	return e, nil
}

// GetBySlotRange retrieves detections within slot range [low, high] (inclusive).
func (s *MintEventStore) GetBySlotRange(ctx context.Context, low, high int64) ([]*domain.MintEvent, error) {
	query := `
		SELECT mint, slot, block_time, detected_at
		FROM mint_events
		WHERE slot >= $1 AND slot <= $2
		ORDER BY slot ASC, mint ASC
	`

	rows, err := s.pool.Query(ctx, query, low, high)
	if err != nil {
		return nil, fmt.Errorf("get mint events by slot range: %w", err)
	}
	defer rows.Close()

	return scanMintEvents(rows)
}

// ListMints returns every recorded mint address.
func (s *MintEventStore) ListMints(ctx context.Context) ([]string, error) {
	query := `SELECT mint FROM mint_events ORDER BY mint ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list mints: %w", err)
	}
	defer rows.Close()

	var mints []string
	for rows.Next() {
		var mint string
		if err := rows.Scan(&mint); err != nil {
			return nil, fmt.Errorf("scan mint row: %w", err)
		}
		mints = append(mints, mint)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mint rows: %w", err)
	}

	return mints, nil
}

// scanMintEvent scans a single row into a MintEvent.
func scanMintEvent(row pgx.Row) (*domain.MintEvent, error) {
	var e domain.MintEvent

	err := row.Scan(
		&e.Mint,
		&e.Slot,
		&e.BlockTime,
		&e.DetectedAt,
	)
	if err != nil {
		return nil, err
	}

	return &e, nil
}

// scanMintEvents scans multiple rows into a slice of MintEvent.
func scanMintEvents(rows pgx.Rows) ([]*domain.MintEvent, error) {
	var events []*domain.MintEvent

	for rows.Next() {
		var e domain.MintEvent

		err := rows.Scan(
			&e.Mint,
			&e.Slot,
			&e.BlockTime,
			&e.DetectedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan mint event row: %w", err)
		}

		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mint event rows: %w", err)
	}

	return events, nil
}
