package clickhouse

import (
	"context"
	"fmt"

	"solana-mint-watch/internal/domain"
	"solana-mint-watch/internal/storage"
)

// MintEventArchive implements storage.MintEventArchive using ClickHouse.
// The archive is append-only: MergeTree does not enforce uniqueness, so
// re-detections across restarts land as additional rows and are counted
// via CountByMint rather than rejected.
type MintEventArchive struct {
	conn *Conn
}

// NewMintEventArchive creates a new MintEventArchive.
func NewMintEventArchive(conn *Conn) *MintEventArchive {
	return &MintEventArchive{conn: conn}
}

// Compile-time interface check.
var _ storage.MintEventArchive = (*MintEventArchive)(nil)

// Append writes a batch of detections to the archive.
func (a *MintEventArchive) Append(ctx context.Context, events []*domain.MintEvent) error {
	if len(events) == 0 {
		return nil
	}
	for _, e := range events {
		if e == nil || e.Mint == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := a.conn.PrepareBatch(ctx, `
		INSERT INTO mint_events (
			mint, slot, block_time, detected_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range events {
		var blockTime *uint64
		if e.BlockTime != nil {
			bt := uint64(*e.BlockTime)
			blockTime = &bt
		}
		err = batch.Append(
			e.Mint, uint64(e.Slot), blockTime, uint64(e.DetectedAt),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// CountByMint returns how many archive rows exist for a mint.
func (a *MintEventArchive) CountByMint(ctx context.Context, mint string) (uint64, error) {
	query := `SELECT count(*) FROM mint_events WHERE mint = ?`

	var count uint64
	if err := a.conn.QueryRow(ctx, query, mint).Scan(&count); err != nil {
		return 0, fmt.Errorf("count by mint: %w", err)
	}
	return count, nil
}

// GetRecent returns the most recently detected events, newest first.
func (a *MintEventArchive) GetRecent(ctx context.Context, limit int) ([]*domain.MintEvent, error) {
	query := `
		SELECT mint, slot, block_time, detected_at
		FROM mint_events
		ORDER BY detected_at DESC
		LIMIT ?
	`

	rows, err := a.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent events: %w", err)
	}
	defer rows.Close()

	var events []*domain.MintEvent
	for rows.Next() {
		var (
			e          domain.MintEvent
			slot       uint64
			blockTime  *uint64
			detectedAt uint64
		)
		if err := rows.Scan(&e.Mint, &slot, &blockTime, &detectedAt); err != nil {
			return nil, fmt.Errorf("scan archive row: %w", err)
		}
		e.Slot = int64(slot)
		e.DetectedAt = int64(detectedAt)
		if blockTime != nil {
			bt := int64(*blockTime)
			e.BlockTime = &bt
		}
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archive rows: %w", err)
	}

	return events, nil
}
