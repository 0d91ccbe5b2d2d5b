package storage

import (
	"context"

	"solana-mint-watch/internal/domain"
)

// MintEventStore provides access to mint_events storage.
// Detections are append-only; one row per mint.
type MintEventStore interface {
	// Insert adds a new detection. Returns ErrDuplicateKey if the mint
	// has already been recorded.
	Insert(ctx context.Context, e *domain.MintEvent) error

	// GetByMint retrieves the detection for a mint. Returns ErrNotFound
	// if not recorded.
	GetByMint(ctx context.Context, mint string) (*domain.MintEvent, error)

	// GetBySlotRange retrieves detections within [low, high] inclusive,
	// ordered by slot ASC.
	GetBySlotRange(ctx context.Context, low, high int64) ([]*domain.MintEvent, error)

	// ListMints returns every recorded mint address. Used to seed the
	// known-mint registry at startup.
	ListMints(ctx context.Context) ([]string, error)
}

// MintEventArchive is an append-only analytical archive of detections.
// Unlike MintEventStore it enforces no uniqueness; re-appending the
// same mint is allowed and deduplicated at query time.
type MintEventArchive interface {
	// Append adds detections to the archive.
	Append(ctx context.Context, events []*domain.MintEvent) error

	// CountByMint returns the number of archived rows for a mint.
	CountByMint(ctx context.Context, mint string) (uint64, error)
}
