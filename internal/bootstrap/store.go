package bootstrap

import (
	"context"
	"fmt"

	"solana-mint-watch/internal/storage"
)

// StoreSource replays mints already persisted by a previous run, so a
// restart does not re-announce tokens detected before the shutdown.
type StoreSource struct {
	store storage.MintEventStore
}

// NewStoreSource creates a source backed by a mint event store.
func NewStoreSource(store storage.MintEventStore) *StoreSource {
	return &StoreSource{store: store}
}

// Compile-time interface check.
var _ SnapshotSource = (*StoreSource)(nil)

// Name identifies the source in logs.
func (s *StoreSource) Name() string {
	return "store"
}

// Mints returns every mint the store has recorded.
func (s *StoreSource) Mints(ctx context.Context) ([]string, error) {
	mints, err := s.store.ListMints(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stored mints: %w", err)
	}
	return mints, nil
}
