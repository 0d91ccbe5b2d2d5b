// Package memory provides in-memory storage implementations.
package memory

import (
	"context"
	"sort"
	"sync"

	"solana-mint-watch/internal/domain"
	"solana-mint-watch/internal/storage"
)

// MintEventStore is an in-memory implementation of storage.MintEventStore.
type MintEventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.MintEvent // keyed by mint
}

// NewMintEventStore creates a new in-memory mint event store.
func NewMintEventStore() *MintEventStore {
	return &MintEventStore{
		data: make(map[string]*domain.MintEvent),
	}
}

// Compile-time interface check.
var _ storage.MintEventStore = (*MintEventStore)(nil)

// Insert adds a new detection. Returns ErrDuplicateKey if the mint exists.
func (s *MintEventStore) Insert(_ context.Context, e *domain.MintEvent) error {
	if e == nil || e.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[e.Mint]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	eventCopy := *e
	s.data[e.Mint] = &eventCopy
	return nil
}

// GetByMint retrieves the detection for a mint. Returns ErrNotFound if absent.
func (s *MintEventStore) GetByMint(_ context.Context, mint string) (*domain.MintEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.data[mint]
	if !exists {
		return nil, storage.ErrNotFound
	}

	eventCopy := *e
	return &eventCopy, nil
}

// GetBySlotRange retrieves detections within [low, high] inclusive.
func (s *MintEventStore) GetBySlotRange(_ context.Context, low, high int64) ([]*domain.MintEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MintEvent
	for _, e := range s.data {
		if e.Slot >= low && e.Slot <= high {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}

	// Sort by slot ASC, mint ASC for determinism
	sort.Slice(result, func(i, j int) bool {
		if result[i].Slot != result[j].Slot {
			return result[i].Slot < result[j].Slot
		}
		return result[i].Mint < result[j].Mint
	})

	return result, nil
}

// ListMints returns every recorded mint address.
func (s *MintEventStore) ListMints(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mints := make([]string, 0, len(s.data))
	for mint := range s.data {
		mints = append(mints, mint)
	}
	sort.Strings(mints)
	return mints, nil
}
