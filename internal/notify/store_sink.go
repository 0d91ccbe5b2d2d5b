package notify

import (
	"context"
	"errors"
	"fmt"

	"solana-mint-watch/internal/domain"
	"solana-mint-watch/internal/storage"
)

// StoreSink persists detections to a mint event store. Duplicate inserts
// are tolerated: the registry already survives restarts via bootstrap, so
// a re-detection is not an error.
type StoreSink struct {
	store storage.MintEventStore
}

// NewStoreSink creates a sink writing to the given store.
func NewStoreSink(store storage.MintEventStore) *StoreSink {
	return &StoreSink{store: store}
}

// Compile-time interface check.
var _ Sink = (*StoreSink)(nil)

// Name identifies the sink.
func (s *StoreSink) Name() string {
	return "store"
}

// Notify inserts the event, ignoring duplicates.
func (s *StoreSink) Notify(ctx context.Context, event *domain.MintEvent) error {
	err := s.store.Insert(ctx, event)
	if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		return fmt.Errorf("store mint event: %w", err)
	}
	return nil
}

// ArchiveSink appends detections to an append-only archive.
type ArchiveSink struct {
	archive storage.MintEventArchive
}

// NewArchiveSink creates a sink writing to the given archive.
func NewArchiveSink(archive storage.MintEventArchive) *ArchiveSink {
	return &ArchiveSink{archive: archive}
}

// Compile-time interface check.
var _ Sink = (*ArchiveSink)(nil)

// Name identifies the sink.
func (s *ArchiveSink) Name() string {
	return "archive"
}

// Notify appends the event to the archive.
func (s *ArchiveSink) Notify(ctx context.Context, event *domain.MintEvent) error {
	if err := s.archive.Append(ctx, []*domain.MintEvent{event}); err != nil {
		return fmt.Errorf("archive mint event: %w", err)
	}
	return nil
}
