// Package scanner performs the sliding-window block scan that detects
// newly created token mints.
package scanner

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"solana-mint-watch/internal/domain"
	"solana-mint-watch/internal/observability"
	"solana-mint-watch/internal/registry"
	"solana-mint-watch/internal/solana"
)

const (
	defaultLookback     = 100
	defaultFetchWorkers = 8
)

// Scanner scans a trailing window of blocks for mint initializations.
type Scanner struct {
	rpc          solana.RPCClient
	known        *registry.KnownMints
	lookback     int64
	fetchWorkers int
	logger       *log.Logger
}

// Options contains configuration for creating a Scanner.
type Options struct {
	RPC          solana.RPCClient
	Registry     *registry.KnownMints
	Lookback     int64
	FetchWorkers int
	Logger       *log.Logger
}

// New creates a new Scanner.
func New(opts Options) *Scanner {
	lookback := opts.Lookback
	if lookback <= 0 {
		lookback = defaultLookback
	}

	workers := opts.FetchWorkers
	if workers <= 0 {
		workers = defaultFetchWorkers
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Scanner{
		rpc:          opts.RPC,
		known:        opts.Registry,
		lookback:     lookback,
		fetchWorkers: workers,
		logger:       logger,
	}
}

// Scan runs one cycle: read the chain tip, fetch every block produced in
// the trailing lookback window, and return the mints initialized there
// that the registry has not seen before. Detected mints are added to the
// registry, so overlapping windows across cycles stay idempotent.
//
// A block that cannot be fetched is skipped for this cycle; the next
// cycle's overlapping window picks it up. Tip or block-list failures fail
// the whole cycle.
func (s *Scanner) Scan(ctx context.Context) ([]*domain.MintEvent, error) {
	tip, err := s.rpc.GetSlot(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain tip: %w", err)
	}

	low := tip - s.lookback
	if low < 0 {
		low = 0
	}

	slots, err := s.rpc.GetBlocks(ctx, low, tip)
	if err != nil {
		return nil, fmt.Errorf("get blocks in [%d, %d]: %w", low, tip, err)
	}

	observability.UpdateCurrentSlot(tip)

	blocks := s.fetchBlocks(ctx, slots)

	var events []*domain.MintEvent
	for _, slot := range slots {
		block, ok := blocks[slot]
		if !ok {
			continue
		}
		for _, mint := range extractMints(block) {
			if s.known.Contains(mint) {
				continue
			}
			s.known.Add(mint)
			events = append(events, &domain.MintEvent{
				Mint:       mint,
				Slot:       slot,
				BlockTime:  block.BlockTime,
				DetectedAt: time.Now().UnixMilli(),
			})
			observability.RecordMintDetected()
		}
	}

	observability.RecordBlocksScanned(len(blocks))
	observability.UpdateKnownMints(s.known.Len())

	return events, nil
}

// fetchBlocks retrieves block bodies concurrently, keyed by slot. Slots
// whose fetch fails are absent from the result.
func (s *Scanner) fetchBlocks(ctx context.Context, slots []int64) map[int64]*solana.Block {
	blocks := make(map[int64]*solana.Block, len(slots))

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, s.fetchWorkers)
	)

	for _, slot := range slots {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(slot int64) {
			defer wg.Done()
			defer func() { <-sem }()

			block, err := s.rpc.GetBlock(ctx, slot)
			if err != nil {
				if !solana.IsBlockUnavailable(err) {
					s.logger.Printf("Error fetching block %d, skipping: %v", slot, err)
					observability.RecordBlockFetchError()
				}
				return
			}

			mu.Lock()
			blocks[slot] = block
			mu.Unlock()
		}(slot)
	}

	wg.Wait()
	return blocks
}
