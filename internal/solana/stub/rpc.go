// Package stub provides a map-backed RPCClient for tests.
package stub

import (
	"context"
	"errors"
	"sort"
	"sync"

	"solana-mint-watch/internal/solana"
)

// ErrUnavailable is returned for slots registered as failing.
var ErrUnavailable = errors.New("block unavailable")

// RPCClient implements solana.RPCClient for testing.
type RPCClient struct {
	Tip      int64
	TipErr   error
	Blocks   map[int64]*solana.Block
	Accounts map[string]*solana.AccountInfo

	// FailSlots marks slots whose GetBlock call fails with ErrUnavailable.
	FailSlots map[int64]bool

	// FetchedSlots records every GetBlock call, in call order. Guarded by
	// mu since block fetches may run concurrently.
	FetchedSlots []int64

	mu sync.Mutex
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Blocks:    make(map[int64]*solana.Block),
		Accounts:  make(map[string]*solana.AccountInfo),
		FailSlots: make(map[int64]bool),
	}
}

// GetSlot returns the configured tip.
func (c *RPCClient) GetSlot(_ context.Context) (int64, error) {
	if c.TipErr != nil {
		return 0, c.TipErr
	}
	return c.Tip, nil
}

// GetBlocks returns the registered slots within [low, high], ascending.
func (c *RPCClient) GetBlocks(_ context.Context, low, high int64) ([]int64, error) {
	var slots []int64
	for slot := range c.Blocks {
		if slot >= low && slot <= high {
			slots = append(slots, slot)
		}
	}
	for slot := range c.FailSlots {
		if slot >= low && slot <= high {
			slots = append(slots, slot)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots, nil
}

// GetBlock retrieves a block by slot from the stub store.
func (c *RPCClient) GetBlock(_ context.Context, slot int64) (*solana.Block, error) {
	c.mu.Lock()
	c.FetchedSlots = append(c.FetchedSlots, slot)
	c.mu.Unlock()
	if c.FailSlots[slot] {
		return nil, ErrUnavailable
	}
	block, ok := c.Blocks[slot]
	if !ok {
		return nil, ErrUnavailable
	}
	return block, nil
}

// GetAccountInfo retrieves account info from the stub store.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	return c.Accounts[pubkey], nil
}

// GetBlockTime returns the block time of a registered block.
func (c *RPCClient) GetBlockTime(_ context.Context, slot int64) (*int64, error) {
	block, ok := c.Blocks[slot]
	if !ok {
		return nil, ErrUnavailable
	}
	return block.BlockTime, nil
}
