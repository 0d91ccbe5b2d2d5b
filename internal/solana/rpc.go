package solana

import "context"

// RPCClient defines the Solana RPC surface the watcher consumes.
type RPCClient interface {
	// GetSlot retrieves the current tip slot.
	GetSlot(ctx context.Context) (int64, error)

	// GetBlocks retrieves the slots of blocks actually produced in
	// [low, high] inclusive. Skipped slots are simply absent.
	GetBlocks(ctx context.Context, low, high int64) ([]int64, error)

	// GetBlock retrieves a block body by slot number.
	GetBlock(ctx context.Context, slot int64) (*Block, error)

	// GetAccountInfo retrieves account info by public key.
	// Returns nil if the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetBlockTime retrieves the estimated production time of a block.
	GetBlockTime(ctx context.Context, slot int64) (*int64, error)
}

// Block represents a Solana block.
type Block struct {
	Slot         int64
	BlockTime    *int64 // Unix timestamp (seconds), nullable
	Transactions []Transaction
}

// Transaction represents a Solana transaction within a block.
type Transaction struct {
	Slot      int64
	Signature string
	Meta      *TransactionMeta
	Message   *TransactionMessage
}

// TransactionMeta contains transaction execution metadata.
type TransactionMeta struct {
	Err         interface{}
	LogMessages []string
}

// TransactionMessage contains the parsed transaction message.
type TransactionMessage struct {
	AccountKeys  []string
	Instructions []Instruction
}

// Instruction is a compiled instruction referencing accounts by index
// into the message's AccountKeys.
type Instruction struct {
	ProgramIDIndex int
	Accounts       []int
	Data           string // base58 encoded
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64
	Owner      string
	Data       string // base64 encoded
	Executable bool
	RentEpoch  uint64
}
