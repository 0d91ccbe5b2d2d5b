// Package domain holds the core data types shared across packages.
package domain

// MintEvent records the first sighting of a token mint.
// Immutable once constructed; consumed by notification sinks.
type MintEvent struct {
	Mint       string // base58 mint address
	Slot       int64  // slot of the containing block
	BlockTime  *int64 // ledger-reported block time, Unix seconds (nullable)
	DetectedAt int64  // wall-clock detection time, Unix milliseconds
}
