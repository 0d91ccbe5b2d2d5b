package domain

// TokenMetadata holds on-chain metadata for a token mint.
type TokenMetadata struct {
	Mint      string
	Name      *string  // from Metaplex metadata (nullable)
	Symbol    *string  // from Metaplex metadata (nullable)
	Decimals  int      // from SPL mint account
	Supply    *float64 // decimals-adjusted supply (nullable)
	FetchedAt int64    // Unix milliseconds
}
