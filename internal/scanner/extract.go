package scanner

import (
	"github.com/mr-tron/base58"

	"solana-mint-watch/internal/solana"
)

// TokenProgramID is the SPL Token program.
const TokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

// InitializeMint instruction discriminators (first byte of instruction data).
const (
	initializeMintDiscriminator  = 0
	initializeMint2Discriminator = 20
)

// extractMints returns the mint addresses initialized in a block, in
// transaction order. Failed transactions and malformed candidates are
// skipped silently; a bad transaction never aborts the block.
func extractMints(block *solana.Block) []string {
	var mints []string
	for i := range block.Transactions {
		mints = append(mints, extractTxMints(&block.Transactions[i])...)
	}
	return mints
}

// extractTxMints returns the mints initialized by a single transaction.
func extractTxMints(tx *solana.Transaction) []string {
	// Failed transactions have no on-chain effect
	if tx.Meta != nil && tx.Meta.Err != nil {
		return nil
	}
	if tx.Message == nil {
		return nil
	}

	var mints []string
	for _, ins := range tx.Message.Instructions {
		mint, ok := initializedMint(&ins, tx.Message.AccountKeys)
		if ok {
			mints = append(mints, mint)
		}
	}
	return mints
}

// initializedMint reports the mint account if the instruction is an SPL
// InitializeMint or InitializeMint2. The mint is the instruction's first
// account reference.
func initializedMint(ins *solana.Instruction, accountKeys []string) (string, bool) {
	if ins.ProgramIDIndex < 0 || ins.ProgramIDIndex >= len(accountKeys) {
		return "", false
	}
	if accountKeys[ins.ProgramIDIndex] != TokenProgramID {
		return "", false
	}

	data, err := base58.Decode(ins.Data)
	if err != nil || len(data) == 0 {
		return "", false
	}
	if data[0] != initializeMintDiscriminator && data[0] != initializeMint2Discriminator {
		return "", false
	}

	if len(ins.Accounts) == 0 {
		return "", false
	}
	mintIndex := ins.Accounts[0]
	if mintIndex < 0 || mintIndex >= len(accountKeys) {
		return "", false
	}

	mint := accountKeys[mintIndex]
	if !isValidMintAddress(mint) {
		return "", false
	}
	return mint, true
}

// isValidMintAddress checks that the address decodes to a 32-byte pubkey.
func isValidMintAddress(addr string) bool {
	decoded, err := base58.Decode(addr)
	return err == nil && len(decoded) == 32
}
