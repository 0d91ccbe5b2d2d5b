// Package metadata resolves on-chain token metadata for detected mints.
package metadata

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"solana-mint-watch/internal/domain"
	"solana-mint-watch/internal/solana"
)

// Metaplex Token Metadata program ID
const metaplexProgramID = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"

// Enricher fetches token metadata from Solana RPC, combining the SPL
// Token Mint account with the Metaplex Metadata account.
type Enricher struct {
	rpc solana.RPCClient
}

// NewEnricher creates a new RPC-backed metadata enricher.
func NewEnricher(rpc solana.RPCClient) *Enricher {
	return &Enricher{rpc: rpc}
}

// Fetch returns token metadata for a given mint address. Returns nil
// without error if the mint account does not exist.
func (e *Enricher) Fetch(ctx context.Context, mint string) (*domain.TokenMetadata, error) {
	meta := &domain.TokenMetadata{
		Mint:      mint,
		FetchedAt: time.Now().UnixMilli(),
	}

	mintInfo, err := e.rpc.GetAccountInfo(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("get mint account info: %w", err)
	}
	if mintInfo == nil {
		return nil, nil
	}

	// Decimals and supply come from the mint account; a parse failure
	// still leaves the Metaplex name/symbol worth fetching
	_ = parseMintData(mintInfo.Data, meta)

	if pda := deriveMetadataPDA(mint); pda != "" {
		metaInfo, err := e.rpc.GetAccountInfo(ctx, pda)
		if err == nil && metaInfo != nil {
			parseMetaplexData(metaInfo.Data, meta)
		}
	}

	return meta, nil
}

// parseMintData parses SPL Token Mint account data.
// SPL Token Mint layout (82 bytes):
// - mintAuthority: Option<Pubkey> (36 bytes: 4 + 32)
// - supply: u64 (8 bytes)
// - decimals: u8 (1 byte)
// - isInitialized: bool (1 byte)
// - freezeAuthority: Option<Pubkey> (36 bytes: 4 + 32)
func parseMintData(data string, meta *domain.TokenMetadata) error {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return fmt.Errorf("decode mint data: %w", err)
	}

	if len(decoded) < 82 {
		return fmt.Errorf("mint data too short: %d", len(decoded))
	}

	supply := binary.LittleEndian.Uint64(decoded[36:44])
	decimals := int(decoded[44])

	meta.Decimals = decimals

	supplyFloat := float64(supply) / math.Pow(10, float64(decimals))
	meta.Supply = &supplyFloat

	return nil
}

// deriveMetadataPDA derives the Metaplex metadata PDA for a given mint.
// Seeds: ["metadata", metaplex_program_id, mint]
func deriveMetadataPDA(mint string) string {
	mintBytes, err := base58.Decode(mint)
	if err != nil {
		return ""
	}
	programBytes, err := base58.Decode(metaplexProgramID)
	if err != nil {
		return ""
	}

	if len(mintBytes) != 32 || len(programBytes) != 32 {
		return ""
	}

	seeds := [][]byte{
		[]byte("metadata"),
		programBytes,
		mintBytes,
	}

	return derivePDA(seeds, programBytes)
}

// parseMetaplexData parses Metaplex Token Metadata account data.
// Metaplex Metadata layout:
// - key: u8 (1 byte, should be 4 for MetadataV1)
// - updateAuthority: Pubkey (32 bytes)
// - mint: Pubkey (32 bytes)
// - name: String (4 + length bytes, max 32 chars)
// - symbol: String (4 + length bytes, max 10 chars)
// - uri: String (4 + length bytes, max 200 chars)
func parseMetaplexData(data string, meta *domain.TokenMetadata) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return
	}

	if len(decoded) < 100 {
		return
	}

	// MetadataV1 key
	if decoded[0] != 4 {
		return
	}

	// Skip: key(1) + updateAuthority(32) + mint(32) = 65 bytes
	offset := 65

	// Borsh string: 4-byte length + data
	if offset+4 > len(decoded) {
		return
	}
	nameLen := binary.LittleEndian.Uint32(decoded[offset:])
	offset += 4

	if nameLen > 100 || offset+int(nameLen) > len(decoded) {
		return
	}
	name := strings.TrimRight(string(decoded[offset:offset+int(nameLen)]), "\x00")
	offset += int(nameLen)
	if name != "" {
		meta.Name = &name
	}

	if offset+4 > len(decoded) {
		return
	}
	symbolLen := binary.LittleEndian.Uint32(decoded[offset:])
	offset += 4

	if symbolLen > 20 || offset+int(symbolLen) > len(decoded) {
		return
	}
	symbol := strings.TrimRight(string(decoded[offset:offset+int(symbolLen)]), "\x00")
	if symbol != "" {
		meta.Symbol = &symbol
	}
}

// derivePDA derives a Program Derived Address: for each bump from 255
// down, hash seeds || bump || programID || "ProgramDerivedAddress" and
// take the first digest that is not a valid ed25519 curve point.
func derivePDA(seeds [][]byte, programID []byte) string {
	for bump := byte(255); bump > 0; bump-- {
		data := make([]byte, 0)
		for _, seed := range seeds {
			data = append(data, seed...)
		}
		data = append(data, bump)
		data = append(data, programID...)
		data = append(data, []byte("ProgramDerivedAddress")...)

		hash := sha256.Sum256(data)

		if !isOnCurve(hash[:]) {
			return base58.Encode(hash[:])
		}
	}

	return ""
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
