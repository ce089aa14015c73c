package wallet

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/blocto/solana-go-sdk/pkg/hdwallet"
	"github.com/gagliardetto/solana-go"

	"github.com/mrz1836/phantom-sandbox/internal/chain"
	"github.com/mrz1836/phantom-sandbox/internal/vault"
)

// HardenedOffset is added to an index to mark it hardened.
const HardenedOffset uint32 = 0x80000000

// MaxAccounts bounds account derivation.
const MaxAccounts = 1000

var (
	// ErrInvalidPath indicates a derivation path could not be parsed.
	ErrInvalidPath = errors.New("invalid derivation path")

	// ErrNonHardened indicates a path segment is not hardened. ed25519 only
	// supports hardened derivation.
	ErrNonHardened = errors.New("ed25519 derivation requires hardened indexes")

	// ErrInvalidSeed indicates the seed length is outside 16..64 bytes.
	ErrInvalidSeed = errors.New("seed must be between 16 and 64 bytes")
)

// AccountPath returns the derivation path Phantom uses for account index.
func AccountPath(index uint32) string {
	return fmt.Sprintf("m/44'/%d'/%d'/0'", chain.CoinType, index)
}

// ParsePath parses a path such as m/44'/501'/0'/0' into hardened indexes.
func ParsePath(path string) ([]uint32, error) {
	parts := strings.Split(strings.TrimSpace(path), "/")
	if len(parts) == 0 || parts[0] != "m" {
		return nil, fmt.Errorf("%w: %q must start with m", ErrInvalidPath, path)
	}

	indexes := make([]uint32, 0, len(parts)-1)
	for _, part := range parts[1:] {
		hardened := strings.HasSuffix(part, "'") || strings.HasSuffix(part, "h")
		if !hardened {
			return nil, fmt.Errorf("%w: segment %q", ErrNonHardened, part)
		}
		n, err := strconv.ParseUint(part[:len(part)-1], 10, 31)
		if err != nil {
			return nil, fmt.Errorf("%w: segment %q", ErrInvalidPath, part)
		}
		indexes = append(indexes, uint32(n)+HardenedOffset)
	}
	return indexes, nil
}

// FormatPath renders hardened indexes in the m/44'/501'/0'/0' form.
func FormatPath(path []uint32) string {
	var b strings.Builder
	b.WriteString("m")
	for _, index := range path {
		fmt.Fprintf(&b, "/%d'", index-HardenedOffset)
	}
	return b.String()
}

// DeriveKey runs SLIP-0010 ed25519 derivation over seed and returns the
// 32-byte private key seed and chain code of the final node.
func DeriveKey(seed []byte, path []uint32) (key, chainCode []byte, err error) {
	if len(seed) < 16 || len(seed) > 64 {
		return nil, nil, ErrInvalidSeed
	}
	if len(path) == 0 {
		return nil, nil, fmt.Errorf("%w: no child indexes", ErrInvalidPath)
	}
	for _, index := range path {
		if index < HardenedOffset {
			return nil, nil, ErrNonHardened
		}
	}

	node, err := hdwallet.Derived(FormatPath(path), seed)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}
	return node.PrivateKey, node.ChainCode, nil
}

// DeriveAccount derives the keypair for account index from a BIP39 seed.
func DeriveAccount(seed []byte, index uint32) (solana.PrivateKey, error) {
	if index >= MaxAccounts {
		return nil, fmt.Errorf("%w: %d exceeds maximum %d", ErrInvalidAccountCount, index, MaxAccounts-1)
	}

	path, err := ParsePath(AccountPath(index))
	if err != nil {
		return nil, err
	}

	key, _, err := DeriveKey(seed, path)
	if err != nil {
		return nil, err
	}
	defer vault.Zero(key)

	return solana.PrivateKey(ed25519.NewKeyFromSeed(key)), nil
}
