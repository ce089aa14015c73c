package wallet

import (
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// InputFormat represents the detected format of import input.
type InputFormat int

const (
	// FormatUnknown indicates the input format could not be determined.
	FormatUnknown InputFormat = iota
	// FormatMnemonic indicates a BIP39 mnemonic phrase.
	FormatMnemonic
	// FormatBase58Key indicates a base58 64-byte secret key as exported by the wallet.
	FormatBase58Key
	// FormatKeypairJSON indicates a JSON byte array keypair file.
	FormatKeypairJSON
)

// String returns the string representation of the input format.
func (f InputFormat) String() string {
	switch f {
	case FormatMnemonic:
		return "mnemonic"
	case FormatBase58Key:
		return "base58"
	case FormatKeypairJSON:
		return "keypair-json"
	case FormatUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// ErrInvalidKeypair indicates the secret key is malformed or inconsistent.
var ErrInvalidKeypair = errors.New("invalid keypair")

// DetectInputFormat guesses the format of import input.
func DetectInputFormat(input string) InputFormat {
	input = strings.TrimSpace(input)
	switch {
	case input == "":
		return FormatUnknown
	case strings.HasPrefix(input, "["):
		return FormatKeypairJSON
	case isMnemonicFormat(input):
		return FormatMnemonic
	case isBase58Key(input):
		return FormatBase58Key
	default:
		return FormatUnknown
	}
}

func isMnemonicFormat(input string) bool {
	n := len(strings.Fields(NormalizeMnemonicInput(input)))
	return n == 12 || n == 24
}

func isBase58Key(input string) bool {
	b, err := base58.Decode(input)
	return err == nil && len(b) == ed25519.PrivateKeySize
}

// ParseKeypair decodes a base58 secret key or a JSON byte array and checks
// that its public half matches the private half.
func ParseKeypair(input string) (solana.PrivateKey, error) {
	input = strings.TrimSpace(input)

	var raw []byte
	switch DetectInputFormat(input) {
	case FormatKeypairJSON:
		var ints []int
		if err := json.Unmarshal([]byte(input), &ints); err != nil {
			return nil, ErrInvalidKeypair
		}
		raw = make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return nil, ErrInvalidKeypair
			}
			raw[i] = byte(v)
		}
	case FormatBase58Key:
		b, err := base58.Decode(input)
		if err != nil {
			return nil, ErrInvalidKeypair
		}
		raw = b
	case FormatUnknown, FormatMnemonic:
		return nil, ErrInvalidKeypair
	}

	if len(raw) != ed25519.PrivateKeySize {
		return nil, ErrInvalidKeypair
	}
	key := solana.PrivateKey(raw)
	derived := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
	if !derived.Public().(ed25519.PublicKey).Equal(ed25519.PublicKey(raw[ed25519.SeedSize:])) {
		return nil, ErrInvalidKeypair
	}
	return key, nil
}
