package wallet

import (
	"fmt"
	"regexp"
	"time"

	"github.com/gagliardetto/solana-go"

	sandboxerr "github.com/mrz1836/phantom-sandbox/pkg/errors"
)

// Kind is the secret a wallet was created from.
type Kind string

const (
	// KindMnemonic wallets derive accounts from a BIP39 seed.
	KindMnemonic Kind = "mnemonic"
	// KindKeypair wallets hold a single imported keypair.
	KindKeypair Kind = "keypair"
)

var (
	// ErrWalletNotFound indicates the wallet does not exist.
	ErrWalletNotFound = sandboxerr.ErrWalletNotFound

	// ErrWalletExists indicates a wallet with that name already exists.
	ErrWalletExists = sandboxerr.ErrWalletExists

	// ErrInvalidWalletName indicates the wallet name is invalid.
	ErrInvalidWalletName = sandboxerr.WithSuggestion(sandboxerr.ErrInvalidInput, "wallet name must be 1-64 alphanumeric characters, underscores, or hyphens")

	// ErrInvalidAccountCount indicates the account count is invalid.
	ErrInvalidAccountCount = sandboxerr.WithSuggestion(sandboxerr.ErrInvalidInput, "invalid account count")

	// walletNameRegex validates wallet names: alphanumeric + underscore + hyphen, 1-64 chars.
	walletNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

	// invalidNameChars matches everything ValidateWalletName rejects.
	invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
)

// Account is a derived (or imported) account.
type Account struct {
	// Index is the account index in the derivation path.
	Index uint32 `json:"index"`

	// Path is the derivation path, empty for imported keypairs.
	Path string `json:"path,omitempty"`

	// PublicKey is the account address.
	PublicKey solana.PublicKey `json:"public_key"`
}

// Wallet is the non-secret metadata of a stored wallet.
type Wallet struct {
	// Name is the unique identifier for this wallet.
	Name string `json:"name"`

	// Kind is the secret the wallet was created from.
	Kind Kind `json:"kind"`

	// CreatedAt is the wallet creation timestamp.
	CreatedAt time.Time `json:"created_at"`

	// Accounts lists the derived accounts in index order.
	Accounts []Account `json:"accounts"`

	// Version is the wallet file format version.
	Version int `json:"version"`
}

// Summary is a lightweight wallet representation for listing.
type Summary struct {
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
	Accounts  int       `json:"accounts"`
	Primary   string    `json:"primary"`
}

// ValidateWalletName checks if a wallet name is valid.
func ValidateWalletName(name string) error {
	if !walletNameRegex.MatchString(name) {
		return ErrInvalidWalletName
	}
	return nil
}

// SuggestWalletName returns a valid name built from name, or "" if nothing
// usable is left.
func SuggestWalletName(name string) string {
	suggested := invalidNameChars.ReplaceAllString(name, "")
	if len(suggested) > 64 {
		suggested = suggested[:64]
	}
	return suggested
}

// NewWallet creates empty wallet metadata.
func NewWallet(name string, kind Kind) (*Wallet, error) {
	if err := ValidateWalletName(name); err != nil {
		return nil, err
	}
	if kind != KindMnemonic && kind != KindKeypair {
		return nil, fmt.Errorf("%w: unknown wallet kind %q", sandboxerr.ErrInvalidInput, kind)
	}

	return &Wallet{
		Name:      name,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
		Accounts:  []Account{},
		Version:   1,
	}, nil
}

// DeriveAccounts replaces the account list with the first count accounts of seed.
func (w *Wallet) DeriveAccounts(seed []byte, count int) error {
	if count < 1 || count > MaxAccounts {
		return fmt.Errorf("%w: %d not in 1..%d", ErrInvalidAccountCount, count, MaxAccounts)
	}

	accounts := make([]Account, 0, count)
	for i := 0; i < count; i++ {
		idx := uint32(i) //nolint:gosec // bounded by MaxAccounts
		key, err := DeriveAccount(seed, idx)
		if err != nil {
			return fmt.Errorf("deriving account %d: %w", idx, err)
		}
		accounts = append(accounts, Account{
			Index:     idx,
			Path:      AccountPath(idx),
			PublicKey: key.PublicKey(),
		})
	}
	w.Accounts = accounts
	return nil
}

// Account returns the account at index.
func (w *Wallet) Account(index int) (Account, error) {
	if index < 0 || index >= len(w.Accounts) {
		return Account{}, sandboxerr.WithDetails(sandboxerr.ErrAccountNotFound, map[string]string{
			"index":    fmt.Sprint(index),
			"accounts": fmt.Sprint(len(w.Accounts)),
		})
	}
	return w.Accounts[index], nil
}

// ToSummary creates a summary representation of the wallet.
func (w *Wallet) ToSummary() Summary {
	s := Summary{
		Name:      w.Name,
		Kind:      w.Kind,
		CreatedAt: w.CreatedAt,
		Accounts:  len(w.Accounts),
	}
	if len(w.Accounts) > 0 {
		s.Primary = w.Accounts[0].PublicKey.String()
	}
	return s
}
