package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/phantom-sandbox/internal/wallet"
	sandboxerr "github.com/mrz1836/phantom-sandbox/pkg/errors"
)

// out is a helper for CLI output that ignores write errors (standard pattern for CLI tools).
//
//nolint:errcheck // CLI output writes to stdout are intentionally unchecked
func out(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}

// outln is a helper for CLI output with newline.
//
//nolint:errcheck // CLI output writes to stdout are intentionally unchecked
func outln(w io.Writer, args ...any) {
	fmt.Fprintln(w, args...)
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// createWords is the number of words for mnemonic generation.
	createWords int
	// createPassphrase indicates whether to prompt for a BIP39 passphrase.
	createPassphrase bool
	// createAccounts is the number of accounts derived up front.
	createAccounts int
	// importInput is the recovery phrase or secret key to import.
	importInput string
	// importPassphrase indicates whether to prompt for a BIP39 passphrase.
	importPassphrase bool
	// importAccounts is the number of accounts derived from an imported phrase.
	importAccounts int
	// accountsQR renders the selected account as a QR code.
	accountsQR bool
)

// walletCmd is the parent command for wallet operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage the local wallet provider",
	Long: `Create, import and inspect the encrypted wallets the local provider
unlocks. Secrets are encrypted with a password and never leave the wallet
file unencrypted.`,
}

// walletCreateCmd creates a new wallet.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a wallet from a new recovery phrase",
	Long: `Create a wallet from a newly generated BIP39 recovery phrase.

The phrase is displayed once. Write it down and store it securely. You will
be prompted for a password to encrypt the wallet file unless
SANDBOX_WALLET_PASSWORD is set.`,
	Example: `  sandbox wallet create main
  sandbox wallet create main --words 24
  sandbox wallet create main --accounts 3 --passphrase`,
	Args: cobra.ExactArgs(1),
	RunE: runWalletCreate,
}

// walletImportCmd imports an existing phrase or secret key.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletImportCmd = &cobra.Command{
	Use:     "import <name>",
	Aliases: []string{"restore"},
	Short:   "Import a recovery phrase or secret key",
	Long: `Import a wallet from a BIP39 recovery phrase, a base58 secret key or a
JSON byte array keypair as written by the Solana CLI.

The input format is detected automatically. Without --input the secret is
read from standard input.`,
	Example: `  sandbox wallet import backup --input "abandon abandon ... about"
  sandbox wallet import hot --input "$(cat ~/.config/solana/id.json)"
  sandbox wallet import backup --accounts 5`,
	Args: cobra.ExactArgs(1),
	RunE: runWalletImport,
}

// walletListCmd lists all wallets.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all wallets",
	Long:    `List all wallets in the sandbox data directory with their primary account.`,
	Example: `  sandbox wallet list
  sandbox wallet list -o json`,
	RunE: runWalletList,
}

// walletAccountsCmd shows a wallet's accounts.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletAccountsCmd = &cobra.Command{
	Use:   "accounts <name>",
	Short: "Show a wallet's accounts",
	Long: `Show the accounts of a wallet with their derivation paths. Accounts are
public, so no password is needed.`,
	Example: `  sandbox wallet accounts main
  sandbox wallet accounts main --qr`,
	Args: cobra.ExactArgs(1),
	RunE: runWalletAccounts,
}

// walletTrustCmd lists trusted origins.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletTrustCmd = &cobra.Command{
	Use:   "trusted",
	Short: "List origins allowed to reconnect silently",
	Long: `List the origins that were approved to connect. A trusted origin is
reconnected without a prompt when the page loads.`,
	Example: `  sandbox wallet trusted`,
	RunE:    runWalletTrusted,
}

// walletRevokeCmd forgets a trusted origin.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletRevokeCmd = &cobra.Command{
	Use:   "revoke <origin>",
	Short: "Revoke an origin's connection approval",
	Long: `Revoke every approval given to an origin. Its next connection attempt
asks again.`,
	Example: `  sandbox wallet revoke http://localhost:3000`,
	Args:    cobra.ExactArgs(1),
	RunE:    runWalletRevoke,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	walletCmd.GroupID = "wallet"
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletCreateCmd)
	walletCmd.AddCommand(walletImportCmd)
	walletCmd.AddCommand(walletListCmd)
	walletCmd.AddCommand(walletAccountsCmd)
	walletCmd.AddCommand(walletTrustCmd)
	walletCmd.AddCommand(walletRevokeCmd)

	walletCreateCmd.Flags().IntVar(&createWords, "words", 12, "mnemonic word count (12 or 24)")
	walletCreateCmd.Flags().BoolVar(&createPassphrase, "passphrase", false, "use a BIP39 passphrase")
	walletCreateCmd.Flags().IntVar(&createAccounts, "accounts", 1, "number of accounts to derive")

	walletImportCmd.Flags().StringVar(&importInput, "input", "", "recovery phrase or secret key")
	walletImportCmd.Flags().BoolVar(&importPassphrase, "passphrase", false, "use a BIP39 passphrase (recovery phrase only)")
	walletImportCmd.Flags().IntVar(&importAccounts, "accounts", 1, "number of accounts to derive (recovery phrase only)")

	walletAccountsCmd.Flags().BoolVar(&accountsQR, "qr", false, "show the configured account as a QR code")
}

// validateNewWallet checks the name is usable and not taken.
func validateNewWallet(name string, storage wallet.Storage) error {
	if err := wallet.ValidateWalletName(name); err != nil {
		if suggested := wallet.SuggestWalletName(name); suggested != "" {
			return sandboxerr.WithSuggestion(err, fmt.Sprintf("try '%s'", suggested))
		}
		return sandboxerr.WithSuggestion(err, "wallet names use letters, digits, '_' and '-'")
	}

	exists, err := storage.Exists(name)
	if err != nil {
		return err
	}
	if exists {
		return sandboxerr.WithSuggestion(
			wallet.ErrWalletExists,
			fmt.Sprintf("wallet '%s' already exists. Choose a different name.", name),
		)
	}
	return nil
}

// requireWallet returns a wallet's metadata or a not-found error with a hint.
func requireWallet(name string, storage wallet.Storage) (*wallet.Wallet, error) {
	exists, err := storage.Exists(name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, sandboxerr.WithSuggestion(
			wallet.ErrWalletNotFound,
			fmt.Sprintf("wallet '%s' not found. Create one with: sandbox wallet create %s", name, name),
		)
	}
	return storage.LoadMetadata(name)
}
