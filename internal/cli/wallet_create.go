package cli

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/phantom-sandbox/internal/vault"
	"github.com/mrz1836/phantom-sandbox/internal/wallet"
	sandboxerr "github.com/mrz1836/phantom-sandbox/pkg/errors"
)

// createdWallet is the JSON result of wallet create and import.
type createdWallet struct {
	Name     string           `json:"name"`
	Kind     wallet.Kind      `json:"kind"`
	Accounts []wallet.Account `json:"accounts"`
	Mnemonic string           `json:"mnemonic,omitempty"`
	File     string           `json:"file"`
}

func runWalletCreate(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	name := args[0]

	if createWords != 12 && createWords != 24 {
		return sandboxerr.WithSuggestion(sandboxerr.ErrInvalidInput, "word count must be 12 or 24")
	}
	if err := validateNewWallet(name, cc.Storage); err != nil {
		return err
	}

	mnemonic, err := wallet.GenerateMnemonic(createWords)
	if err != nil {
		return err
	}

	var passphrase string
	if createPassphrase {
		if passphrase, err = promptPassphraseFn(); err != nil {
			return err
		}
	}

	seed, err := wallet.MnemonicToSeed(mnemonic, passphrase)
	if err != nil {
		return err
	}
	defer vault.Zero(seed)

	w, err := saveMnemonicWallet(name, seed, createAccounts, cc.Storage)
	if err != nil {
		return err
	}

	result := createdWallet{
		Name:     w.Name,
		Kind:     w.Kind,
		Accounts: w.Accounts,
		Mnemonic: mnemonic,
		File:     walletFile(cc.Cfg.WalletDir(), name),
	}
	if cc.Fmt.IsJSON() {
		return writeJSON(cmd.OutOrStdout(), result)
	}

	displayMnemonic(cmd.OutOrStdout(), mnemonic)
	displayCreated(cmd.OutOrStdout(), result)
	return nil
}

// saveMnemonicWallet derives count accounts from seed and stores the seed.
func saveMnemonicWallet(name string, seed []byte, count int, storage wallet.Storage) (*wallet.Wallet, error) {
	w, err := wallet.NewWallet(name, wallet.KindMnemonic)
	if err != nil {
		return nil, err
	}
	if err := w.DeriveAccounts(seed, count); err != nil {
		return nil, err
	}

	password, err := newWalletPassword()
	if err != nil {
		return nil, err
	}
	if err := storage.Save(w, seed, password); err != nil {
		return nil, err
	}
	return w, nil
}

// walletFile returns the on-disk path of a wallet for display.
func walletFile(dir, name string) string {
	return filepath.Join(dir, name+".wallet")
}

// displayMnemonic shows the recovery phrase as a numbered grid.
func displayMnemonic(w io.Writer, mnemonic string) {
	words := strings.Fields(mnemonic)

	outln(w, "Recovery phrase (write it down, it is shown only once):")
	outln(w)
	for i, word := range words {
		out(w, "  %2d. %-10s", i+1, word)
		if (i+1)%4 == 0 {
			outln(w)
		}
	}
	if len(words)%4 != 0 {
		outln(w)
	}
	outln(w)
}

// displayCreated shows the stored wallet's accounts.
func displayCreated(w io.Writer, result createdWallet) {
	outln(w, "Accounts:")
	for _, acct := range result.Accounts {
		out(w, "  [%d] %s\n", acct.Index, acct.PublicKey)
	}
	outln(w)
	out(w, "Wallet '%s' saved to %s\n", result.Name, result.File)
}
