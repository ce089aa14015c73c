package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/phantom-sandbox/internal/vault"
	"github.com/mrz1836/phantom-sandbox/internal/wallet"
	sandboxerr "github.com/mrz1836/phantom-sandbox/pkg/errors"
)

func runWalletImport(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	name := args[0]

	if err := validateNewWallet(name, cc.Storage); err != nil {
		return err
	}

	input := importInput
	if input == "" {
		var err error
		if input, err = promptSecretFn(); err != nil {
			return err
		}
	}

	var (
		w   *wallet.Wallet
		err error
	)
	switch format := wallet.DetectInputFormat(input); format {
	case wallet.FormatMnemonic:
		w, err = importMnemonic(name, input, cc.Storage)
	case wallet.FormatBase58Key, wallet.FormatKeypairJSON:
		w, err = importKeypair(name, input, cc.Storage)
	case wallet.FormatUnknown:
		err = sandboxerr.WithSuggestion(
			sandboxerr.ErrInvalidInput,
			"expected a 12 or 24 word recovery phrase, a base58 secret key or a JSON byte array",
		)
	}
	if err != nil {
		return err
	}

	result := createdWallet{
		Name:     w.Name,
		Kind:     w.Kind,
		Accounts: w.Accounts,
		File:     walletFile(cc.Cfg.WalletDir(), name),
	}
	if cc.Fmt.IsJSON() {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	displayCreated(cmd.OutOrStdout(), result)
	return nil
}

// importMnemonic stores the seed of a recovery phrase.
func importMnemonic(name, input string, storage wallet.Storage) (*wallet.Wallet, error) {
	mnemonic := wallet.NormalizeMnemonicInput(input)
	if err := checkMnemonic(mnemonic); err != nil {
		return nil, err
	}

	var passphrase string
	if importPassphrase {
		var err error
		if passphrase, err = promptPassphraseFn(); err != nil {
			return nil, err
		}
	}

	seed, err := wallet.MnemonicToSeed(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	defer vault.Zero(seed)

	return saveMnemonicWallet(name, seed, importAccounts, storage)
}

// importKeypair stores a single secret key.
func importKeypair(name, input string, storage wallet.Storage) (*wallet.Wallet, error) {
	key, err := wallet.ParseKeypair(input)
	if err != nil {
		return nil, sandboxerr.WithSuggestion(
			sandboxerr.Wrap(sandboxerr.ErrInvalidInput, "%v", err),
			"a secret key is 64 bytes: the seed followed by the public key",
		)
	}
	defer vault.Zero(key)

	w, err := wallet.NewWallet(name, wallet.KindKeypair)
	if err != nil {
		return nil, err
	}
	w.Accounts = []wallet.Account{{Index: 0, PublicKey: key.PublicKey()}}

	password, err := newWalletPassword()
	if err != nil {
		return nil, err
	}
	if err := storage.Save(w, key, password); err != nil {
		return nil, err
	}
	return w, nil
}
