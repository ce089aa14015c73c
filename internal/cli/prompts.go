package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/mrz1836/phantom-sandbox/internal/config"
	"github.com/mrz1836/phantom-sandbox/internal/vault"
	"github.com/mrz1836/phantom-sandbox/internal/wallet"
	sandboxerr "github.com/mrz1836/phantom-sandbox/pkg/errors"
)

// minPasswordLength is the shortest accepted wallet password.
const minPasswordLength = 8

// Prompt functions are variables so tests can replace them.
//
//nolint:gochecknoglobals // test seams
var (
	promptPasswordFn    = promptPassword
	promptNewPasswordFn = promptNewPassword
	promptPassphraseFn  = promptPassphrase
	promptSecretFn      = promptSecret
	stdinReader         io.Reader = os.Stdin
)

// promptPassword prompts for a password with hidden input.
// The caller is responsible for zeroing the returned bytes after use.
func promptPassword(prompt string) ([]byte, error) {
	out(os.Stderr, "%s", prompt)

	password, err := term.ReadPassword(int(os.Stdin.Fd())) //nolint:gosec // G115: Fd() fits in int
	outln(os.Stderr)

	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	return password, nil
}

// promptNewPassword prompts for a new password with confirmation.
// The caller is responsible for zeroing the returned bytes after use.
func promptNewPassword() ([]byte, error) {
	password, err := promptPasswordFn("Enter encryption password: ")
	if err != nil {
		return nil, err
	}

	if len(password) < minPasswordLength {
		vault.Zero(password)
		return nil, sandboxerr.WithSuggestion(
			sandboxerr.ErrInvalidInput,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength),
		)
	}

	confirm, err := promptPasswordFn("Confirm password: ")
	if err != nil {
		vault.Zero(password)
		return nil, err
	}
	defer vault.Zero(confirm)

	if string(password) != string(confirm) {
		vault.Zero(password)
		return nil, sandboxerr.WithSuggestion(sandboxerr.ErrInvalidInput, "passwords do not match")
	}

	return password, nil
}

// promptPassphrase prompts for an optional BIP39 passphrase.
func promptPassphrase() (string, error) {
	outln(os.Stderr, "\nBIP39 Passphrase (optional extra security layer):")
	outln(os.Stderr, "WARNING: If you lose this passphrase, you cannot recover your accounts!")

	passphrase, err := promptPasswordFn("Enter passphrase: ")
	if err != nil {
		return "", err
	}
	defer vault.Zero(passphrase)

	if len(passphrase) == 0 {
		return "", nil
	}

	confirm, err := promptPasswordFn("Confirm passphrase: ")
	if err != nil {
		return "", err
	}
	defer vault.Zero(confirm)

	if string(passphrase) != string(confirm) {
		return "", sandboxerr.WithSuggestion(sandboxerr.ErrInvalidInput, "passphrases do not match")
	}

	return string(passphrase), nil
}

// promptSecret reads a mnemonic or secret key on one line.
func promptSecret() (string, error) {
	outln(os.Stderr, "Enter your recovery phrase or secret key (base58 or JSON byte array):")

	line, err := bufio.NewReader(stdinReader).ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return "", sandboxerr.WithSuggestion(sandboxerr.ErrInvalidInput, "no input provided")
	}
	return line, nil
}

// walletPassword returns the unlock password from the environment or a prompt.
func walletPassword(name string) (string, error) {
	if pw := os.Getenv(config.EnvWalletPassword); pw != "" {
		return pw, nil
	}

	pw, err := promptPasswordFn(fmt.Sprintf("Password for wallet '%s': ", name))
	if err != nil {
		return "", err
	}
	defer vault.Zero(pw)
	return string(pw), nil
}

// newWalletPassword returns the encryption password for a new wallet from
// the environment or a confirmed prompt.
func newWalletPassword() (string, error) {
	if pw := os.Getenv(config.EnvWalletPassword); pw != "" {
		if len(pw) < minPasswordLength {
			return "", sandboxerr.WithSuggestion(
				sandboxerr.ErrInvalidInput,
				fmt.Sprintf("%s must be at least %d characters", config.EnvWalletPassword, minPasswordLength),
			)
		}
		return pw, nil
	}

	pw, err := promptNewPasswordFn()
	if err != nil {
		return "", err
	}
	defer vault.Zero(pw)
	return string(pw), nil
}

// checkMnemonic validates a phrase and suggests corrections for typos.
func checkMnemonic(mnemonic string) error {
	if err := wallet.ValidateMnemonic(mnemonic); err != nil {
		if typos := wallet.DetectTypos(mnemonic); len(typos) > 0 {
			return sandboxerr.WithSuggestion(err, wallet.FormatTypoSuggestions(typos))
		}
		return err
	}
	return nil
}
