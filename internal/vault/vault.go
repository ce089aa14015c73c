// Package vault protects wallet secrets at rest and in memory.
//
// Secrets are sealed with an age scrypt recipient derived from the wallet
// password, held in mlocked buffers while decrypted, and written to disk
// atomically.
package vault

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"filippo.io/age"

	sandboxerr "github.com/mrz1836/phantom-sandbox/pkg/errors"
)

// ErrEmptyPassword indicates a seal or open was attempted without a password.
var ErrEmptyPassword = &sandboxerr.SandboxError{
	Code:     "EMPTY_PASSWORD",
	Message:  "password must not be empty",
	ExitCode: sandboxerr.ExitInput,
}

// ScryptWorkFactor is the log2 scrypt cost used when sealing.
//
//nolint:gochecknoglobals // Lowered by tests to keep them fast
var ScryptWorkFactor = 18

// Seal encrypts plaintext for the given password.
func Seal(plaintext []byte, password string) ([]byte, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}

	recipient, err := age.NewScryptRecipient(password)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt recipient: %w", err)
	}
	recipient.SetWorkFactor(ScryptWorkFactor)

	buf := &bytes.Buffer{}
	w, err := age.Encrypt(buf, recipient)
	if err != nil {
		return nil, fmt.Errorf("initializing encryption: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing encrypted data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}

	return buf.Bytes(), nil
}

// Open decrypts ciphertext sealed with Seal into a locked buffer.
// A wrong password or tampered ciphertext yields ErrDecryptionFailed.
func Open(ciphertext []byte, password string) (*SecureBytes, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}

	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		var noMatch *age.NoIdentityMatchError
		if errors.As(err, &noMatch) {
			return nil, sandboxerr.ErrDecryptionFailed
		}
		return nil, fmt.Errorf("%w: %w", sandboxerr.ErrDecryptionFailed, err)
	}

	plaintext, err := io.ReadAll(r)
	defer Zero(plaintext)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sandboxerr.ErrDecryptionFailed, err)
	}

	return SecureBytesFromSlice(plaintext), nil
}

// Zero overwrites b with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
