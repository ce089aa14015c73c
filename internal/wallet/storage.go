package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrz1836/phantom-sandbox/internal/vault"
)

const (
	// walletFileExtension is the extension for wallet files.
	walletFileExtension = ".wallet"

	// walletFilePermissions is the permission mode for wallet files.
	walletFilePermissions = 0o600
)

// Storage defines wallet persistence.
type Storage interface {
	// Save encrypts secret with password and writes the wallet.
	Save(wallet *Wallet, secret []byte, password string) error

	// Load reads a wallet and decrypts its secret into a locked buffer.
	// The caller must Destroy the returned buffer.
	Load(name, password string) (*Wallet, *vault.SecureBytes, error)

	// LoadMetadata reads a wallet without decrypting its secret.
	LoadMetadata(name string) (*Wallet, error)

	// Exists checks if a wallet exists.
	Exists(name string) (bool, error)

	// List returns all wallet names.
	List() ([]string, error)

	// Delete removes a wallet.
	Delete(name string) error
}

// walletFile is the on-disk layout.
type walletFile struct {
	// Wallet contains the wallet metadata.
	Wallet *Wallet `json:"wallet"`

	// EncryptedSecret is the age-encrypted seed or secret key.
	EncryptedSecret []byte `json:"encrypted_secret"`
}

// FileStorage implements Storage using the filesystem.
type FileStorage struct {
	basePath string
}

// NewFileStorage creates a new file-based storage.
func NewFileStorage(basePath string) *FileStorage {
	return &FileStorage{basePath: basePath}
}

// Save encrypts and writes a wallet to storage.
func (s *FileStorage) Save(wallet *Wallet, secret []byte, password string) error {
	if err := ValidateWalletName(wallet.Name); err != nil {
		return err
	}

	exists, err := s.Exists(wallet.Name)
	if err != nil {
		return fmt.Errorf("checking wallet existence: %w", err)
	}
	if exists {
		return ErrWalletExists
	}

	sealed, err := vault.Seal(secret, password)
	if err != nil {
		return fmt.Errorf("encrypting wallet secret: %w", err)
	}

	data, err := json.MarshalIndent(walletFile{Wallet: wallet, EncryptedSecret: sealed}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling wallet: %w", err)
	}

	if err := vault.WriteFile(s.walletPath(wallet.Name), data, walletFilePermissions); err != nil {
		return fmt.Errorf("writing wallet file: %w", err)
	}
	return nil
}

// Load reads and decrypts a wallet from storage.
func (s *FileStorage) Load(name, password string) (*Wallet, *vault.SecureBytes, error) {
	wf, err := s.read(name)
	if err != nil {
		return nil, nil, err
	}

	secret, err := vault.Open(wf.EncryptedSecret, password)
	if err != nil {
		return nil, nil, err
	}
	return wf.Wallet, secret, nil
}

// LoadMetadata reads wallet metadata without decrypting the secret.
func (s *FileStorage) LoadMetadata(name string) (*Wallet, error) {
	wf, err := s.read(name)
	if err != nil {
		return nil, err
	}
	return wf.Wallet, nil
}

func (s *FileStorage) read(name string) (*walletFile, error) {
	if err := ValidateWalletName(name); err != nil {
		return nil, err
	}

	//nolint:gosec // G304: Path validated by ValidateWalletName + walletPath
	data, err := os.ReadFile(s.walletPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading wallet file: %w", err)
	}

	var wf walletFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parsing wallet file: %w", err)
	}
	if wf.Wallet == nil {
		return nil, errors.New("parsing wallet file: missing metadata")
	}
	return &wf, nil
}

// Exists checks if a wallet exists.
func (s *FileStorage) Exists(name string) (bool, error) {
	if err := ValidateWalletName(name); err != nil {
		return false, err
	}

	_, err := os.Stat(s.walletPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns all wallet names. A missing directory has no wallets.
func (s *FileStorage) List() ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading wallet directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if name, ok := strings.CutSuffix(entry.Name(), walletFileExtension); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// Delete removes a wallet file.
func (s *FileStorage) Delete(name string) error {
	if err := ValidateWalletName(name); err != nil {
		return err
	}

	err := os.Remove(s.walletPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return ErrWalletNotFound
	}
	if err != nil {
		return fmt.Errorf("removing wallet file: %w", err)
	}
	return nil
}

// walletPath returns the full path for a validated wallet name.
func (s *FileStorage) walletPath(name string) string {
	return filepath.Join(s.basePath, name+walletFileExtension)
}
