package wallet

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/phantom-sandbox/internal/vault"
)

// trustFile is the YAML layout of the trust list.
type trustFile struct {
	Origins map[string][]string `yaml:"origins"`
}

// TrustList records which accounts each origin was allowed to connect to.
// Trusted origins can connect silently.
type TrustList struct {
	mu      sync.RWMutex
	path    string
	origins map[string][]string
}

// NewTrustList returns an in-memory trust list.
func NewTrustList() *TrustList {
	return &TrustList{origins: make(map[string][]string)}
}

// LoadTrustList reads the trust list at path. A missing file yields an
// empty list that is written on the first change.
func LoadTrustList(path string) (*TrustList, error) {
	t := NewTrustList()
	t.path = path

	//nolint:gosec // G304: path comes from the sandbox home directory
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading trust list: %w", err)
	}

	var tf trustFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing trust list: %w", err)
	}
	for origin, keys := range tf.Origins {
		t.origins[origin] = keys
	}
	return t, nil
}

// IsTrusted reports whether origin was approved for pk.
func (t *TrustList) IsTrusted(origin string, pk solana.PublicKey) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Contains(t.origins[origin], pk.String())
}

// Trust approves origin for pk and persists the list.
func (t *TrustList) Trust(origin string, pk solana.PublicKey) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := pk.String()
	if slices.Contains(t.origins[origin], key) {
		return nil
	}
	t.origins[origin] = append(t.origins[origin], key)
	return t.saveLocked()
}

// Revoke forgets every approval for origin.
func (t *TrustList) Revoke(origin string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.origins[origin]; !ok {
		return nil
	}
	delete(t.origins, origin)
	return t.saveLocked()
}

// Origins returns the trusted origins in sorted order.
func (t *TrustList) Origins() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]string, 0, len(t.origins))
	for origin := range t.origins {
		out = append(out, origin)
	}
	sort.Strings(out)
	return out
}

func (t *TrustList) saveLocked() error {
	if t.path == "" {
		return nil
	}

	data, err := yaml.Marshal(trustFile{Origins: t.origins})
	if err != nil {
		return fmt.Errorf("marshaling trust list: %w", err)
	}
	if err := vault.WriteFile(t.path, data, 0o600); err != nil {
		return fmt.Errorf("writing trust list: %w", err)
	}
	return nil
}
