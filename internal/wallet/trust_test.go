package wallet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrustList_InMemory(t *testing.T) {
	t.Parallel()
	tl := NewTrustList()
	pk := solana.PublicKey{1}

	assert.False(t, tl.IsTrusted("http://localhost:3000", pk))
	require.NoError(t, tl.Trust("http://localhost:3000", pk))
	require.NoError(t, tl.Trust("http://localhost:3000", pk))
	assert.True(t, tl.IsTrusted("http://localhost:3000", pk))
	assert.False(t, tl.IsTrusted("http://evil.example", pk))
	assert.False(t, tl.IsTrusted("http://localhost:3000", solana.PublicKey{2}))

	require.NoError(t, tl.Revoke("http://localhost:3000"))
	require.NoError(t, tl.Revoke("http://localhost:3000"))
	assert.False(t, tl.IsTrusted("http://localhost:3000", pk))
}

func TestTrustList_Persisted(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "trusted.yaml")
	pk := solana.PublicKey{7}

	tl, err := LoadTrustList(path)
	require.NoError(t, err)
	assert.Empty(t, tl.Origins())

	require.NoError(t, tl.Trust("http://b.example", pk))
	require.NoError(t, tl.Trust("http://a.example", pk))

	reloaded, err := LoadTrustList(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, reloaded.Origins())
	assert.True(t, reloaded.IsTrusted("http://a.example", pk))

	data, err := os.ReadFile(path) //nolint:gosec // test path
	require.NoError(t, err)
	assert.Contains(t, string(data), pk.String())
}

func TestLoadTrustList_Invalid(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "trusted.yaml")
	require.NoError(t, os.WriteFile(path, []byte("origins: [unclosed"), 0o600))

	_, err := LoadTrustList(path)
	require.Error(t, err)
}
