package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/phantom-sandbox/internal/config"
)

func TestLoadSave_RoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := config.Defaults()
	cfg.Network.RPC = "https://api.devnet.solana.com"
	cfg.Wallet.Approval = config.ApprovalAuto
	cfg.Output.Verbose = true

	require.NoError(t, config.Save(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Version, loaded.Version)
	assert.Equal(t, "https://api.devnet.solana.com", loaded.Network.RPC)
	assert.Equal(t, config.ApprovalAuto, loaded.Wallet.Approval)
	assert.True(t, loaded.Output.Verbose)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  listen: 0.0.0.0:8080\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Listen)
	assert.Equal(t, config.DefaultRPCURL, cfg.Network.RPC)
	assert.Equal(t, "main", cfg.Wallet.Name)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("network: [unclosed"), 0o600))
	_, err = config.Load(path)
	require.Error(t, err)
}

func TestDefaults(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "~/.phantom-sandbox", cfg.Home)
	assert.Equal(t, "https://api.mainnet-beta.solana.com", cfg.Network.RPC)
	assert.Equal(t, config.ApprovalPrompt, cfg.Wallet.Approval)
	assert.Equal(t, "127.0.0.1:3000", cfg.Server.Listen)
	assert.Equal(t, "auto", cfg.Output.DefaultFormat)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestConfirmDurations(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()
	assert.Equal(t, 60*time.Second, cfg.ConfirmTimeout())
	assert.Equal(t, 500*time.Millisecond, cfg.ConfirmPollInterval())

	cfg.Network.ConfirmTimeoutSeconds = 0
	cfg.Network.ConfirmPollMillis = -1
	assert.Equal(t, config.DefaultConfirmTimeout, cfg.ConfirmTimeout())
	assert.Equal(t, config.DefaultConfirmPollInterval, cfg.ConfirmPollInterval())
}

func TestWalletDir(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()
	cfg.Home = "/tmp/sandbox-home"
	assert.Equal(t, filepath.Join("/tmp/sandbox-home", "wallets"), cfg.WalletDir())
}

func TestPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, filepath.Join("/home/user/.phantom-sandbox", "config.yaml"), config.Path("/home/user/.phantom-sandbox"))
}
