package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected bool
	}{
		{"1", true},
		{"true", true},
		{"YES", true},
		{"on", true},
		{"  true  ", true},
		{"0", false},
		{"false", false},
		{"no", false},
		{"", false},
		{"random", false},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, parseBool(tc.input))
		})
	}
}

func TestSanitizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"clean", "https://api.devnet.solana.com", "https://api.devnet.solana.com"},
		{"whitespace", "  https://api.devnet.solana.com  ", "https://api.devnet.solana.com"},
		{"quoted", `"https://api.devnet.solana.com"`, "https://api.devnet.solana.com"},
		{"control chars", "https://api.devnet\n.solana.com\t", "https://api.devnet.solana.com"},
		{"path kept", "https://rpc.example.com/v1/abc123", "https://rpc.example.com/v1/abc123"},
		{"no scheme", "api.devnet.solana.com", ""},
		{"bad scheme", "ftp://api.devnet.solana.com", ""},
		{"empty", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, SanitizeURL(tc.input))
		})
	}
}

//nolint:paralleltest // t.Setenv is incompatible with t.Parallel
func TestApplyEnvironment(t *testing.T) {
	t.Setenv(EnvHome, "/tmp/custom-home")
	t.Setenv(EnvRPC, " https://api.devnet.solana.com ")
	t.Setenv(EnvListen, ":9000")
	t.Setenv(EnvOutputFormat, "JSON")
	t.Setenv(EnvVerbose, "yes")
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvApproval, "Auto")
	t.Setenv(EnvWalletName, "burner")
	t.Setenv(EnvNoColor, "")

	cfg := Defaults()
	ApplyEnvironment(cfg)

	assert.Equal(t, "/tmp/custom-home", cfg.Home)
	assert.Equal(t, "https://api.devnet.solana.com", cfg.Network.RPC)
	assert.Equal(t, ":9000", cfg.Server.Listen)
	assert.Equal(t, "json", cfg.Output.DefaultFormat)
	assert.True(t, cfg.Output.Verbose)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, ApprovalAuto, cfg.Wallet.Approval)
	assert.Equal(t, "burner", cfg.Wallet.Name)
	assert.Equal(t, "never", cfg.Output.Color)
}

//nolint:paralleltest // t.Setenv is incompatible with t.Parallel
func TestApplyEnvironment_InvalidRPCIgnored(t *testing.T) {
	t.Setenv(EnvRPC, "not a url")

	cfg := Defaults()
	ApplyEnvironment(cfg)
	assert.Equal(t, DefaultRPCURL, cfg.Network.RPC)
}

func TestApplyEnvironment_ClusterName(t *testing.T) {
	t.Setenv(EnvRPC, " Devnet ")

	cfg := Defaults()
	ApplyEnvironment(cfg)
	assert.Equal(t, "devnet", cfg.Network.RPC)
}

func TestSanitizeRPC(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://api.devnet.solana.com", "https://api.devnet.solana.com"},
		{"mainnet-beta", "mainnet-beta"},
		{"LOCALNET", "localnet"},
		{"not a url", ""},
		{"ftp://example.com", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeRPC(tt.in))
		})
	}
}
