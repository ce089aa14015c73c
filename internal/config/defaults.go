package config

import "time"

// DefaultRPCURL is the public mainnet-beta endpoint the sandbox talks to.
const DefaultRPCURL = "https://api.mainnet-beta.solana.com"

// Approval modes for the local wallet provider.
const (
	ApprovalPrompt = "prompt"
	ApprovalAuto   = "auto"
	ApprovalReject = "reject"
)

// Confirmation polling defaults.
const (
	DefaultConfirmTimeout      = 60 * time.Second
	DefaultConfirmPollInterval = 500 * time.Millisecond
)

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.phantom-sandbox",
		Network: NetworkConfig{
			RPC:                   DefaultRPCURL,
			RateLimit:             4,
			RateBurst:             8,
			ConfirmTimeoutSeconds: 60,
			ConfirmPollMillis:     500,
		},
		Server: ServerConfig{
			Listen:         "127.0.0.1:3000",
			RefreshSeconds: 2,
		},
		Wallet: WalletConfig{
			Name:     "main",
			Account:  0,
			Approval: ApprovalPrompt,
			Origin:   "http://localhost:3000",
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "~/.phantom-sandbox/sandbox.log",
		},
	}
}
