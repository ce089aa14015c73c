package cli

import (
	"time"

	"github.com/mrz1836/phantom-sandbox/internal/config"
	"github.com/mrz1836/phantom-sandbox/internal/output"
	"github.com/mrz1836/phantom-sandbox/internal/provider"
)

// Compile-time interface checks.
var (
	_ ConfigProvider            = (*config.Config)(nil)
	_ LogWriter                 = (*config.Logger)(nil)
	_ provider.DiagnosticLogger = (*config.Logger)(nil)
	_ FormatProvider            = (*output.Formatter)(nil)
)

// ConfigProvider provides read access to configuration values.
// This interface enables mocking configuration in tests.
type ConfigProvider interface {
	// GetHome returns the sandbox home directory path.
	GetHome() string

	// GetRPC returns the RPC endpoint URL or cluster name.
	GetRPC() string

	// GetNetwork returns rate limit and confirmation settings.
	GetNetwork() config.NetworkConfig

	// WalletDir returns the directory holding wallet files.
	WalletDir() string

	// GetListen returns the address the rendered page listens on.
	GetListen() string

	// GetWallet returns the wallet provider settings.
	GetWallet() config.WalletConfig

	// ConfirmTimeout bounds transaction confirmation polling.
	ConfirmTimeout() time.Duration

	// ConfirmPollInterval is the delay between confirmation polls.
	ConfirmPollInterval() time.Duration

	// GetLoggingLevel returns the configured logging level.
	GetLoggingLevel() string

	// GetOutputFormat returns the default output format.
	GetOutputFormat() string
}

// LogWriter provides logging capabilities.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
	Close() error
}

// FormatProvider provides output format information.
type FormatProvider interface {
	Format() output.Format
}
