// Package cli implements the sandbox command-line interface.
//
// This package uses global variables to manage CLI state, which is the standard
// pattern for Cobra-based CLI applications. The globals are initialized in
// PersistentPreRunE and cleaned up in PersistentPostRun.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mrz1836/phantom-sandbox/internal/config"
	"github.com/mrz1836/phantom-sandbox/internal/metrics"
	"github.com/mrz1836/phantom-sandbox/internal/output"
	"github.com/mrz1836/phantom-sandbox/internal/wallet"
	sandboxerr "github.com/mrz1836/phantom-sandbox/pkg/errors"
)

var (
	// Global flags
	homeDir      string
	outputFormat string
	verbose      bool
	rpcURL       string
	walletName   string
	approval     string

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	logger    *config.Logger
	formatter *output.Formatter
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "sandbox",
	Short: "A sandbox for exercising a Solana wallet provider",
	Long: `Sandbox connects to a wallet provider, asks for account access and
exercises the wallet operations a dapp would use: sending a self-transfer,
signing several transactions at once, signing a single transaction and
signing an arbitrary message.

The provider is a local wallet that behaves like the browser extension. It
asks before connecting or signing, remembers trusted origins and emits
connect, disconnect and account change events.`,
	Example: `  sandbox wallet create main
  sandbox serve
  sandbox sign-message "hello"
  sandbox send --rpc devnet`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := initGlobals(cmd); err != nil {
			return err
		}
		cc := NewCommandContext(cfg, logger, formatter).
			WithStorage(wallet.NewFileStorage(cfg.WalletDir())).
			WithMetrics(metrics.Global)
		SetCmdContext(cmd, cc)
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

// Execute runs the root command.
func Execute() error {
	enrichHelp(rootCmd)
	err := rootCmd.Execute()
	if err != nil {
		format := output.FormatText
		if formatter != nil {
			format = formatter.Format()
		}
		_ = output.FormatError(os.Stderr, err, format)
		return err
	}
	return nil
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return sandboxerr.ExitCode(err)
}

// initGlobals loads configuration and builds the logger and formatter.
func initGlobals(cmd *cobra.Command) error {
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	// Defaults are used when no config file exists yet
	var err error
	cfg, err = config.Load(config.Path(config.ExpandHome(home)))
	if err != nil {
		cfg = config.Defaults()
	}
	cfg.Home = home

	config.ApplyEnvironment(cfg)

	if homeDir != "" {
		cfg.Home = homeDir
	}
	if rpcURL != "" {
		cfg.Network.RPC = rpcURL
	}
	if walletName != "" {
		cfg.Wallet.Name = walletName
	}
	if approval != "" {
		cfg.Wallet.Approval = approval
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if outputFormat != "" && outputFormat != string(output.FormatAuto) {
		cfg.Output.DefaultFormat = outputFormat
	}

	logger, err = config.NewLogger(config.ParseLogLevel(cfg.Logging.Level), cfg.Logging.File)
	if err != nil {
		logger = config.NullLogger()
	}

	w := cmd.OutOrStdout()
	formatter = output.NewFormatter(output.DetectFormat(w, output.ParseFormat(cfg.Output.DefaultFormat)), w)
	return nil
}

// cleanup releases resources.
func cleanup() {
	if logger != nil {
		_ = logger.Close()
	}
}

// Config returns the global configuration.
func Config() *config.Config {
	return cfg
}

// Logger returns the global logger.
func Logger() *config.Logger {
	return logger
}

// Formatter returns the global output formatter.
func Formatter() *output.Formatter {
	return formatter
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "sandbox", Title: "Sandbox Actions:"},
		&cobra.Group{ID: "wallet", Title: "Wallet Operations:"},
		&cobra.Group{ID: "config", Title: "Configuration:"},
	)
	rootCmd.SetHelpCommandGroupID("config")
	rootCmd.SetCompletionCommandGroupID("config")

	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "sandbox data directory (default: ~/.phantom-sandbox)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&rpcURL, "rpc", "", "RPC endpoint URL or cluster name (mainnet-beta, devnet, testnet, localnet)")
	rootCmd.PersistentFlags().StringVar(&walletName, "wallet", "", "wallet injected as the provider")
	rootCmd.PersistentFlags().StringVar(&approval, "approval", "", "how requests are approved: prompt, auto, reject")
}
