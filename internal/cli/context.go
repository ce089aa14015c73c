package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mrz1836/phantom-sandbox/internal/config"
	"github.com/mrz1836/phantom-sandbox/internal/metrics"
	"github.com/mrz1836/phantom-sandbox/internal/output"
	"github.com/mrz1836/phantom-sandbox/internal/wallet"
)

// cmdContextKey is the context key for the CommandContext.
type cmdContextKey struct{}

// CommandContext holds dependencies for CLI commands.
type CommandContext struct {
	Cfg     *config.Config
	Log     *config.Logger
	Fmt     *output.Formatter
	Storage wallet.Storage
	Metrics *metrics.Metrics
}

// NewCommandContext creates a context with the given dependencies.
func NewCommandContext(c *config.Config, log *config.Logger, f *output.Formatter) *CommandContext {
	return &CommandContext{
		Cfg:     c,
		Log:     log,
		Fmt:     f,
		Metrics: metrics.Global,
	}
}

// WithStorage sets the wallet storage.
func (c *CommandContext) WithStorage(s wallet.Storage) *CommandContext {
	c.Storage = s
	return c
}

// WithMetrics sets the metrics sink.
func (c *CommandContext) WithMetrics(m *metrics.Metrics) *CommandContext {
	c.Metrics = m
	return c
}

// SetCmdContext attaches cc to the command's context.
func SetCmdContext(cmd *cobra.Command, cc *CommandContext) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	cmd.SetContext(context.WithValue(base, cmdContextKey{}, cc))
}

// GetCmdContext returns the CommandContext attached to cmd, or nil.
func GetCmdContext(cmd *cobra.Command) *CommandContext {
	ctx := cmd.Context()
	if ctx == nil {
		return nil
	}
	cc, _ := ctx.Value(cmdContextKey{}).(*CommandContext)
	return cc
}
