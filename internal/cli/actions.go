package cli

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/phantom-sandbox/internal/chain"
	"github.com/mrz1836/phantom-sandbox/internal/dispatch"
	"github.com/mrz1836/phantom-sandbox/internal/provider"
	"github.com/mrz1836/phantom-sandbox/internal/wallet"
)

// actionTimeout bounds one action, including time spent at an approval prompt.
const actionTimeout = 5 * time.Minute

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// signAllOnlyFirst signs only the first of the two built transactions.
	signAllOnlyFirst bool

	// endpointOverride replaces the RPC client. Used by tests.
	endpointOverride chain.Endpoint
	// approverOverride replaces the configured approver. Used by tests.
	approverOverride wallet.Approver
)

// actionReport is the JSON result of an action command.
type actionReport struct {
	Action  string   `json:"action"`
	Account string   `json:"account,omitempty"`
	Error   string   `json:"error,omitempty"`
	Logs    []string `json:"logs"`
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect to the wallet provider",
	Long: `Ask the wallet provider for access to its active account. A trusted
origin is reconnected silently; otherwise the wallet asks for approval.`,
	Example: `  sandbox connect
  sandbox connect --wallet main --approval auto`,
	Args: cobra.NoArgs,
	RunE: runConnect,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Sign and send a self-transfer",
	Long: `Build a transfer of 100 lamports from the connected account to itself,
have the wallet sign it, submit it to the RPC endpoint and wait for
confirmation.`,
	Example: `  sandbox send
  sandbox send --rpc devnet`,
	Args: cobra.NoArgs,
	RunE: runSend,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var signAllCmd = &cobra.Command{
	Use:   "sign-all",
	Short: "Sign several transactions at once",
	Long: `Build two self-transfers and ask the wallet to sign them in a single
request. With --only-first the batch contains only the first transaction.
Nothing is submitted.`,
	Example: `  sandbox sign-all
  sandbox sign-all --only-first`,
	Args: cobra.NoArgs,
	RunE: runSignAll,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var signMessageCmd = &cobra.Command{
	Use:   "sign-message [text]",
	Short: "Sign an arbitrary message",
	Long: `Ask the wallet to sign the UTF-8 bytes of a message. Without an argument
a fixed authentication message is signed.`,
	Example: `  sandbox sign-message
  sandbox sign-message "hello" -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSignMessage,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	for _, cmd := range []*cobra.Command{connectCmd, sendCmd, signAllCmd, signMessageCmd} {
		cmd.GroupID = "sandbox"
		rootCmd.AddCommand(cmd)
	}

	signAllCmd.Flags().BoolVar(&signAllOnlyFirst, "only-first", false, "sign only the first transaction")
}

func runConnect(cmd *cobra.Command, _ []string) error {
	return runAction(cmd, "connect", nil)
}

func runSend(cmd *cobra.Command, _ []string) error {
	return runAction(cmd, dispatch.ActionSendTransaction, func(ctx context.Context, d *dispatch.Dispatcher) error {
		return d.Send(ctx)
	})
}

func runSignAll(cmd *cobra.Command, _ []string) error {
	return runAction(cmd, dispatch.ActionSignMultiple, func(ctx context.Context, d *dispatch.Dispatcher) error {
		return d.SignBatch(ctx, signAllOnlyFirst)
	})
}

func runSignMessage(cmd *cobra.Command, args []string) error {
	text := dispatch.DefaultMessage
	if len(args) == 1 {
		text = args[0]
	}
	return runAction(cmd, dispatch.ActionSignMessage, func(ctx context.Context, d *dispatch.Dispatcher) error {
		return d.SignMessage(ctx, text)
	})
}

// runAction binds a page, connects and runs fn against its dispatcher. In
// text mode the session log is streamed as it grows; in JSON mode a report
// is written once the action is done.
func runAction(cmd *cobra.Command, name string, fn func(context.Context, *dispatch.Dispatcher) error) error {
	cc := GetCmdContext(cmd)
	w := cmd.OutOrStdout()

	ctx, cancel := contextWithTimeout(cmd, actionTimeout)
	defer cancel()

	var sink io.Writer
	if !cc.Fmt.IsJSON() {
		sink = w
	}

	rt, err := newRuntime(ctx, cc, runtimeOptions{
		Approver: approverOverride,
		Endpoint: endpointOverride,
		Opener:   installOpener(cmd.ErrOrStderr()),
		LogSink:  sink,
	})
	if err != nil {
		return err
	}

	err = rt.ensureConnected(ctx)
	if err == nil && fn != nil {
		err = fn(ctx, rt.dispatcher)
	}

	report := actionReport{
		Action:  name,
		Account: rt.account(),
		Logs:    rt.log.Entries(),
	}
	// The log sink is quiet once the page is closed
	rt.close(context.WithoutCancel(ctx))

	if cc.Fmt.IsJSON() {
		if err != nil {
			report.Error = err.Error()
		}
		if werr := writeJSON(w, report); werr != nil {
			return werr
		}
		return err
	}

	if err == nil && name == "connect" {
		out(w, "Connected as %s\n", report.Account)
	}
	return err
}

// installOpener reports the install page instead of opening a browser tab.
func installOpener(w io.Writer) provider.Opener {
	return provider.OpenerFunc(func(url string) error {
		out(w, "No wallet provider found. Install one from %s\n", url)
		return nil
	})
}
