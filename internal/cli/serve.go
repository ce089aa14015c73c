package cli

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mrz1836/phantom-sandbox/internal/web"
	sandboxerr "github.com/mrz1836/phantom-sandbox/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	serveListen  string
	serveRefresh int
	serveMessage string
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the sandbox page",
	Long: `Bind a page to the wallet provider and serve it over HTTP. The page shows
the connected account, one button per wallet action and the session log.
When no provider is found the page says so and offers no actions.

The server runs until interrupted. Running actions are awaited and the
wallet is disconnected and locked on the way out.`,
	Example: `  sandbox serve
  sandbox serve --listen 127.0.0.1:8080 --refresh 2
  sandbox serve --wallet main --approval prompt`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	serveCmd.GroupID = "sandbox"
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveListen, "listen", "", "address to listen on (default from config)")
	serveCmd.Flags().IntVar(&serveRefresh, "refresh", -1, "page refresh interval in seconds, 0 disables (default from config)")
	serveCmd.Flags().StringVar(&serveMessage, "message", "", "message signed by the Sign Message button")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	w := cmd.OutOrStdout()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := serveListen
	if addr == "" {
		addr = cc.Cfg.GetListen()
	}
	refresh := serveRefresh
	if refresh < 0 {
		refresh = cc.Cfg.Server.RefreshSeconds
	}

	rt, err := newRuntime(ctx, cc, runtimeOptions{
		Approver: approverOverride,
		Endpoint: endpointOverride,
		Opener:   installOpener(cmd.ErrOrStderr()),
	})
	if err != nil {
		return err
	}
	defer rt.close(context.WithoutCancel(ctx))

	opts := web.Options{
		Addr:           addr,
		RefreshSeconds: refresh,
		Message:        serveMessage,
		Metrics:        cc.Metrics,
		Logger:         cc.Log,
	}
	if rt.binder != nil {
		opts.Connector = rt.binder
		opts.Actions = rt.dispatcher
	}
	if rt.extension != nil {
		opts.Wallet = rt.extension
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return sandboxerr.Wrap(err, "listening on %s", addr)
	}

	out(w, "Serving %s at http://%s\n", web.Title, ln.Addr())
	if rt.binder == nil {
		outln(w, "No wallet provider found; the page has no actions.")
	}
	outln(w, "Press Ctrl+C to stop.")

	return web.NewServer(ctx, rt.state, rt.log, opts).Serve(ctx, ln)
}
