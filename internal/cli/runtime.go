package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/mrz1836/phantom-sandbox/internal/chain"
	"github.com/mrz1836/phantom-sandbox/internal/config"
	"github.com/mrz1836/phantom-sandbox/internal/dispatch"
	"github.com/mrz1836/phantom-sandbox/internal/metrics"
	"github.com/mrz1836/phantom-sandbox/internal/provider"
	"github.com/mrz1836/phantom-sandbox/internal/session"
	"github.com/mrz1836/phantom-sandbox/internal/wallet"
	sandboxerr "github.com/mrz1836/phantom-sandbox/pkg/errors"
)

// trustFileName holds the origins the local wallet trusts.
const trustFileName = "trust.yaml"

// trustPath returns the trust list location under the sandbox home.
func trustPath(c ConfigProvider) string {
	return filepath.Join(config.ExpandHome(c.GetHome()), trustFileName)
}

// runtimeOptions selects how a sandbox runtime is assembled.
type runtimeOptions struct {
	// Approver answers the wallet's prompts. Nil builds one from config.
	Approver wallet.Approver
	// Endpoint replaces the RPC client.
	Endpoint chain.Endpoint
	// Opener receives the install URL when no provider is found.
	Opener provider.Opener
	// LogSink receives every session log line as it is added.
	LogSink io.Writer
}

// sandboxRuntime is one bound page: a window with the local wallet injected
// when one could be unlocked, the binder and the action dispatcher.
type sandboxRuntime struct {
	window    *provider.Window
	extension *wallet.Extension
	endpoint  chain.Endpoint
	client    *chain.Client
	state     *session.State
	log       *session.Log
	metrics   *metrics.Metrics

	// binder and dispatcher are nil when no provider was found.
	binder     *provider.Binder
	dispatcher *dispatch.Dispatcher
	// providerErr is why binding failed.
	providerErr error
}

// newRuntime unlocks the configured wallet, injects it into a fresh window
// and binds the page to it. A missing wallet is not an error: the runtime
// then has no provider, like a browser without the extension.
func newRuntime(ctx context.Context, cc *CommandContext, opts runtimeOptions) (*sandboxRuntime, error) {
	c := ConfigProvider(cc.Cfg)
	rt := &sandboxRuntime{
		window:  provider.NewWindow(opts.Opener),
		state:   session.NewState(),
		log:     session.NewLog(),
		metrics: cc.Metrics,
	}

	if opts.LogSink != nil {
		// Lines arrive from the event loop and from actions concurrently
		var mu sync.Mutex
		sink := opts.LogSink
		rt.log.OnAdd(func(line string) {
			mu.Lock()
			defer mu.Unlock()
			_, _ = fmt.Fprintln(sink, session.LinePrefix+line)
		})
	}

	ext, err := unlockExtension(cc, opts.Approver)
	if err != nil {
		return nil, err
	}
	if ext != nil {
		rt.extension = ext
		rt.window.Inject(provider.GlobalName, ext)
	}

	rt.endpoint = opts.Endpoint
	if rt.endpoint == nil {
		network := c.GetNetwork()
		client, err := chain.NewClient(c.GetRPC(), &chain.ClientOptions{
			RateLimiter:    chain.NewRateLimiter(network.RateLimit, network.RateBurst),
			ConfirmTimeout: c.ConfirmTimeout(),
			PollInterval:   c.ConfirmPollInterval(),
			Metrics:        cc.Metrics,
		})
		if err != nil {
			rt.close(ctx)
			return nil, err
		}
		rt.client = client
		rt.endpoint = client
	}

	binder, err := provider.Bind(ctx, rt.window, rt.state, rt.log, &provider.Options{
		Logger:  cc.Log,
		Metrics: cc.Metrics,
	})
	switch {
	case errors.Is(err, sandboxerr.ErrProviderNotFound):
		cc.Log.Debug("no provider: %v", err)
		rt.providerErr = err
	case err != nil:
		rt.close(ctx)
		return nil, err
	default:
		rt.binder = binder
		rt.dispatcher = dispatch.New(binder.Provider(), rt.endpoint, rt.log, &dispatch.Options{
			Logger:  cc.Log,
			Metrics: cc.Metrics,
		})
	}

	return rt, nil
}

// unlockExtension returns the unlocked local wallet, or nil when the
// configured wallet does not exist.
func unlockExtension(cc *CommandContext, approver wallet.Approver) (*wallet.Extension, error) {
	settings := cc.Cfg.GetWallet()
	if settings.Name == "" {
		return nil, nil //nolint:nilnil // no wallet configured
	}

	exists, err := cc.Storage.Exists(settings.Name)
	if err != nil {
		return nil, err
	}
	if !exists {
		cc.Log.Debug("wallet %s not found; no provider injected", settings.Name)
		return nil, nil //nolint:nilnil // a missing wallet means no provider
	}

	if approver == nil {
		approver, err = wallet.NewApprover(settings.Approval, os.Stdin, os.Stderr)
		if err != nil {
			return nil, err
		}
	}

	trust, err := wallet.LoadTrustList(trustPath(cc.Cfg))
	if err != nil {
		return nil, err
	}

	password, err := walletPassword(settings.Name)
	if err != nil {
		return nil, err
	}

	ext := wallet.NewExtension(wallet.ExtensionOptions{
		Origin:   settings.Origin,
		Approver: approver,
		Trust:    trust,
		Metrics:  cc.Metrics,
	})
	if err := ext.Unlock(cc.Storage, settings.Name, password, settings.Account); err != nil {
		ext.Close()
		return nil, err
	}
	return ext, nil
}

// requireProvider returns the binding error when no provider was found.
func (rt *sandboxRuntime) requireProvider() error {
	if rt.binder != nil {
		return nil
	}
	if rt.providerErr != nil {
		return sandboxerr.WithSuggestion(rt.providerErr,
			"create or import a wallet with: sandbox wallet create <name>")
	}
	return sandboxerr.ErrProviderNotFound
}

// ensureConnected asks for an interactive connection unless the silent
// reconnect already succeeded.
func (rt *sandboxRuntime) ensureConnected(ctx context.Context) error {
	if err := rt.requireProvider(); err != nil {
		return err
	}
	if rt.binder.Provider().PublicKey() != nil {
		return nil
	}
	return rt.binder.Connect(ctx)
}

// account returns the connected account as base58, or "".
func (rt *sandboxRuntime) account() string {
	if rt.binder == nil {
		return ""
	}
	if pk := rt.binder.Provider().PublicKey(); pk != nil {
		return pk.String()
	}
	return ""
}

// close tears the page down: disconnect, unsubscribe, lock the wallet and
// release the RPC client.
func (rt *sandboxRuntime) close(ctx context.Context) {
	if rt.binder != nil {
		rt.binder.Close(ctx)
	}
	if rt.extension != nil {
		rt.extension.Close()
	}
	if rt.client != nil {
		_ = rt.client.Close()
	}
}
