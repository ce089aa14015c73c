package provider

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/event"

	"github.com/mrz1836/phantom-sandbox/internal/metrics"
	"github.com/mrz1836/phantom-sandbox/internal/session"
)

// eventBuffer is the number of undelivered events held for the binder loop.
const eventBuffer = 16

// DiagnosticLogger receives diagnostics that are not shown in the session log.
type DiagnosticLogger interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}

// Options configures a Binder.
type Options struct {
	// Logger receives console diagnostics. Nil discards them.
	Logger DiagnosticLogger
	// Metrics counts applied events. Nil uses metrics.Global.
	Metrics *metrics.Metrics
}

// Binder owns the subscription to a provider's lifecycle events and applies
// them to session state. It is the only writer of that state.
type Binder struct {
	provider Provider
	state    *session.State
	log      *session.Log
	logger   DiagnosticLogger
	metrics  *metrics.Metrics

	ctx    context.Context //nolint:containedctx // lifetime of the event loop
	cancel context.CancelFunc
	events chan Event
	sub    event.Subscription
	wg     sync.WaitGroup

	closeOnce sync.Once
}

// Bind detects the provider in win, subscribes to its events and attempts a
// silent reconnect. It returns ErrProviderNotFound when no provider is bound.
// The event loop runs until Close or until ctx is canceled.
func Bind(ctx context.Context, win *Window, state *session.State, log *session.Log, opts *Options) (*Binder, error) {
	p, err := Detect(win)
	if err != nil {
		return nil, err
	}

	b := &Binder{
		provider: p,
		state:    state,
		log:      log,
		logger:   nopLogger{},
		metrics:  metrics.Global,
		events:   make(chan Event, eventBuffer),
	}
	if opts != nil {
		if opts.Logger != nil {
			b.logger = opts.Logger
		}
		if opts.Metrics != nil {
			b.metrics = opts.Metrics
		}
	}

	b.ctx, b.cancel = context.WithCancel(ctx)
	b.sub = p.Subscribe(b.events)

	b.wg.Add(1)
	go b.loop()

	// Best effort; an untrusted origin simply stays disconnected.
	if _, err := p.Connect(b.ctx, ConnectOptions{OnlyIfTrusted: true}); err != nil {
		b.logger.Debug("silent connect: %v", err)
	}

	return b, nil
}

// Provider returns the bound provider.
func (b *Binder) Provider() Provider {
	return b.provider
}

func (b *Binder) loop() {
	defer b.wg.Done()
	for {
		select {
		case ev := <-b.events:
			b.Handle(b.ctx, ev)
		case err := <-b.sub.Err():
			if err != nil {
				b.logger.Error("provider subscription: %v", err)
			}
			return
		case <-b.ctx.Done():
			b.sub.Unsubscribe()
			return
		}
	}
}

// Handle applies a single lifecycle event to the session.
func (b *Binder) Handle(ctx context.Context, ev Event) {
	b.metrics.RecordProviderEvent()

	switch ev.Kind {
	case EventConnect:
		if ev.PublicKey == nil {
			b.logger.Error("connect event without public key")
			return
		}
		b.state.SetConnected(*ev.PublicKey)
		b.log.Addf("[connect] %s", ev.PublicKey)

	case EventDisconnect:
		b.state.SetDisconnected()
		b.log.Add("[disconnect] 👋")

	case EventAccountChanged:
		if ev.PublicKey != nil {
			b.state.SetAccount(ev.PublicKey)
			b.log.Addf("[accountChanged] Switched account to %s", ev.PublicKey)
			return
		}

		b.state.SetAccount(nil)
		b.log.Add("[accountChanged] Switched unknown account")
		if _, err := b.provider.Connect(ctx, ConnectOptions{}); err != nil {
			b.log.Addf("[accountChanged] Failed to re-connect: %s", err)
			return
		}
		b.log.Add("[accountChanged] Reconnected successfully")

	default:
		b.logger.Debug("ignoring provider event %d", ev.Kind)
	}
}

// Connect asks the provider for an interactive connection. The session is
// updated by the resulting connect event, not by this call.
func (b *Binder) Connect(ctx context.Context) error {
	if _, err := b.provider.Connect(ctx, ConnectOptions{}); err != nil {
		b.log.Addf("[error] connect: %s", err)
		return err
	}
	return nil
}

// Disconnect asks the provider to disconnect.
func (b *Binder) Disconnect(ctx context.Context) error {
	if err := b.provider.Disconnect(ctx); err != nil {
		b.log.Addf("[error] disconnect: %s", err)
		return err
	}
	return nil
}

// Close requests disconnection, unsubscribes and waits for the event loop.
// A failed disconnect is only reported to the diagnostic logger.
func (b *Binder) Close(ctx context.Context) {
	b.closeOnce.Do(func() {
		if err := b.provider.Disconnect(ctx); err != nil {
			b.logger.Error("disconnect on close: %v", err)
		}
		b.sub.Unsubscribe()
		b.cancel()
		b.wg.Wait()
	})
}
