package provider_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/event"
	"github.com/gagliardetto/solana-go"

	"github.com/mrz1836/phantom-sandbox/internal/provider"
	sandboxerr "github.com/mrz1836/phantom-sandbox/pkg/errors"
)

// fakeProvider is an in-memory wallet that records every call.
type fakeProvider struct {
	mu sync.Mutex

	notPhantom    bool
	account       solana.PublicKey
	connected     bool
	trusted       bool
	connectErr    error
	disconnectErr error

	connectCalls    []provider.ConnectOptions
	disconnectCalls int

	feed event.Feed
}

func newFakeProvider(account solana.PublicKey) *fakeProvider {
	return &fakeProvider{account: account}
}

func (f *fakeProvider) IsPhantom() bool { return !f.notPhantom }

func (f *fakeProvider) PublicKey() *solana.PublicKey {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return nil
	}
	return f.account.ToPointer()
}

func (f *fakeProvider) Connect(_ context.Context, opts provider.ConnectOptions) (solana.PublicKey, error) {
	f.mu.Lock()
	f.connectCalls = append(f.connectCalls, opts)
	if f.connectErr != nil {
		err := f.connectErr
		f.mu.Unlock()
		return solana.PublicKey{}, err
	}
	if opts.OnlyIfTrusted && !f.trusted {
		f.mu.Unlock()
		return solana.PublicKey{}, sandboxerr.ErrUserRejected
	}
	f.connected = true
	pk := f.account
	f.mu.Unlock()

	f.feed.Send(provider.Connected(pk))
	return pk, nil
}

func (f *fakeProvider) Disconnect(context.Context) error {
	f.mu.Lock()
	f.disconnectCalls++
	if f.disconnectErr != nil {
		err := f.disconnectErr
		f.mu.Unlock()
		return err
	}
	f.connected = false
	f.mu.Unlock()

	f.feed.Send(provider.Disconnected())
	return nil
}

func (f *fakeProvider) SignTransaction(context.Context, *solana.Transaction) (*solana.Transaction, error) {
	return nil, sandboxerr.ErrUserRejected
}

func (f *fakeProvider) SignAllTransactions(context.Context, []*solana.Transaction) ([]*solana.Transaction, error) {
	return nil, sandboxerr.ErrUserRejected
}

func (f *fakeProvider) SignMessage(context.Context, []byte) (*provider.SignedMessage, error) {
	return nil, sandboxerr.ErrUserRejected
}

func (f *fakeProvider) Subscribe(sink chan<- provider.Event) event.Subscription {
	return f.feed.Subscribe(sink)
}

func (f *fakeProvider) interactiveConnects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.connectCalls {
		if !c.OnlyIfTrusted {
			n++
		}
	}
	return n
}

func (f *fakeProvider) disconnects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnectCalls
}

// recordingLogger captures diagnostic output.
type recordingLogger struct {
	mu     sync.Mutex
	debug  []string
	errors []string
}

func (l *recordingLogger) Debug(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debug = append(l.debug, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Error(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) errorLines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.errors...)
}

func (l *recordingLogger) debugLines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.debug...)
}
