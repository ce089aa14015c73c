package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/gagliardetto/solana-go"

	"github.com/mrz1836/phantom-sandbox/internal/provider"
)

// fakeEndpoint serves blockhashes and records submissions.
type fakeEndpoint struct {
	blockhash    solana.Hash
	blockhashErr error
	sendErr      error
	confirmErr   error

	// barrier, when > 0, holds each blockhash call until that many calls
	// are in flight.
	barrier int

	blockhashCalls atomic.Int32
	mu             sync.Mutex
	inFlight       int
	released       chan struct{}
	sent           [][]byte
	confirmed      []solana.Signature
}

var errBarrierTimeout = errors.New("blockhash calls did not overlap")

func (f *fakeEndpoint) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	f.blockhashCalls.Add(1)
	if f.barrier > 0 {
		f.mu.Lock()
		if f.released == nil {
			f.released = make(chan struct{})
		}
		f.inFlight++
		if f.inFlight == f.barrier {
			close(f.released)
		}
		released := f.released
		f.mu.Unlock()

		select {
		case <-released:
		case <-ctx.Done():
			return solana.Hash{}, ctx.Err()
		case <-time.After(2 * time.Second):
			return solana.Hash{}, errBarrierTimeout
		}
	}
	if f.blockhashErr != nil {
		return solana.Hash{}, f.blockhashErr
	}
	return f.blockhash, nil
}

func (f *fakeEndpoint) SendRawTransaction(_ context.Context, raw []byte) (solana.Signature, error) {
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	tx, err := solana.TransactionFromBytes(raw)
	if err != nil {
		return solana.Signature{}, err
	}
	f.mu.Lock()
	f.sent = append(f.sent, raw)
	f.mu.Unlock()
	return tx.Signatures[0], nil
}

func (f *fakeEndpoint) ConfirmTransaction(_ context.Context, sig solana.Signature) error {
	if f.confirmErr != nil {
		return f.confirmErr
	}
	f.mu.Lock()
	f.confirmed = append(f.confirmed, sig)
	f.mu.Unlock()
	return nil
}

// fakeProvider signs with a real key unless rejectErr is set.
type fakeProvider struct {
	key       solana.PrivateKey
	connected bool
	rejectErr error

	mu      sync.Mutex
	batches [][]*solana.Transaction
	signed  [][]byte
	feed    event.Feed
}

func (f *fakeProvider) IsPhantom() bool { return true }

func (f *fakeProvider) PublicKey() *solana.PublicKey {
	if !f.connected {
		return nil
	}
	return f.key.PublicKey().ToPointer()
}

func (f *fakeProvider) Connect(context.Context, provider.ConnectOptions) (solana.PublicKey, error) {
	return f.key.PublicKey(), nil
}

func (f *fakeProvider) Disconnect(context.Context) error { return nil }

func (f *fakeProvider) getter(pk solana.PublicKey) *solana.PrivateKey {
	if pk.Equals(f.key.PublicKey()) {
		return &f.key
	}
	return nil
}

func (f *fakeProvider) SignTransaction(_ context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	if f.rejectErr != nil {
		return nil, f.rejectErr
	}
	if _, err := tx.Sign(f.getter); err != nil {
		return nil, err
	}
	return tx, nil
}

func (f *fakeProvider) SignAllTransactions(_ context.Context, txs []*solana.Transaction) ([]*solana.Transaction, error) {
	f.mu.Lock()
	f.batches = append(f.batches, txs)
	f.mu.Unlock()

	if f.rejectErr != nil {
		return nil, f.rejectErr
	}
	for _, tx := range txs {
		if _, err := tx.Sign(f.getter); err != nil {
			return nil, err
		}
	}
	return txs, nil
}

func (f *fakeProvider) SignMessage(_ context.Context, msg []byte) (*provider.SignedMessage, error) {
	if f.rejectErr != nil {
		return nil, f.rejectErr
	}
	f.mu.Lock()
	f.signed = append(f.signed, msg)
	f.mu.Unlock()

	sig, err := f.key.Sign(msg)
	if err != nil {
		return nil, err
	}
	return &provider.SignedMessage{PublicKey: f.key.PublicKey(), Signature: sig}, nil
}

func (f *fakeProvider) Subscribe(sink chan<- provider.Event) event.Subscription {
	return f.feed.Subscribe(sink)
}
