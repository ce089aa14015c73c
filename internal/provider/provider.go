// Package provider binds the sandbox to a wallet provider injected into a
// host window and turns the provider's lifecycle events into session state.
package provider

import (
	"context"
	"encoding/json"

	"github.com/ethereum/go-ethereum/event"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// GlobalName is the window global a provider is injected under.
const GlobalName = "solana"

// InstallURL is opened when no suitable provider is present.
const InstallURL = "https://phantom.app/"

// ConnectOptions controls a connection request.
type ConnectOptions struct {
	// OnlyIfTrusted connects silently if the origin was approved before,
	// and fails instead of prompting otherwise.
	OnlyIfTrusted bool
}

// SignedMessage is the result of signing an opaque message.
type SignedMessage struct {
	PublicKey solana.PublicKey
	Signature solana.Signature
}

// MarshalJSON encodes both fields as base58 strings.
func (m SignedMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		PublicKey string `json:"publicKey"`
		Signature string `json:"signature"`
	}{
		PublicKey: base58.Encode(m.PublicKey[:]),
		Signature: base58.Encode(m.Signature[:]),
	})
}

// Verify reports whether the signature is valid for msg.
func (m SignedMessage) Verify(msg []byte) bool {
	return m.Signature.Verify(m.PublicKey, msg)
}

// Provider is a wallet injected into the host window.
type Provider interface {
	// IsPhantom reports whether the provider identifies as the expected wallet.
	IsPhantom() bool

	// PublicKey returns the connected account, or nil when not connected.
	PublicKey() *solana.PublicKey

	// Connect requests access to the active account.
	Connect(ctx context.Context, opts ConnectOptions) (solana.PublicKey, error)

	// Disconnect ends the connection.
	Disconnect(ctx context.Context) error

	// SignTransaction signs tx with the active account and returns it.
	SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error)

	// SignAllTransactions signs every transaction in one approval.
	SignAllTransactions(ctx context.Context, txs []*solana.Transaction) ([]*solana.Transaction, error)

	// SignMessage signs opaque bytes with the active account.
	SignMessage(ctx context.Context, msg []byte) (*SignedMessage, error)

	// Subscribe delivers lifecycle events to sink until unsubscribed.
	Subscribe(sink chan<- Event) event.Subscription
}
