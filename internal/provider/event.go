package provider

import (
	"github.com/gagliardetto/solana-go"
)

// EventKind identifies a provider lifecycle event.
type EventKind int

const (
	// EventConnect is fired when an account connects.
	EventConnect EventKind = iota
	// EventDisconnect is fired when the connection ends.
	EventDisconnect
	// EventAccountChanged is fired when the wallet switches accounts. A nil
	// public key means the new account is unknown to this origin.
	EventAccountChanged
)

// String returns the provider-side event name.
func (k EventKind) String() string {
	switch k {
	case EventConnect:
		return "connect"
	case EventDisconnect:
		return "disconnect"
	case EventAccountChanged:
		return "accountChanged"
	default:
		return "unknown"
	}
}

// Event is a lifecycle notification emitted by a provider.
type Event struct {
	Kind      EventKind
	PublicKey *solana.PublicKey
}

// Connected returns a connect event for pk.
func Connected(pk solana.PublicKey) Event {
	return Event{Kind: EventConnect, PublicKey: pk.ToPointer()}
}

// Disconnected returns a disconnect event.
func Disconnected() Event {
	return Event{Kind: EventDisconnect}
}

// AccountChanged returns an account change event. pk may be nil.
func AccountChanged(pk *solana.PublicKey) Event {
	if pk == nil {
		return Event{Kind: EventAccountChanged}
	}
	return Event{Kind: EventAccountChanged, PublicKey: pk.ToPointer()}
}
