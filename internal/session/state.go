// Package session holds the sandbox's belief about the connected wallet and
// the on-screen diagnostic log.
//
// State is mutated only from provider lifecycle events. The log is an
// append-only, ordered sink that is safe for concurrent writers.
package session

import (
	"sync"

	"github.com/gagliardetto/solana-go"
)

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	Connected bool              `json:"connected"`
	Account   *solana.PublicKey `json:"account,omitempty"`
}

// State tracks whether an account is connected and which account is active.
// Both fields change together under a single lock.
type State struct {
	mu        sync.RWMutex
	connected bool
	account   *solana.PublicKey
}

// NewState returns a disconnected state.
func NewState() *State {
	return &State{}
}

// SetConnected records a connected account.
func (s *State) SetConnected(account solana.PublicKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	s.account = account.ToPointer()
}

// SetDisconnected clears the account and the connected flag.
func (s *State) SetDisconnected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	s.account = nil
}

// SetAccount replaces the active account without touching the connected flag.
// A nil account marks the active account as unknown.
func (s *State) SetAccount(account *solana.PublicKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if account == nil {
		s.account = nil
		return
	}
	s.account = account.ToPointer()
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{Connected: s.connected}
	if s.account != nil {
		snap.Account = s.account.ToPointer()
	}
	return snap
}

// Connected reports whether an account is connected.
func (s *State) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Account returns the active account, or nil when none is known.
func (s *State) Account() *solana.PublicKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.account == nil {
		return nil
	}
	return s.account.ToPointer()
}
