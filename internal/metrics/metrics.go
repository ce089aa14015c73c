// Package metrics provides application-level metrics collection.
// This is a lightweight metrics foundation using atomic counters.
package metrics

import (
	"sync/atomic"
	"time"
)

// RPC method names tracked individually.
const (
	MethodLatestBlockhash   = "getLatestBlockhash"
	MethodSendTransaction   = "sendTransaction"
	MethodSignatureStatuses = "getSignatureStatuses"
)

// Metrics holds application metrics using atomic counters for thread safety.
type Metrics struct {
	// RPC metrics
	rpcCallsTotal   atomic.Int64
	rpcErrorsTotal  atomic.Int64
	rpcLatencyNanos atomic.Int64

	// Per-method RPC calls
	blockhashCalls atomic.Int64
	sendCalls      atomic.Int64
	statusCalls    atomic.Int64

	// Wallet operation metrics
	walletOpsTotal  atomic.Int64
	walletOpsErrors atomic.Int64

	// User actions dispatched against the provider
	actionsTotal  atomic.Int64
	actionsErrors atomic.Int64

	// Provider lifecycle events applied to the session
	providerEvents atomic.Int64
}

// Global is the global metrics instance.
// Use this for recording metrics throughout the application.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// RecordRPCCall records an RPC call with its duration and success status.
func (m *Metrics) RecordRPCCall(method string, duration time.Duration, err error) {
	m.rpcCallsTotal.Add(1)
	m.rpcLatencyNanos.Add(duration.Nanoseconds())

	if err != nil {
		m.rpcErrorsTotal.Add(1)
	}

	switch method {
	case MethodLatestBlockhash:
		m.blockhashCalls.Add(1)
	case MethodSendTransaction:
		m.sendCalls.Add(1)
	case MethodSignatureStatuses:
		m.statusCalls.Add(1)
	}
}

// RecordWalletOp records a wallet operation.
func (m *Metrics) RecordWalletOp(err error) {
	m.walletOpsTotal.Add(1)
	if err != nil {
		m.walletOpsErrors.Add(1)
	}
}

// RecordAction records a user-initiated action and its outcome.
func (m *Metrics) RecordAction(err error) {
	m.actionsTotal.Add(1)
	if err != nil {
		m.actionsErrors.Add(1)
	}
}

// RecordProviderEvent records a provider lifecycle event.
func (m *Metrics) RecordProviderEvent() {
	m.providerEvents.Add(1)
}

// Snapshot returns a point-in-time copy of all metrics.
type Snapshot struct {
	RPCCallsTotal          int64 `json:"rpc_calls_total"`
	RPCErrorsTotal         int64 `json:"rpc_errors_total"`
	RPCLatencyNanos        int64 `json:"rpc_latency_nanos"`
	BlockhashCalls         int64 `json:"blockhash_calls"`
	SendTransactionCalls   int64 `json:"send_transaction_calls"`
	SignatureStatusesCalls int64 `json:"signature_statuses_calls"`
	WalletOpsTotal         int64 `json:"wallet_ops_total"`
	WalletOpsErrors        int64 `json:"wallet_ops_errors"`
	ActionsTotal           int64 `json:"actions_total"`
	ActionsErrors          int64 `json:"actions_errors"`
	ProviderEvents         int64 `json:"provider_events"`
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		RPCCallsTotal:          m.rpcCallsTotal.Load(),
		RPCErrorsTotal:         m.rpcErrorsTotal.Load(),
		RPCLatencyNanos:        m.rpcLatencyNanos.Load(),
		BlockhashCalls:         m.blockhashCalls.Load(),
		SendTransactionCalls:   m.sendCalls.Load(),
		SignatureStatusesCalls: m.statusCalls.Load(),
		WalletOpsTotal:         m.walletOpsTotal.Load(),
		WalletOpsErrors:        m.walletOpsErrors.Load(),
		ActionsTotal:           m.actionsTotal.Load(),
		ActionsErrors:          m.actionsErrors.Load(),
		ProviderEvents:         m.providerEvents.Load(),
	}
}

// RPCCallsTotal returns the total number of RPC calls made.
func (m *Metrics) RPCCallsTotal() int64 {
	return m.rpcCallsTotal.Load()
}

// RPCErrorsTotal returns the total number of RPC errors.
func (m *Metrics) RPCErrorsTotal() int64 {
	return m.rpcErrorsTotal.Load()
}

// RPCLatencyAvgMs returns the average RPC latency in milliseconds.
// Returns 0 if no calls have been made.
func (m *Metrics) RPCLatencyAvgMs() float64 {
	calls := m.rpcCallsTotal.Load()
	if calls == 0 {
		return 0
	}
	nanos := m.rpcLatencyNanos.Load()
	return float64(nanos) / float64(calls) / 1e6
}

// ActionErrorRate returns the share of failed actions as a percentage (0-100).
// Returns 0 if no actions have been dispatched.
func (m *Metrics) ActionErrorRate() float64 {
	total := m.actionsTotal.Load()
	if total == 0 {
		return 0
	}
	return float64(m.actionsErrors.Load()) / float64(total) * 100
}

// Reset resets all metrics to zero.
// Useful for testing.
func (m *Metrics) Reset() {
	m.rpcCallsTotal.Store(0)
	m.rpcErrorsTotal.Store(0)
	m.rpcLatencyNanos.Store(0)
	m.blockhashCalls.Store(0)
	m.sendCalls.Store(0)
	m.statusCalls.Store(0)
	m.walletOpsTotal.Store(0)
	m.walletOpsErrors.Store(0)
	m.actionsTotal.Store(0)
	m.actionsErrors.Store(0)
	m.providerEvents.Store(0)
}
