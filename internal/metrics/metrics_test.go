package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	sandboxerr "github.com/mrz1836/phantom-sandbox/pkg/errors"
)

func TestMetrics_RecordRPCCall(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordRPCCall(MethodLatestBlockhash, 100*time.Millisecond, nil)
	assert.Equal(t, int64(1), m.RPCCallsTotal())
	assert.Equal(t, int64(0), m.RPCErrorsTotal())
	assert.Equal(t, int64(1), m.blockhashCalls.Load())

	m.RecordRPCCall(MethodSendTransaction, 50*time.Millisecond, sandboxerr.ErrNetworkError)
	assert.Equal(t, int64(2), m.RPCCallsTotal())
	assert.Equal(t, int64(1), m.RPCErrorsTotal())
	assert.Equal(t, int64(1), m.sendCalls.Load())

	m.RecordRPCCall(MethodSignatureStatuses, time.Millisecond, nil)
	m.RecordRPCCall("getHealth", time.Millisecond, nil)
	assert.Equal(t, int64(4), m.RPCCallsTotal())
	assert.Equal(t, int64(1), m.statusCalls.Load())
}

func TestMetrics_RecordWalletOp(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordWalletOp(nil)
	m.RecordWalletOp(sandboxerr.ErrGeneral)

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.WalletOpsTotal)
	assert.Equal(t, int64(1), snap.WalletOpsErrors)
}

func TestMetrics_ActionErrorRate(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	assert.InDelta(t, 0.0, m.ActionErrorRate(), 0.001)

	m.RecordAction(nil)
	m.RecordAction(nil)
	m.RecordAction(nil)
	m.RecordAction(sandboxerr.ErrUserRejected)

	assert.InDelta(t, 25.0, m.ActionErrorRate(), 0.001)
}

func TestMetrics_RPCLatencyAvg(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	assert.InDelta(t, 0.0, m.RPCLatencyAvgMs(), 0.001)

	m.RecordRPCCall(MethodLatestBlockhash, 100*time.Millisecond, nil)
	m.RecordRPCCall(MethodLatestBlockhash, 200*time.Millisecond, nil)

	assert.InDelta(t, 150.0, m.RPCLatencyAvgMs(), 1.0)
}

func TestMetrics_SnapshotAndReset(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordRPCCall(MethodSignatureStatuses, time.Millisecond, nil)
	m.RecordWalletOp(nil)
	m.RecordAction(nil)
	m.RecordProviderEvent()

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.RPCCallsTotal)
	assert.Equal(t, int64(1), snap.SignatureStatusesCalls)
	assert.Equal(t, int64(1), snap.WalletOpsTotal)
	assert.Equal(t, int64(1), snap.ActionsTotal)
	assert.Equal(t, int64(1), snap.ProviderEvents)

	m.Reset()
	assert.Equal(t, Snapshot{}, m.Snapshot())
}

func TestMetrics_Concurrent(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				m.RecordRPCCall(MethodSendTransaction, time.Microsecond, nil)
				m.RecordAction(nil)
			}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	assert.Equal(t, int64(1000), m.RPCCallsTotal())
	assert.Equal(t, int64(1000), m.Snapshot().ActionsTotal)
}
