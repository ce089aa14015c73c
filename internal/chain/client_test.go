package chain_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/phantom-sandbox/internal/chain"
	"github.com/mrz1836/phantom-sandbox/internal/metrics"
	sandboxerr "github.com/mrz1836/phantom-sandbox/pkg/errors"
)

type rpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     any               `json:"id"`
}

// newRPCServer answers JSON-RPC calls with handler's result or error object.
func newRPCServer(t *testing.T, handler func(req rpcRequest) (result any, rpcErr map[string]any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		result, rpcErr := handler(req)
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, url string, m *metrics.Metrics) *chain.Client {
	t.Helper()
	c, err := chain.NewClient(url, &chain.ClientOptions{
		RateLimiter:    chain.NewRateLimiter(0, 1),
		ConfirmTimeout: 2 * time.Second,
		PollInterval:   10 * time.Millisecond,
		Metrics:        m,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewClient_RequiresURL(t *testing.T) {
	t.Parallel()
	_, err := chain.NewClient("", nil)
	require.ErrorIs(t, err, chain.ErrRPCURLRequired)
}

func TestNewClient_ResolvesClusterName(t *testing.T) {
	t.Parallel()
	c, err := chain.NewClient("devnet", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://api.devnet.solana.com", c.URL())
}

func TestClient_LatestBlockhash(t *testing.T) {
	t.Parallel()
	want := solana.HashFromBytes(make([]byte, 32))
	want[0] = 7

	srv := newRPCServer(t, func(req rpcRequest) (any, map[string]any) {
		assert.Equal(t, "getLatestBlockhash", req.Method)
		return map[string]any{
			"context": map[string]any{"slot": 10},
			"value": map[string]any{
				"blockhash":            want.String(),
				"lastValidBlockHeight": 200,
			},
		}, nil
	})

	m := &metrics.Metrics{}
	c := newTestClient(t, srv.URL, m)

	got, err := c.LatestBlockhash(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, int64(1), m.Snapshot().BlockhashCalls)
}

func TestClient_LatestBlockhash_RPCError(t *testing.T) {
	t.Parallel()
	srv := newRPCServer(t, func(rpcRequest) (any, map[string]any) {
		return nil, map[string]any{"code": -32005, "message": "node is behind"}
	})

	m := &metrics.Metrics{}
	c := newTestClient(t, srv.URL, m)

	_, err := c.LatestBlockhash(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, sandboxerr.ErrNetworkError)
	assert.Contains(t, err.Error(), "node is behind")
	assert.Equal(t, int64(1), m.RPCErrorsTotal())
}

func TestClient_SendRawTransaction(t *testing.T) {
	t.Parallel()
	var sig solana.Signature
	sig[0] = 42

	srv := newRPCServer(t, func(req rpcRequest) (any, map[string]any) {
		assert.Equal(t, "sendTransaction", req.Method)
		var encoded string
		if assert.NotEmpty(t, req.Params) {
			assert.NoError(t, json.Unmarshal(req.Params[0], &encoded))
		}
		assert.Equal(t, "AQID", encoded)
		return sig.String(), nil
	})

	c := newTestClient(t, srv.URL, &metrics.Metrics{})
	got, err := c.SendRawTransaction(context.Background(), []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, sig, got)
}

func TestClient_SendRawTransaction_Rejected(t *testing.T) {
	t.Parallel()
	srv := newRPCServer(t, func(rpcRequest) (any, map[string]any) {
		return nil, map[string]any{"code": -32002, "message": "Transaction simulation failed"}
	})

	c := newTestClient(t, srv.URL, &metrics.Metrics{})
	_, err := c.SendRawTransaction(context.Background(), []byte{1})
	require.ErrorIs(t, err, sandboxerr.ErrTxRejected)
	assert.Contains(t, err.Error(), "Transaction simulation failed")
}

func TestClient_SendRawTransaction_Empty(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, "http://127.0.0.1:1", &metrics.Metrics{})
	_, err := c.SendRawTransaction(context.Background(), nil)
	require.ErrorIs(t, err, sandboxerr.ErrInvalidTransaction)
}

func statusResult(status any) map[string]any {
	return map[string]any{
		"context": map[string]any{"slot": 1},
		"value":   []any{status},
	}
}

func TestClient_ConfirmTransaction(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32

	srv := newRPCServer(t, func(req rpcRequest) (any, map[string]any) {
		assert.Equal(t, "getSignatureStatuses", req.Method)
		switch calls.Add(1) {
		case 1:
			return statusResult(nil), nil
		case 2:
			return statusResult(map[string]any{"slot": 5, "confirmations": 0, "err": nil, "confirmationStatus": "processed"}), nil
		default:
			return statusResult(map[string]any{"slot": 5, "confirmations": 1, "err": nil, "confirmationStatus": "confirmed"}), nil
		}
	})

	m := &metrics.Metrics{}
	c := newTestClient(t, srv.URL, m)
	require.NoError(t, c.ConfirmTransaction(context.Background(), solana.Signature{1}))
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, int64(3), m.Snapshot().SignatureStatusesCalls)
}

func TestClient_ConfirmTransaction_Failed(t *testing.T) {
	t.Parallel()
	srv := newRPCServer(t, func(rpcRequest) (any, map[string]any) {
		return statusResult(map[string]any{
			"slot":               5,
			"confirmations":      nil,
			"err":                map[string]any{"InstructionError": []any{0, "Custom"}},
			"confirmationStatus": "finalized",
		}), nil
	})

	c := newTestClient(t, srv.URL, &metrics.Metrics{})
	err := c.ConfirmTransaction(context.Background(), solana.Signature{1})
	require.ErrorIs(t, err, sandboxerr.ErrTxRejected)
	assert.Contains(t, err.Error(), "InstructionError")
}

func TestClient_ConfirmTransaction_Timeout(t *testing.T) {
	t.Parallel()
	srv := newRPCServer(t, func(rpcRequest) (any, map[string]any) {
		return statusResult(nil), nil
	})

	c, err := chain.NewClient(srv.URL, &chain.ClientOptions{
		RateLimiter:    chain.NewRateLimiter(0, 1),
		ConfirmTimeout: 50 * time.Millisecond,
		PollInterval:   10 * time.Millisecond,
		Metrics:        &metrics.Metrics{},
	})
	require.NoError(t, err)

	err = c.ConfirmTransaction(context.Background(), solana.Signature{1})
	require.ErrorIs(t, err, sandboxerr.ErrConfirmationTimeout)
	assert.Equal(t, sandboxerr.ExitGeneral, sandboxerr.ExitCode(err))
}

func TestClient_ConfirmTransaction_Canceled(t *testing.T) {
	t.Parallel()
	srv := newRPCServer(t, func(rpcRequest) (any, map[string]any) {
		return statusResult(nil), nil
	})

	c := newTestClient(t, srv.URL, &metrics.Metrics{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	err := c.ConfirmTransaction(ctx, solana.Signature{1})
	require.ErrorIs(t, err, context.Canceled)
}

func TestClient_ConfirmTransaction_TransportError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL, &metrics.Metrics{})
	err := c.ConfirmTransaction(context.Background(), solana.Signature{1})
	require.ErrorIs(t, err, sandboxerr.ErrNetworkError)
}
