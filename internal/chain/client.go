package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"

	"github.com/mrz1836/phantom-sandbox/internal/metrics"
	sandboxerr "github.com/mrz1836/phantom-sandbox/pkg/errors"
)

// Default confirmation settings.
const (
	DefaultConfirmTimeout = 60 * time.Second
	DefaultPollInterval   = 500 * time.Millisecond
)

// ErrRPCURLRequired indicates the RPC URL was not provided.
var ErrRPCURLRequired = &sandboxerr.SandboxError{
	Code:     "RPC_URL_REQUIRED",
	Message:  "RPC URL is required",
	ExitCode: sandboxerr.ExitInput,
}

// rpcAPI is the subset of *rpc.Client the endpoint uses.
type rpcAPI interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SendRawTransaction(ctx context.Context, rawTx []byte) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
	Close() error
}

// ClientOptions contains optional configuration for the RPC client.
type ClientOptions struct {
	// RateLimiter throttles outgoing calls. Nil uses DefaultRateLimiter.
	RateLimiter *RateLimiter
	// ConfirmTimeout bounds ConfirmTransaction. Zero uses DefaultConfirmTimeout.
	ConfirmTimeout time.Duration
	// PollInterval is the delay between status polls. Zero uses DefaultPollInterval.
	PollInterval time.Duration
	// Metrics receives per-call counters. Nil uses metrics.Global.
	Metrics *metrics.Metrics
}

// Compile-time interface check
var _ Endpoint = (*Client)(nil)

// Client is an Endpoint backed by a JSON-RPC node.
type Client struct {
	rpcURL         string
	api            rpcAPI
	limiter        *RateLimiter
	confirmTimeout time.Duration
	pollInterval   time.Duration
	metrics        *metrics.Metrics
}

// NewClient creates a client for rpcURL. Cluster names such as "devnet" are
// resolved to their public endpoint.
func NewClient(rpcURL string, opts *ClientOptions) (*Client, error) {
	if rpcURL == "" {
		return nil, ErrRPCURLRequired
	}
	rpcURL = ResolveRPC(rpcURL)
	return newClient(rpcURL, rpc.New(rpcURL), opts), nil
}

func newClient(rpcURL string, api rpcAPI, opts *ClientOptions) *Client {
	c := &Client{
		rpcURL:         rpcURL,
		api:            api,
		limiter:        DefaultRateLimiter(),
		confirmTimeout: DefaultConfirmTimeout,
		pollInterval:   DefaultPollInterval,
		metrics:        metrics.Global,
	}

	if opts != nil {
		if opts.RateLimiter != nil {
			c.limiter = opts.RateLimiter
		}
		if opts.ConfirmTimeout > 0 {
			c.confirmTimeout = opts.ConfirmTimeout
		}
		if opts.PollInterval > 0 {
			c.pollInterval = opts.PollInterval
		}
		if opts.Metrics != nil {
			c.metrics = opts.Metrics
		}
	}

	return c
}

// URL returns the endpoint URL.
func (c *Client) URL() string {
	return c.rpcURL
}

// Close releases the underlying HTTP client.
func (c *Client) Close() error {
	return c.api.Close()
}

// LatestBlockhash fetches the most recent finalized blockhash.
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	if err := c.limiter.Wait(ctx, c.rpcURL); err != nil {
		return solana.Hash{}, err
	}

	start := time.Now()
	out, err := c.api.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err == nil && (out == nil || out.Value == nil) {
		err = errEmptyResult
	}
	c.metrics.RecordRPCCall(metrics.MethodLatestBlockhash, time.Since(start), err)
	if err != nil {
		return solana.Hash{}, networkError(err)
	}

	return out.Value.Blockhash, nil
}

// SendRawTransaction submits a serialized, signed transaction.
func (c *Client) SendRawTransaction(ctx context.Context, raw []byte) (solana.Signature, error) {
	if len(raw) == 0 {
		return solana.Signature{}, sandboxerr.ErrInvalidTransaction
	}
	if err := c.limiter.Wait(ctx, c.rpcURL); err != nil {
		return solana.Signature{}, err
	}

	start := time.Now()
	sig, err := c.api.SendRawTransaction(ctx, raw)
	c.metrics.RecordRPCCall(metrics.MethodSendTransaction, time.Since(start), err)
	if err != nil {
		var rpcErr *jsonrpc.RPCError
		if errors.As(err, &rpcErr) {
			return solana.Signature{}, fmt.Errorf("%w: %s", sandboxerr.ErrTxRejected, rpcErr.Message)
		}
		return solana.Signature{}, networkError(err)
	}

	return sig, nil
}

// ConfirmTransaction polls signature status until the transaction reaches
// confirmed or finalized commitment.
func (c *Client) ConfirmTransaction(ctx context.Context, sig solana.Signature) error {
	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		done, err := c.pollStatus(ctx, sig)
		if err != nil || done {
			return err
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return sandboxerr.WithDetails(sandboxerr.ErrConfirmationTimeout, map[string]string{
					"signature": sig.String(),
				})
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// pollStatus performs a single status query. It reports done once the
// transaction is confirmed.
func (c *Client) pollStatus(ctx context.Context, sig solana.Signature) (bool, error) {
	if err := c.limiter.Wait(ctx, c.rpcURL); err != nil {
		// Deadline hit while throttled; the caller's select reports it.
		if ctx.Err() != nil {
			return false, nil
		}
		return false, err
	}

	start := time.Now()
	out, err := c.api.GetSignatureStatuses(ctx, false, sig)
	c.metrics.RecordRPCCall(metrics.MethodSignatureStatuses, time.Since(start), err)

	switch {
	case errors.Is(err, rpc.ErrNotFound):
		return false, nil
	case err != nil:
		if ctx.Err() != nil {
			return false, nil
		}
		return false, networkError(err)
	case out == nil || len(out.Value) == 0 || out.Value[0] == nil:
		return false, nil
	}

	status := out.Value[0]
	if status.Err != nil {
		return false, sandboxerr.WithDetails(sandboxerr.ErrTxRejected, map[string]string{
			"signature": sig.String(),
			"reason":    fmt.Sprint(status.Err),
		})
	}

	switch status.ConfirmationStatus {
	case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
		return true, nil
	case rpc.ConfirmationStatusProcessed:
		return false, nil
	default:
		return false, nil
	}
}

var errEmptyResult = errors.New("empty result")

// networkError wraps a transport or node failure. JSON-RPC error objects are
// flattened to their code and message.
func networkError(err error) error {
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return fmt.Errorf("%w: rpc error %d: %s", sandboxerr.ErrNetworkError, rpcErr.Code, rpcErr.Message)
	}
	return fmt.Errorf("%w: %w", sandboxerr.ErrNetworkError, err)
}
