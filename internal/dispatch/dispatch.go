// Package dispatch implements the user actions of the sandbox: building a
// self-transfer, sending it, signing batches of transactions and signing a
// message. Every outcome is appended to the session log.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/phantom-sandbox/internal/chain"
	"github.com/mrz1836/phantom-sandbox/internal/metrics"
	"github.com/mrz1836/phantom-sandbox/internal/provider"
	"github.com/mrz1836/phantom-sandbox/internal/session"
	sandboxerr "github.com/mrz1836/phantom-sandbox/pkg/errors"
)

// TransferLamports is the amount moved by the self-transfer.
const TransferLamports uint64 = 100

// DefaultMessage is signed when no message is given.
const DefaultMessage = "To avoid digital dognappers, sign below to authenticate with CryptoCorgis."

// Action names used in log lines and diagnostics.
const (
	ActionSendTransaction = "sendTransaction"
	ActionSignMultiple    = "signMultipleTransactions"
	ActionSignMessage     = "signMessage"
)

// batchSize is the number of transactions built for a batch signature.
const batchSize = 2

// Options configures a Dispatcher.
type Options struct {
	// Logger receives per-task diagnostics. Nil discards them.
	Logger provider.DiagnosticLogger
	// Metrics counts actions. Nil uses metrics.Global.
	Metrics *metrics.Metrics
}

// Dispatcher runs actions against a bound provider and an RPC endpoint.
// Actions are independent and may overlap.
type Dispatcher struct {
	provider provider.Provider
	endpoint chain.Endpoint
	log      *session.Log
	logger   provider.DiagnosticLogger
	metrics  *metrics.Metrics
}

// New returns a Dispatcher.
func New(p provider.Provider, endpoint chain.Endpoint, log *session.Log, opts *Options) *Dispatcher {
	d := &Dispatcher{
		provider: p,
		endpoint: endpoint,
		log:      log,
		logger:   discard{},
		metrics:  metrics.Global,
	}
	if opts != nil {
		if opts.Logger != nil {
			d.logger = opts.Logger
		}
		if opts.Metrics != nil {
			d.metrics = opts.Metrics
		}
	}
	return d
}

type discard struct{}

func (discard) Debug(string, ...any) {}
func (discard) Error(string, ...any) {}

// BuildTransferRequest builds a transfer of TransferLamports from the
// provider's account to itself with a freshly fetched blockhash. It returns
// nil, nil when the provider has no account.
func (d *Dispatcher) BuildTransferRequest(ctx context.Context) (*solana.Transaction, error) {
	pk := d.provider.PublicKey()
	if pk == nil {
		return nil, nil //nolint:nilnil // no account is not an error
	}

	d.log.Add("Getting recent blockhash")
	blockhash, err := d.endpoint.LatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(TransferLamports, *pk, *pk).Build()},
		blockhash,
		solana.TransactionPayer(*pk),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sandboxerr.ErrInvalidTransaction, err)
	}
	return tx, nil
}

// Send builds, signs, submits and confirms a self-transfer.
func (d *Dispatcher) Send(ctx context.Context) error {
	return d.run(ActionSendTransaction, func() error {
		tx, err := d.BuildTransferRequest(ctx)
		if err != nil || tx == nil {
			return err
		}

		signed, err := d.provider.SignTransaction(ctx, tx)
		if err != nil {
			return err
		}
		d.log.Add("Got signature, submitting transaction")

		raw, err := signed.MarshalBinary()
		if err != nil {
			return fmt.Errorf("%w: %w", sandboxerr.ErrInvalidTransaction, err)
		}

		sig, err := d.endpoint.SendRawTransaction(ctx, raw)
		if err != nil {
			return err
		}
		d.log.Addf("Submitted transaction %s, awaiting confirmation", sig)

		if err := d.endpoint.ConfirmTransaction(ctx, sig); err != nil {
			return err
		}
		d.log.Addf("Transaction %s confirmed", sig)
		return nil
	})
}

// SignBatch builds two transfers concurrently and asks the provider to sign
// both, or only the first when onlyFirst is set.
func (d *Dispatcher) SignBatch(ctx context.Context, onlyFirst bool) error {
	return d.run(ActionSignMultiple, func() error {
		var txs [batchSize]*solana.Transaction

		g, gctx := errgroup.WithContext(ctx)
		for i := range txs {
			g.Go(func() error {
				tx, err := d.BuildTransferRequest(gctx)
				txs[i] = tx
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		for _, tx := range txs {
			if tx == nil {
				return nil
			}
		}

		batch := txs[:]
		if onlyFirst {
			batch = txs[:1]
		}

		signed, err := d.provider.SignAllTransactions(ctx, batch)
		if err != nil {
			return err
		}

		data, err := json.Marshal(summarize(signed))
		if err != nil {
			return err
		}
		d.log.Addf("%s txns: %s", ActionSignMultiple, data)
		return nil
	})
}

// SignMessage asks the provider to sign the UTF-8 bytes of text.
func (d *Dispatcher) SignMessage(ctx context.Context, text string) error {
	return d.run(ActionSignMessage, func() error {
		signed, err := d.provider.SignMessage(ctx, []byte(text))
		if err != nil {
			return err
		}

		data, err := json.Marshal(signed)
		if err != nil {
			return err
		}
		d.log.Addf("Message signed %s", data)
		return nil
	})
}

// run executes one action under a task id and logs its failure.
func (d *Dispatcher) run(action string, fn func() error) error {
	task := uuid.NewString()
	d.logger.Debug("task %s: %s started", task, action)

	err := fn()
	d.metrics.RecordAction(err)
	if err != nil {
		d.log.Addf("[error] %s: %s", action, err)
		d.logger.Error("task %s: %s failed: %v", task, action, err)
		return err
	}

	d.logger.Debug("task %s: %s done", task, action)
	return nil
}
