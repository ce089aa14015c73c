package wallet

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/event"
	"github.com/gagliardetto/solana-go"

	"github.com/mrz1836/phantom-sandbox/internal/metrics"
	"github.com/mrz1836/phantom-sandbox/internal/provider"
	"github.com/mrz1836/phantom-sandbox/internal/vault"
	sandboxerr "github.com/mrz1836/phantom-sandbox/pkg/errors"
)

// maxDetailLen truncates message previews shown in approval prompts.
const maxDetailLen = 80

// ExtensionOptions configures an Extension.
type ExtensionOptions struct {
	// Origin identifies the site the extension is injected into.
	Origin string
	// Approver decides on connect and signing requests. Nil rejects all.
	Approver Approver
	// Trust records approved origins. Nil keeps an in-memory list.
	Trust *TrustList
	// Metrics counts wallet operations. Nil uses metrics.Global.
	Metrics *metrics.Metrics
}

// Extension is a local wallet that behaves like the browser extension: it
// is injected into a window, asks before connecting or signing, remembers
// trusted origins and emits lifecycle events.
type Extension struct {
	origin   string
	approver Approver
	trust    *TrustList
	metrics  *metrics.Metrics

	mu        sync.Mutex
	name      string
	accounts  []Account
	keys      []*vault.SecureBytes
	active    int
	connected bool

	feed      event.Feed
	pendingMu sync.Mutex
	pending   []provider.Event
	notify    chan struct{}
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ provider.Provider = (*Extension)(nil)

// NewExtension returns a locked extension.
func NewExtension(opts ExtensionOptions) *Extension {
	e := &Extension{
		origin:   opts.Origin,
		approver: opts.Approver,
		trust:    opts.Trust,
		metrics:  opts.Metrics,
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	if e.approver == nil {
		e.approver = AutoReject
	}
	if e.trust == nil {
		e.trust = NewTrustList()
	}
	if e.metrics == nil {
		e.metrics = metrics.Global
	}

	e.wg.Add(1)
	go e.pump()
	return e
}

// pump delivers queued events in order. Emitting never blocks the caller,
// so a subscriber may call back into the extension while handling an event.
func (e *Extension) pump() {
	defer e.wg.Done()
	for {
		select {
		case <-e.done:
			return
		case <-e.notify:
		}

		for {
			e.pendingMu.Lock()
			if len(e.pending) == 0 {
				e.pendingMu.Unlock()
				break
			}
			ev := e.pending[0]
			e.pending = e.pending[1:]
			e.pendingMu.Unlock()

			e.feed.Send(ev)
		}
	}
}

func (e *Extension) emit(ev provider.Event) {
	e.pendingMu.Lock()
	e.pending = append(e.pending, ev)
	e.pendingMu.Unlock()

	select {
	case e.notify <- struct{}{}:
	default:
	}
}

// Unlock decrypts a stored wallet and makes account active current.
func (e *Extension) Unlock(store Storage, name, password string, active int) error {
	w, secret, err := store.Load(name, password)
	if err != nil {
		return err
	}
	defer secret.Destroy()

	var keys []solana.PrivateKey
	switch w.Kind {
	case KindKeypair:
		if secret.Len() != ed25519.PrivateKeySize {
			return ErrInvalidKeypair
		}
		keys = []solana.PrivateKey{solana.PrivateKey(secret.Bytes())}
	case KindMnemonic:
		count := max(len(w.Accounts), 1)
		keys = make([]solana.PrivateKey, 0, count)
		for i := 0; i < count; i++ {
			key, err := DeriveAccount(secret.Bytes(), uint32(i)) //nolint:gosec // bounded by MaxAccounts
			if err != nil {
				zeroKeys(keys)
				return err
			}
			keys = append(keys, key)
		}
		defer zeroKeys(keys)
	default:
		return fmt.Errorf("%w: unknown wallet kind %q", sandboxerr.ErrInvalidInput, w.Kind)
	}

	return e.load(w.Name, keys, w.Kind == KindMnemonic, active)
}

// UnlockMnemonic derives count accounts from a mnemonic without storing it.
func (e *Extension) UnlockMnemonic(mnemonic, passphrase string, count, active int) error {
	if count < 1 || count > MaxAccounts {
		return fmt.Errorf("%w: %d not in 1..%d", ErrInvalidAccountCount, count, MaxAccounts)
	}

	seed, err := MnemonicToSeed(mnemonic, passphrase)
	if err != nil {
		return err
	}
	defer vault.Zero(seed)

	keys := make([]solana.PrivateKey, 0, count)
	defer func() { zeroKeys(keys) }()
	for i := 0; i < count; i++ {
		key, err := DeriveAccount(seed, uint32(i)) //nolint:gosec // bounded by MaxAccounts
		if err != nil {
			return err
		}
		keys = append(keys, key)
	}

	return e.load("", keys, true, active)
}

// UnlockKeypair loads a single keypair.
func (e *Extension) UnlockKeypair(key solana.PrivateKey) error {
	if len(key) != ed25519.PrivateKeySize {
		return ErrInvalidKeypair
	}
	return e.load("", []solana.PrivateKey{key}, false, 0)
}

func (e *Extension) load(name string, keys []solana.PrivateKey, derived bool, active int) error {
	if active < 0 || active >= len(keys) {
		return sandboxerr.WithDetails(sandboxerr.ErrAccountNotFound, map[string]string{
			"index":    fmt.Sprint(active),
			"accounts": fmt.Sprint(len(keys)),
		})
	}

	accounts := make([]Account, len(keys))
	secure := make([]*vault.SecureBytes, len(keys))
	for i, key := range keys {
		idx := uint32(i) //nolint:gosec // bounded by MaxAccounts
		accounts[i] = Account{Index: idx, PublicKey: key.PublicKey()}
		if derived {
			accounts[i].Path = AccountPath(idx)
		}
		secure[i] = vault.SecureBytesFromSlice(key)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	previous := e.activeKeyLocked()
	e.destroyKeysLocked()
	e.name = name
	e.accounts = accounts
	e.keys = secure
	e.active = active

	if e.connected && (previous == nil || !previous.Equals(accounts[active].PublicKey)) {
		e.announceActiveLocked()
	}
	return nil
}

func zeroKeys(keys []solana.PrivateKey) {
	for _, k := range keys {
		vault.Zero(k)
	}
}

func (e *Extension) destroyKeysLocked() {
	for _, k := range e.keys {
		k.Destroy()
	}
	e.keys = nil
}

func (e *Extension) activeKeyLocked() *solana.PublicKey {
	if e.keys == nil || e.active >= len(e.accounts) {
		return nil
	}
	return e.accounts[e.active].PublicKey.ToPointer()
}

// announceActiveLocked tells a connected site about the new active account.
// Accounts the origin never approved are reported as unknown and the site
// loses its connection.
func (e *Extension) announceActiveLocked() {
	pk := e.accounts[e.active].PublicKey
	if e.trust.IsTrusted(e.origin, pk) {
		e.emit(provider.AccountChanged(&pk))
		return
	}
	e.connected = false
	e.emit(provider.AccountChanged(nil))
}

// Lock forgets all keys. A connected site is told the account is unknown.
func (e *Extension) Lock() {
	e.mu.Lock()
	defer e.mu.Unlock()

	wasConnected := e.connected
	e.destroyKeysLocked()
	e.connected = false
	if wasConnected {
		e.emit(provider.AccountChanged(nil))
	}
}

// Locked reports whether the extension holds no keys.
func (e *Extension) Locked() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.keys == nil
}

// SwitchAccount makes account index active.
func (e *Extension) SwitchAccount(index int) (solana.PublicKey, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.keys == nil {
		return solana.PublicKey{}, sandboxerr.ErrWalletLocked
	}
	if index < 0 || index >= len(e.accounts) {
		return solana.PublicKey{}, sandboxerr.WithDetails(sandboxerr.ErrAccountNotFound, map[string]string{
			"index":    fmt.Sprint(index),
			"accounts": fmt.Sprint(len(e.accounts)),
		})
	}

	pk := e.accounts[index].PublicKey
	if index == e.active {
		return pk, nil
	}
	e.active = index
	if e.connected {
		e.announceActiveLocked()
	}
	return pk, nil
}

// Accounts returns the loaded accounts.
func (e *Extension) Accounts() []Account {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Account, len(e.accounts))
	copy(out, e.accounts)
	return out
}

// ActiveIndex returns the index of the active account.
func (e *Extension) ActiveIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Name returns the unlocked wallet name, empty for ephemeral keys.
func (e *Extension) Name() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.name
}

// Origin returns the site the extension is injected into.
func (e *Extension) Origin() string {
	return e.origin
}

// Trust returns the trust list.
func (e *Extension) Trust() *TrustList {
	return e.trust
}

// IsPhantom always reports true.
func (e *Extension) IsPhantom() bool {
	return true
}

// PublicKey returns the active account while connected.
func (e *Extension) PublicKey() *solana.PublicKey {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.connected {
		return nil
	}
	return e.activeKeyLocked()
}

// Connect connects the active account. Untrusted origins are asked for
// approval unless OnlyIfTrusted is set, in which case they are rejected.
func (e *Extension) Connect(ctx context.Context, opts provider.ConnectOptions) (pk solana.PublicKey, err error) {
	defer func() { e.metrics.RecordWalletOp(err) }()

	e.mu.Lock()
	active := e.activeKeyLocked()
	if active == nil {
		e.mu.Unlock()
		return solana.PublicKey{}, sandboxerr.ErrWalletLocked
	}
	pk = *active
	if e.connected {
		e.mu.Unlock()
		return pk, nil
	}
	e.mu.Unlock()

	if !e.trust.IsTrusted(e.origin, pk) {
		if opts.OnlyIfTrusted {
			return solana.PublicKey{}, sandboxerr.ErrUserRejected
		}
		if err := e.approve(ctx, Request{Kind: RequestConnect, Origin: e.origin, Account: pk}); err != nil {
			return solana.PublicKey{}, err
		}
		if err := e.trust.Trust(e.origin, pk); err != nil {
			return solana.PublicKey{}, err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// The wallet may have been locked or switched while the prompt was open.
	active = e.activeKeyLocked()
	if active == nil {
		return solana.PublicKey{}, sandboxerr.ErrWalletLocked
	}
	if !active.Equals(pk) {
		return solana.PublicKey{}, sandboxerr.WithDetails(sandboxerr.ErrUserRejected, map[string]string{
			"reason": "active account changed during approval",
		})
	}
	if !e.connected {
		e.connected = true
		e.emit(provider.Connected(pk))
	}
	return pk, nil
}

// Disconnect ends the connection. Disconnecting twice is a no-op.
func (e *Extension) Disconnect(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.metrics.RecordWalletOp(nil)
	if !e.connected {
		return nil
	}
	e.connected = false
	e.emit(provider.Disconnected())
	return nil
}

// SignTransaction signs tx with the active account after approval.
func (e *Extension) SignTransaction(ctx context.Context, tx *solana.Transaction) (_ *solana.Transaction, err error) {
	defer func() { e.metrics.RecordWalletOp(err) }()

	pk, err := e.signer()
	if err != nil {
		return nil, err
	}
	if err := checkSigner(tx, pk); err != nil {
		return nil, err
	}

	req := Request{Kind: RequestSignTransaction, Origin: e.origin, Account: pk, Detail: describeTransaction(tx)}
	if err := e.approve(ctx, req); err != nil {
		return nil, err
	}

	err = e.withKey(pk, func(key solana.PrivateKey) error {
		return partialSign(tx, pk, key)
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// SignAllTransactions signs every transaction after a single approval.
func (e *Extension) SignAllTransactions(ctx context.Context, txs []*solana.Transaction) (_ []*solana.Transaction, err error) {
	defer func() { e.metrics.RecordWalletOp(err) }()

	if len(txs) == 0 {
		return nil, sandboxerr.WithDetails(sandboxerr.ErrInvalidTransaction, map[string]string{
			"reason": "no transactions",
		})
	}

	pk, err := e.signer()
	if err != nil {
		return nil, err
	}
	for _, tx := range txs {
		if err := checkSigner(tx, pk); err != nil {
			return nil, err
		}
	}

	req := Request{
		Kind:    RequestSignAllTransactions,
		Origin:  e.origin,
		Account: pk,
		Detail:  fmt.Sprintf("%d transactions", len(txs)),
	}
	if err := e.approve(ctx, req); err != nil {
		return nil, err
	}

	err = e.withKey(pk, func(key solana.PrivateKey) error {
		for _, tx := range txs {
			if err := partialSign(tx, pk, key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// SignMessage signs msg with the active account after approval.
func (e *Extension) SignMessage(ctx context.Context, msg []byte) (_ *provider.SignedMessage, err error) {
	defer func() { e.metrics.RecordWalletOp(err) }()

	pk, err := e.signer()
	if err != nil {
		return nil, err
	}

	req := Request{Kind: RequestSignMessage, Origin: e.origin, Account: pk, Detail: describeMessage(msg)}
	if err := e.approve(ctx, req); err != nil {
		return nil, err
	}

	var sig solana.Signature
	err = e.withKey(pk, func(key solana.PrivateKey) error {
		var signErr error
		sig, signErr = key.Sign(msg)
		return signErr
	})
	if err != nil {
		return nil, err
	}
	return &provider.SignedMessage{PublicKey: pk, Signature: sig}, nil
}

// Subscribe delivers lifecycle events to sink.
func (e *Extension) Subscribe(sink chan<- provider.Event) event.Subscription {
	return e.feed.Subscribe(sink)
}

// Close stops event delivery and forgets all keys.
func (e *Extension) Close() {
	e.closeOnce.Do(func() {
		close(e.done)
		e.wg.Wait()

		e.mu.Lock()
		defer e.mu.Unlock()
		e.destroyKeysLocked()
		e.connected = false
	})
}

func (e *Extension) approve(ctx context.Context, req Request) error {
	ok, err := e.approver.Approve(ctx, req)
	if err != nil {
		return err
	}
	if !ok {
		return sandboxerr.ErrUserRejected
	}
	return nil
}

// signer returns the active account of a connected, unlocked wallet.
func (e *Extension) signer() (solana.PublicKey, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	active := e.activeKeyLocked()
	if active == nil {
		return solana.PublicKey{}, sandboxerr.ErrWalletLocked
	}
	if !e.connected {
		return solana.PublicKey{}, sandboxerr.ErrNotConnected
	}
	return *active, nil
}

// withKey runs fn with the private key of pk if pk is still the active,
// connected account.
func (e *Extension) withKey(pk solana.PublicKey, fn func(solana.PrivateKey) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	active := e.activeKeyLocked()
	switch {
	case active == nil:
		return sandboxerr.ErrWalletLocked
	case !e.connected:
		return sandboxerr.ErrNotConnected
	case !active.Equals(pk):
		return sandboxerr.WithDetails(sandboxerr.ErrUserRejected, map[string]string{
			"reason": "active account changed during approval",
		})
	}
	return fn(solana.PrivateKey(e.keys[e.active].Bytes()))
}

func checkSigner(tx *solana.Transaction, pk solana.PublicKey) error {
	if tx == nil {
		return sandboxerr.WithDetails(sandboxerr.ErrInvalidTransaction, map[string]string{
			"reason": "nil transaction",
		})
	}
	if !tx.Message.Signers().Has(pk) {
		return sandboxerr.WithDetails(sandboxerr.ErrInvalidTransaction, map[string]string{
			"reason":  "active account is not a signer",
			"account": pk.String(),
		})
	}
	return nil
}

func partialSign(tx *solana.Transaction, pk solana.PublicKey, key solana.PrivateKey) error {
	_, err := tx.PartialSign(func(k solana.PublicKey) *solana.PrivateKey {
		if k.Equals(pk) {
			return &key
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", sandboxerr.ErrInvalidTransaction, err)
	}
	return nil
}

func describeTransaction(tx *solana.Transaction) string {
	return fmt.Sprintf("%d instruction(s), recent blockhash %s",
		len(tx.Message.Instructions), tx.Message.RecentBlockhash)
}

func describeMessage(msg []byte) string {
	if !utf8.Valid(msg) {
		return fmt.Sprintf("%d bytes", len(msg))
	}
	text := string(msg)
	if utf8.RuneCountInString(text) > maxDetailLen {
		text = string([]rune(text)[:maxDetailLen]) + "..."
	}
	return fmt.Sprintf("%q", text)
}
