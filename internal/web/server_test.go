package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/phantom-sandbox/internal/dispatch"
	"github.com/mrz1836/phantom-sandbox/internal/metrics"
	"github.com/mrz1836/phantom-sandbox/internal/session"
	sandboxerr "github.com/mrz1836/phantom-sandbox/pkg/errors"
)

type fakeConnector struct {
	mu          sync.Mutex
	connects    int
	disconnects int
}

func (f *fakeConnector) Connect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	return nil
}

func (f *fakeConnector) Disconnect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	return nil
}

type fakeActions struct {
	mu        sync.Mutex
	sends     int
	batches   []bool
	messages  []string
	returnErr error
}

func (f *fakeActions) Send(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends++
	return f.returnErr
}

func (f *fakeActions) SignBatch(_ context.Context, onlyFirst bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, onlyFirst)
	return f.returnErr
}

func (f *fakeActions) SignMessage(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
	return f.returnErr
}

type fakeWallet struct {
	switched  []int
	locked    int
	switchErr error
}

func (f *fakeWallet) SwitchAccount(index int) (solana.PublicKey, error) {
	if f.switchErr != nil {
		return solana.PublicKey{}, f.switchErr
	}
	f.switched = append(f.switched, index)
	return solana.NewWallet().PublicKey(), nil
}

func (f *fakeWallet) Lock() {
	f.locked++
}

type fixture struct {
	server    *Server
	state     *session.State
	log       *session.Log
	connector *fakeConnector
	actions   *fakeActions
	wallet    *fakeWallet
	metrics   *metrics.Metrics
}

func newFixture(t *testing.T, withProvider bool) *fixture {
	t.Helper()

	f := &fixture{
		state:     session.NewState(),
		log:       session.NewLog(),
		connector: &fakeConnector{},
		actions:   &fakeActions{},
		wallet:    &fakeWallet{},
		metrics:   &metrics.Metrics{},
	}
	opts := Options{Wallet: f.wallet, Metrics: f.metrics}
	if withProvider {
		opts.Connector = f.connector
		opts.Actions = f.actions
	}
	f.server = NewServer(context.Background(), f.state, f.log, opts)
	return f
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	f.server.Wait()
	return rec
}

func TestIndex_NoProvider(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	rec := f.do(t, http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Could not find a provider")
	assert.NotContains(t, body, "Connect to Phantom")
	assert.NotContains(t, body, "Send Transaction")
}

func TestIndex_Disconnected(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	rec := f.do(t, http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "<h1>Phantom Sandbox</h1>")
	assert.Contains(t, body, "Connect to Phantom")
	assert.NotContains(t, body, "Connected as")
	assert.NotContains(t, body, "Send Transaction")
}

func TestIndex_Connected(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	pk := solana.NewWallet().PublicKey()
	f.state.SetConnected(pk)

	body := f.do(t, http.MethodGet, "/", "").Body.String()

	assert.Contains(t, body, "Connected as")
	assert.Contains(t, body, pk.String())
	for _, label := range []string{
		"Send Transaction",
		"Sign All Transactions (multiple)",
		"Sign All Transactions (single)",
		"Sign Message",
		"Disconnect",
	} {
		assert.Contains(t, body, label)
	}
	assert.NotContains(t, body, "Connect to Phantom")
}

func TestIndex_ConnectedWithUnknownAccount(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	f.state.SetConnected(solana.NewWallet().PublicKey())
	f.state.SetAccount(nil)

	body := f.do(t, http.MethodGet, "/", "").Body.String()

	assert.Contains(t, body, "Connect to Phantom")
	assert.NotContains(t, body, "Connected as")
}

func TestIndex_RendersLogInOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	f.log.Add("[connect] first")
	f.log.Add("[disconnect] 👋")

	body := f.do(t, http.MethodGet, "/", "").Body.String()

	first := strings.Index(body, "&gt; [connect] first")
	second := strings.Index(body, "&gt; [disconnect] 👋")
	require.GreaterOrEqual(t, first, 0)
	require.GreaterOrEqual(t, second, 0)
	assert.Less(t, first, second)
}

func TestIndex_EscapesLogLines(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	f.log.Add("<script>alert(1)</script>")

	body := f.do(t, http.MethodGet, "/", "").Body.String()

	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestIndex_Refresh(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	assert.NotContains(t, f.do(t, http.MethodGet, "/", "").Body.String(), "http-equiv=\"refresh\"")

	f.server.opts.RefreshSeconds = 3
	assert.Contains(t, f.do(t, http.MethodGet, "/", "").Body.String(), "content=\"3\"")
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/nope", "").Code)
}

func TestState(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	pk := solana.NewWallet().PublicKey()
	f.state.SetConnected(pk)
	f.log.Addf("[connect] %s", pk)

	rec := f.do(t, http.MethodGet, "/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got stateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Provider)
	assert.True(t, got.Connected)
	require.NotNil(t, got.Account)
	assert.Equal(t, pk, *got.Account)
	assert.Equal(t, []string{"[connect] " + pk.String()}, got.Logs)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	f.metrics.RecordAction(nil)
	f.metrics.RecordAction(errors.New("boom"))

	rec := f.do(t, http.MethodGet, "/debug/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap metrics.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, int64(2), snap.ActionsTotal)
	assert.Equal(t, int64(1), snap.ActionsErrors)
}

func TestConnectAndDisconnect(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)

	rec := f.do(t, http.MethodPost, "/connect", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = f.do(t, http.MethodPost, "/disconnect", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	assert.Equal(t, 1, f.connector.connects)
	assert.Equal(t, 1, f.connector.disconnects)
}

func TestActions(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)

	assert.Equal(t, http.StatusSeeOther, f.do(t, http.MethodPost, "/send", "").Code)
	assert.Equal(t, http.StatusSeeOther, f.do(t, http.MethodPost, "/sign-all", "").Code)
	assert.Equal(t, http.StatusSeeOther, f.do(t, http.MethodPost, "/sign-all?onlyFirst=true", "").Code)
	assert.Equal(t, http.StatusSeeOther, f.do(t, http.MethodPost, "/sign-message", "").Code)
	assert.Equal(t, http.StatusSeeOther, f.do(t, http.MethodPost, "/sign-message", "message=hello").Code)

	assert.Equal(t, 1, f.actions.sends)
	assert.Equal(t, []bool{false, true}, f.actions.batches)
	assert.Equal(t, []string{dispatch.DefaultMessage, "hello"}, f.actions.messages)
}

func TestActions_FailureStillRedirects(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	f.actions.returnErr = sandboxerr.ErrUserRejected

	assert.Equal(t, http.StatusSeeOther, f.do(t, http.MethodPost, "/send", "").Code)
	assert.Equal(t, 1, f.actions.sends)
}

func TestActions_NoProvider(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	for _, target := range []string{"/connect", "/disconnect", "/send", "/sign-all", "/sign-message"} {
		rec := f.do(t, http.MethodPost, target, "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, target)
	}
	assert.Zero(t, f.connector.connects)
	assert.Zero(t, f.actions.sends)
}

func TestActions_WrongMethod(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	assert.Equal(t, http.StatusMethodNotAllowed, f.do(t, http.MethodGet, "/send", "").Code)
	assert.Zero(t, f.actions.sends)
}

func TestWalletSwitch(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)

	assert.Equal(t, http.StatusSeeOther, f.do(t, http.MethodPost, "/wallet/switch", "account=2").Code)
	assert.Equal(t, []int{2}, f.wallet.switched)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/wallet/switch", "account=two").Code)

	f.wallet.switchErr = sandboxerr.ErrWalletLocked
	rec := f.do(t, http.MethodPost, "/wallet/switch", "account=1")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "wallet is locked")
}

func TestWalletLock(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	assert.Equal(t, http.StatusSeeOther, f.do(t, http.MethodPost, "/wallet/lock", "").Code)
	assert.Equal(t, 1, f.wallet.locked)
}

func TestWalletControls_Disabled(t *testing.T) {
	t.Parallel()

	s := NewServer(context.Background(), session.NewState(), session.NewLog(), Options{
		Connector: &fakeConnector{},
		Actions:   &fakeActions{},
	})

	for _, target := range []string{"/wallet/switch", "/wallet/lock"} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, target, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotContains(t, rec.Body.String(), "Lock wallet")
}

func TestShuttingDown(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	actions := &fakeActions{}
	s := NewServer(ctx, session.NewState(), session.NewLog(), Options{
		Connector: &fakeConnector{},
		Actions:   actions,
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/send", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Zero(t, actions.sends)
}

func TestServe(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewServer(ctx, session.NewState(), session.NewLog(), Options{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Contains(t, string(body), "Could not find a provider")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestStart_BadAddress(t *testing.T) {
	t.Parallel()

	s := NewServer(context.Background(), session.NewState(), session.NewLog(), Options{Addr: "127.0.0.1:-1"})
	require.Error(t, s.Start(context.Background()))
}
