// Package web serves the rendered sandbox page: connection status, the
// connected account, one button per action and the session log.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/mrz1836/phantom-sandbox/internal/dispatch"
	"github.com/mrz1836/phantom-sandbox/internal/metrics"
	"github.com/mrz1836/phantom-sandbox/internal/provider"
	"github.com/mrz1836/phantom-sandbox/internal/session"
)

// Title is the page heading.
const Title = "Phantom Sandbox"

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

//go:embed templates/index.html
var templateFS embed.FS

//nolint:gochecknoglobals // parsed once at init
var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Connector starts and ends the provider connection.
type Connector interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
}

// Actions runs the wallet operations.
type Actions interface {
	Send(ctx context.Context) error
	SignBatch(ctx context.Context, onlyFirst bool) error
	SignMessage(ctx context.Context, text string) error
}

// WalletControls simulates the user acting inside the wallet.
type WalletControls interface {
	SwitchAccount(index int) (solana.PublicKey, error)
	Lock()
}

// Options configures a Server.
type Options struct {
	// Addr is the listen address used by Start.
	Addr string
	// RefreshSeconds reloads the page periodically when positive.
	RefreshSeconds int
	// Connector is nil when no provider was found.
	Connector Connector
	// Actions runs the wallet operations. Required when Connector is set.
	Actions Actions
	// Wallet enables the wallet-side controls when set.
	Wallet WalletControls
	// Message is signed by the Sign Message button.
	Message string
	// Metrics is exposed at /debug/metrics. Nil uses metrics.Global.
	Metrics *metrics.Metrics
	// Logger receives request diagnostics. Nil discards them.
	Logger provider.DiagnosticLogger
}

// Server renders session state and launches actions.
type Server struct {
	opts  Options
	state *session.State
	log   *session.Log

	// ctx is the server lifetime; actions outlive the request that started them.
	ctx context.Context //nolint:containedctx // action lifetime
	wg  sync.WaitGroup
}

// NewServer returns a server whose actions run under ctx.
func NewServer(ctx context.Context, state *session.State, log *session.Log, opts Options) *Server {
	if opts.Message == "" {
		opts.Message = dispatch.DefaultMessage
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Global
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	return &Server{opts: opts, state: state, log: log, ctx: ctx}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("GET /debug/metrics", s.handleMetrics)

	mux.HandleFunc("POST /connect", s.requireProvider(s.handleConnect))
	mux.HandleFunc("POST /disconnect", s.requireProvider(s.handleDisconnect))
	mux.HandleFunc("POST /send", s.requireProvider(s.handleSend))
	mux.HandleFunc("POST /sign-all", s.requireProvider(s.handleSignAll))
	mux.HandleFunc("POST /sign-message", s.requireProvider(s.handleSignMessage))

	mux.HandleFunc("POST /wallet/switch", s.requireWallet(s.handleWalletSwitch))
	mux.HandleFunc("POST /wallet/lock", s.requireWallet(s.handleWalletLock))

	return s.withContext(mux)
}

// Start serves on opts.Addr until ctx is canceled, then shuts down and
// waits for running actions.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		s.Wait()
		return nil
	case err := <-errCh:
		return err
	}
}

// Wait blocks until every launched action has returned.
func (s *Server) Wait() {
	s.wg.Wait()
}

// launch runs fn in its own goroutine under the server lifetime.
func (s *Server) launch(name string, fn func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := fn(s.ctx); err != nil {
			s.opts.Logger.Debug("action %s: %v", name, err)
		}
	}()
}

// pageData is the template model.
type pageData struct {
	Title          string
	HasProvider    bool
	Account        string
	Message        string
	Wallet         bool
	RefreshSeconds int
	Logs           []string
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	snap := s.state.Snapshot()
	data := pageData{
		Title:          Title,
		HasProvider:    s.opts.Connector != nil,
		Message:        s.opts.Message,
		Wallet:         s.opts.Wallet != nil,
		RefreshSeconds: s.opts.RefreshSeconds,
		Logs:           s.log.Rendered(),
	}
	if snap.Account != nil {
		data.Account = snap.Account.String()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		s.opts.Logger.Error("render page: %v", err)
	}
}

// stateResponse is the body of GET /state.
type stateResponse struct {
	Provider  bool              `json:"provider"`
	Connected bool              `json:"connected"`
	Account   *solana.PublicKey `json:"account"`
	Logs      []string          `json:"logs"`
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	snap := s.state.Snapshot()
	writeJSON(w, http.StatusOK, stateResponse{
		Provider:  s.opts.Connector != nil,
		Connected: snap.Connected,
		Account:   snap.Account,
		Logs:      s.log.Entries(),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.opts.Metrics.Snapshot())
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	s.launch("connect", s.opts.Connector.Connect)
	backToIndex(w, r)
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	s.launch("disconnect", s.opts.Connector.Disconnect)
	backToIndex(w, r)
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	s.launch(dispatch.ActionSendTransaction, s.opts.Actions.Send)
	backToIndex(w, r)
}

func (s *Server) handleSignAll(w http.ResponseWriter, r *http.Request) {
	onlyFirst, _ := strconv.ParseBool(r.URL.Query().Get("onlyFirst"))
	s.launch(dispatch.ActionSignMultiple, func(ctx context.Context) error {
		return s.opts.Actions.SignBatch(ctx, onlyFirst)
	})
	backToIndex(w, r)
}

func (s *Server) handleSignMessage(w http.ResponseWriter, r *http.Request) {
	message := r.FormValue("message")
	if message == "" {
		message = s.opts.Message
	}
	s.launch(dispatch.ActionSignMessage, func(ctx context.Context) error {
		return s.opts.Actions.SignMessage(ctx, message)
	})
	backToIndex(w, r)
}

func (s *Server) handleWalletSwitch(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.FormValue("account"))
	if err != nil {
		http.Error(w, "account must be an integer", http.StatusBadRequest)
		return
	}
	if _, err := s.opts.Wallet.SwitchAccount(index); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	backToIndex(w, r)
}

func (s *Server) handleWalletLock(w http.ResponseWriter, r *http.Request) {
	s.opts.Wallet.Lock()
	backToIndex(w, r)
}

func (s *Server) requireProvider(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.opts.Connector == nil || s.opts.Actions == nil {
			http.Error(w, "could not find a provider", http.StatusServiceUnavailable)
			return
		}
		next(w, r)
	}
}

func (s *Server) requireWallet(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.opts.Wallet == nil {
			http.NotFound(w, r)
			return
		}
		next(w, r)
	}
}

// withContext rejects requests once the server lifetime has ended and
// logs each request.
func (s *Server) withContext(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-s.ctx.Done():
			http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
			return
		default:
		}

		start := time.Now()
		handler.ServeHTTP(w, r)
		s.opts.Logger.Debug("%s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}

func backToIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
