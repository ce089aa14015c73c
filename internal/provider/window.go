package provider

import (
	"sync"

	sandboxerr "github.com/mrz1836/phantom-sandbox/pkg/errors"
)

// Opener opens a URL on behalf of the window, such as an install page.
type Opener interface {
	Open(url string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(url string) error

// Open calls f(url).
func (f OpenerFunc) Open(url string) error {
	return f(url)
}

// Window is the host environment providers are injected into.
type Window struct {
	mu      sync.RWMutex
	globals map[string]any
	opener  Opener
	opened  []string
}

// NewWindow returns an empty window. A nil opener only records URLs.
func NewWindow(opener Opener) *Window {
	return &Window{
		globals: make(map[string]any),
		opener:  opener,
	}
}

// Inject sets a window global.
func (w *Window) Inject(name string, value any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.globals[name] = value
}

// Lookup returns a window global.
func (w *Window) Lookup(name string) (any, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	v, ok := w.globals[name]
	return v, ok
}

// Open records url and hands it to the opener.
func (w *Window) Open(url string) error {
	w.mu.Lock()
	w.opened = append(w.opened, url)
	opener := w.opener
	w.mu.Unlock()

	if opener == nil {
		return nil
	}
	return opener.Open(url)
}

// Opened returns every URL opened so far.
func (w *Window) Opened() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, len(w.opened))
	copy(out, w.opened)
	return out
}

// Detect returns the provider injected under GlobalName. When it is missing,
// of the wrong type, or does not identify as the expected wallet, the
// install page is opened once and ErrProviderNotFound is returned.
func Detect(win *Window) (Provider, error) {
	if v, ok := win.Lookup(GlobalName); ok {
		if p, ok := v.(Provider); ok && p != nil && p.IsPhantom() {
			return p, nil
		}
	}

	if err := win.Open(InstallURL); err != nil {
		return nil, sandboxerr.WithDetails(sandboxerr.ErrProviderNotFound, map[string]string{
			"open_error": err.Error(),
		})
	}
	return nil, sandboxerr.WithSuggestion(sandboxerr.ErrProviderNotFound, "install the wallet from "+InstallURL)
}
