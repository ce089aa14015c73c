package wallet

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/mrz1836/phantom-sandbox/internal/config"
	sandboxerr "github.com/mrz1836/phantom-sandbox/pkg/errors"
)

// RequestKind names what a site is asking the wallet to do.
type RequestKind string

// Request kinds shown to the user.
const (
	RequestConnect             RequestKind = "connect"
	RequestSignTransaction     RequestKind = "signTransaction"
	RequestSignAllTransactions RequestKind = "signAllTransactions"
	RequestSignMessage         RequestKind = "signMessage"
)

// Request is a pending approval.
type Request struct {
	Kind    RequestKind
	Origin  string
	Account solana.PublicKey
	// Detail is a short human readable description of the payload.
	Detail string
}

// Approver decides whether a request goes ahead.
type Approver interface {
	Approve(ctx context.Context, req Request) (bool, error)
}

// ApproverFunc adapts a function to Approver.
type ApproverFunc func(ctx context.Context, req Request) (bool, error)

// Approve calls f(ctx, req).
func (f ApproverFunc) Approve(ctx context.Context, req Request) (bool, error) {
	return f(ctx, req)
}

//nolint:gochecknoglobals // stateless approvers
var (
	// AutoApprove accepts every request.
	AutoApprove Approver = ApproverFunc(func(context.Context, Request) (bool, error) { return true, nil })

	// AutoReject declines every request.
	AutoReject Approver = ApproverFunc(func(context.Context, Request) (bool, error) { return false, nil })
)

// PromptApprover asks on a terminal. Only one prompt is shown at a time.
// A prompt abandoned by its context keeps its pending read, so the next
// line typed answers the next prompt.
type PromptApprover struct {
	mu      sync.Mutex
	in      *bufio.Reader
	out     io.Writer
	once    sync.Once
	reads   chan struct{}
	lines   chan promptLine
	pending bool
}

type promptLine struct {
	text string
	err  error
}

// NewPromptApprover returns an approver reading answers from in.
func NewPromptApprover(in io.Reader, out io.Writer) *PromptApprover {
	return &PromptApprover{
		in:    bufio.NewReader(in),
		out:   out,
		reads: make(chan struct{}),
		lines: make(chan promptLine, 1),
	}
}

// readLoop reads one line per request so a blocked terminal read never
// holds up a canceled prompt.
func (p *PromptApprover) readLoop() {
	for range p.reads {
		text, err := p.in.ReadString('\n')
		p.lines <- promptLine{text: text, err: err}
	}
}

// Approve prints the request and waits for a y/N answer. EOF declines.
// It returns ctx.Err() when ctx ends before an answer arrives.
func (p *PromptApprover) Approve(ctx context.Context, req Request) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, _ = fmt.Fprintf(p.out, "\n%s requests %s for %s\n", req.Origin, req.Kind, req.Account)
	if req.Detail != "" {
		_, _ = fmt.Fprintf(p.out, "  %s\n", req.Detail)
	}
	_, _ = fmt.Fprint(p.out, "Approve? [y/N]: ")

	p.once.Do(func() { go p.readLoop() })
	if !p.pending {
		p.reads <- struct{}{}
		p.pending = true
	}

	var line promptLine
	select {
	case line = <-p.lines:
		p.pending = false
	case <-ctx.Done():
		_, _ = fmt.Fprintln(p.out)
		return false, ctx.Err()
	}

	if line.err != nil && line.text == "" {
		if errors.Is(line.err, io.EOF) {
			return false, nil
		}
		return false, fmt.Errorf("reading approval: %w", line.err)
	}

	switch strings.ToLower(strings.TrimSpace(line.text)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// NewApprover returns the approver for a configured mode.
func NewApprover(mode string, in io.Reader, out io.Writer) (Approver, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case config.ApprovalAuto:
		return AutoApprove, nil
	case config.ApprovalReject:
		return AutoReject, nil
	case config.ApprovalPrompt, "":
		return NewPromptApprover(in, out), nil
	default:
		return nil, sandboxerr.WithDetails(sandboxerr.ErrConfigInvalid, map[string]string{
			"approval": mode,
		})
	}
}
