package wallet

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/phantom-sandbox/internal/config"
	sandboxerr "github.com/mrz1836/phantom-sandbox/pkg/errors"
)

func TestStaticApprovers(t *testing.T) {
	t.Parallel()
	ok, err := AutoApprove.Approve(context.Background(), Request{})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = AutoReject.Approve(context.Background(), Request{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPromptApprover(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"y", true},
		{"", false},
	}
	for _, tc := range tests {
		var out bytes.Buffer
		p := NewPromptApprover(strings.NewReader(tc.input), &out)

		ok, err := p.Approve(context.Background(), Request{
			Kind:    RequestSignMessage,
			Origin:  "http://localhost:3000",
			Account: solana.PublicKey{1},
			Detail:  `"hello"`,
		})
		require.NoError(t, err)
		assert.Equal(t, tc.want, ok, "input %q", tc.input)
		assert.Contains(t, out.String(), "http://localhost:3000 requests signMessage")
		assert.Contains(t, out.String(), `"hello"`)
		assert.Contains(t, out.String(), "Approve? [y/N]: ")
	}
}

func TestPromptApprover_CanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	_, err := NewPromptApprover(strings.NewReader("y\n"), &out).Approve(ctx, Request{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}

func TestPromptApprover_DeadlineWhileWaiting(t *testing.T) {
	t.Parallel()
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })

	var out bytes.Buffer
	p := NewPromptApprover(pr, &out)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	ok, err := p.Approve(ctx, Request{Kind: RequestConnect, Origin: "http://localhost:3000"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)

	// The abandoned read answers the next prompt
	go func() { _, _ = pw.Write([]byte("y\n")) }()
	ok, err = p.Approve(context.Background(), Request{Kind: RequestConnect, Origin: "http://localhost:3000"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewApprover(t *testing.T) {
	t.Parallel()

	for _, mode := range []string{config.ApprovalAuto, config.ApprovalReject, config.ApprovalPrompt, "", " AUTO "} {
		a, err := NewApprover(mode, strings.NewReader(""), &bytes.Buffer{})
		require.NoError(t, err, mode)
		assert.NotNil(t, a)
	}

	_, err := NewApprover("sometimes", nil, nil)
	require.ErrorIs(t, err, sandboxerr.ErrConfigInvalid)
}
