package output_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rsc.io/qr"

	"github.com/mrz1836/phantom-sandbox/internal/output"
)

func TestDefaultQRConfig(t *testing.T) {
	t.Parallel()

	cfg := output.DefaultQRConfig()
	assert.Equal(t, qr.L, cfg.Level)
	assert.Equal(t, 1, cfg.QuietZone)
	assert.True(t, cfg.HalfBlocks)
}

func TestRenderQR_NonTerminal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, output.RenderQR(&buf, "solana:11111111111111111111111111111111", output.DefaultQRConfig()))
	require.NoError(t, output.RenderAddressQR(&buf, "11111111111111111111111111111111"))
	assert.Empty(t, buf.String())
}
