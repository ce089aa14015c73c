package output

import (
	"io"

	"github.com/mdp/qrterminal/v3"
	"rsc.io/qr"
)

// AddressURIScheme prefixes addresses encoded in QR codes so wallet apps
// recognize them.
const AddressURIScheme = "solana:"

// QRConfig configures terminal QR rendering.
type QRConfig struct {
	// Level is the error correction level.
	Level qr.Level
	// QuietZone is the blank border width in blocks.
	QuietZone int
	// HalfBlocks packs two rows into one line.
	HalfBlocks bool
}

// DefaultQRConfig returns a compact configuration. Addresses are short, so
// low error correction is enough.
func DefaultQRConfig() QRConfig {
	return QRConfig{
		Level:      qr.L,
		QuietZone:  1,
		HalfBlocks: true,
	}
}

// RenderQR draws data as a QR code when w is a terminal and writes nothing
// otherwise.
func RenderQR(w io.Writer, data string, cfg QRConfig) error {
	if !IsTerminal(w) {
		return nil
	}

	qrterminal.GenerateWithConfig(data, qrterminal.Config{
		Level:          cfg.Level,
		Writer:         w,
		QuietZone:      cfg.QuietZone,
		HalfBlocks:     cfg.HalfBlocks,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
	})
	return nil
}

// RenderAddressQR draws an account address as a wallet URI.
func RenderAddressQR(w io.Writer, address string) error {
	return RenderQR(w, AddressURIScheme+address, DefaultQRConfig())
}
