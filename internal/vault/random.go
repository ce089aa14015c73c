package vault

import (
	"crypto/rand"
	"io"
)

// Reader is the randomness source for entropy generation.
//
//nolint:gochecknoglobals // Swappable for deterministic tests
var Reader io.Reader = rand.Reader

// RandomBytes returns n bytes from Reader.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(Reader, b); err != nil {
		return nil, err
	}
	return b, nil
}
