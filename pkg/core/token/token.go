package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/wadjakorntonsri/labelshare/pkg/core/domain"
)

// Size is the number of random bytes behind every token (256 bits).
const Size = 32

// Generator draws share tokens from a cryptographically secure source.
type Generator struct {
	source io.Reader
}

// NewGenerator returns a Generator reading from crypto/rand.
func NewGenerator() *Generator {
	return &Generator{source: rand.Reader}
}

// NewGeneratorFromReader is used by tests to control the random source.
func NewGeneratorFromReader(r io.Reader) *Generator {
	return &Generator{source: r}
}

// Generate returns an unpadded base64url token. A short read from the
// source is fatal; there is no fallback.
func (g *Generator) Generate() (string, error) {
	b := make([]byte, Size)
	if _, err := io.ReadFull(g.source, b); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
