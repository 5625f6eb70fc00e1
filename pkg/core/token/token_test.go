package token

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/labelshare/pkg/core/domain"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestGenerator_Generate(t *testing.T) {
	g := NewGenerator()

	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		tok, err := g.Generate()
		require.NoError(t, err)
		assert.Len(t, tok, 43)

		raw, err := base64.RawURLEncoding.DecodeString(tok)
		require.NoError(t, err)
		assert.Len(t, raw, Size)

		_, dup := seen[tok]
		assert.False(t, dup, "duplicate token %s", tok)
		seen[tok] = struct{}{}
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	src := bytes.Repeat([]byte{0xff}, Size)
	tok, err := NewGeneratorFromReader(bytes.NewReader(src)).Generate()
	require.NoError(t, err)
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(src), tok)
}

func TestGenerator_SourceFailure(t *testing.T) {
	_, err := NewGeneratorFromReader(failingReader{}).Generate()
	assert.ErrorIs(t, err, domain.ErrTokenGeneration)

	// short read
	_, err = NewGeneratorFromReader(bytes.NewReader([]byte{1, 2, 3})).Generate()
	assert.ErrorIs(t, err, domain.ErrTokenGeneration)
}
