package s3

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "alice/a.pdf", objectKey("/alice/a.pdf"))
	assert.Equal(t, "alice/a.pdf", objectKey("alice/a.pdf"))
}

func TestCountingReader(t *testing.T) {
	c := &countingReader{r: strings.NewReader("twelve bytes")}
	data, err := io.ReadAll(c)
	require.NoError(t, err)
	assert.Equal(t, "twelve bytes", string(data))
	assert.Equal(t, int64(12), c.n)
}

func TestNewStore_RequiresBucket(t *testing.T) {
	_, err := NewStore(context.Background(), Options{Region: "us-east-1"})
	assert.Error(t, err)
}
