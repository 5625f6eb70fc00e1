package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/labelshare/pkg/core/domain"
)

func TestStore_RoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	n, err := store.Put(ctx, "alice/demo/track.mp3", strings.NewReader("audio-bytes"))
	require.NoError(t, err)
	assert.EqualValues(t, 11, n)

	ok, err := store.Exists(ctx, "alice/demo/track.mp3")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Exists(ctx, "alice/demo")
	require.NoError(t, err)
	assert.False(t, ok, "directories are not objects")

	data, err := store.Get(ctx, "alice/demo/track.mp3")
	require.NoError(t, err)
	assert.Equal(t, "audio-bytes", string(data))

	require.NoError(t, store.Delete(ctx, "alice/demo/track.mp3"))
	_, err = store.Get(ctx, "alice/demo/track.mp3")
	assert.ErrorIs(t, err, domain.ErrObjectNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "alice/demo/track.mp3"), domain.ErrObjectNotFound)
}

func TestStore_Traversal(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "root")
	store, err := NewStore(root)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.txt"), []byte("x"), 0o600))
	ctx := context.Background()

	// ".." segments are clamped to the root
	_, err = store.Get(ctx, "../secret.txt")
	assert.ErrorIs(t, err, domain.ErrObjectNotFound)

	_, err = store.Get(ctx, "/")
	assert.Error(t, err)
}

func TestStore_CancelledGet(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	_, err = store.Put(context.Background(), "a/b.bin", strings.NewReader("payload"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Get(ctx, "a/b.bin")
	assert.ErrorIs(t, err, context.Canceled)
}
