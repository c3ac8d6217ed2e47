package sources_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetkit-dev/assetkit/internal/infrastructure/sources"
)

func TestLocalSource_Directory(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.glb"), []byte("glTF"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o750))

	src := sources.NewLocalSource(0)
	assert.True(t, src.Accepts(dir))
	assert.False(t, src.Accepts(filepath.Join(dir, "missing")))

	raw, err := src.Fetch(context.Background(), dir)
	require.NoError(t, err)
	assert.Nil(t, raw.Archive)
	assert.Equal(t, map[string][]byte{"model.glb": []byte("glTF")}, raw.Files)
}

func TestLocalSource_File(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "crate.zip")
	require.NoError(t, os.WriteFile(path, []byte("PK\x03\x04"), 0o600))

	raw, err := sources.NewLocalSource(0).Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []byte("PK\x03\x04"), raw.Archive)
	assert.Equal(t, path, raw.Origin)

	_, err = sources.NewLocalSource(2).Fetch(context.Background(), path)
	assert.ErrorContains(t, err, "limit")
}

func TestLocalSource_CancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := sources.NewLocalSource(0).Fetch(ctx, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}
