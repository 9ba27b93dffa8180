package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SaveAndRemove(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	store, err := NewLocalStorage(base, "profiles", "reviews")
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(base, "profiles"))
	assert.DirExists(t, filepath.Join(base, "reviews"))

	public, err := store.Save(ctx, "reviews", "reviewImages-1-000000001.png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/reviews/reviewImages-1-000000001.png", public)

	data, err := os.ReadFile(filepath.Join(base, "reviews", "reviewImages-1-000000001.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	require.NoError(t, store.Remove(ctx, public))
	assert.NoFileExists(t, filepath.Join(base, "reviews", "reviewImages-1-000000001.png"))
	require.NoError(t, store.Remove(ctx, public), "removing twice is fine")
}

func TestLocalStorage_RejectsEscapes(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"../evil.png", "a/b.png", "..", ""} {
		_, err := store.Save(ctx, "reviews", name, []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidPath, name)
	}

	for _, p := range []string{"/uploads/../../etc/passwd", "/etc/passwd", "/uploads/", "relative.png"} {
		assert.ErrorIs(t, store.Remove(ctx, p), ErrInvalidPath, p)
	}
}
