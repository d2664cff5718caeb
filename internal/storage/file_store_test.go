package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFileStore_SaveAndRemove(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalFileStore(dir)
	require.NoError(t, err)

	name, err := store.Save(strings.NewReader("png-bytes"), ".PNG")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".png"))

	content, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(content))

	require.NoError(t, store.Remove(name))
	_, err = os.Stat(filepath.Join(dir, name))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalFileStore_SaveUniqueNames(t *testing.T) {
	store, err := NewLocalFileStore(t.TempDir())
	require.NoError(t, err)

	first, _ := store.Save(strings.NewReader("a"), ".jpg")
	second, _ := store.Save(strings.NewReader("b"), ".jpg")
	assert.NotEqual(t, first, second)
}

func TestLocalFileStore_RemoveMissingIsNotError(t *testing.T) {
	store, err := NewLocalFileStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Remove("gone.jpg"))
}

func TestLocalFileStore_RemoveRejectsPaths(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalFileStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	outside := filepath.Join(dir, "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o600))

	assert.Error(t, store.Remove("../keep.txt"))
	assert.Error(t, store.Remove(""))
	_, err = os.Stat(outside)
	assert.NoError(t, err)
}

func TestNewLocalFileStore_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	_, err := NewLocalFileStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
