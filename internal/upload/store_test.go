package upload

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiskStoreSaveAndDelete(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "http://localhost:8080/uploads/")
	require.NoError(t, err)

	url, err := store.Save(context.Background(), "emp-1/1700000000.png", []byte("png-bytes"))
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080/uploads/emp-1/1700000000.png", url)

	path, ok := store.URLToPath(url)
	require.True(t, ok)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte("png-bytes"), data)

	require.NoError(t, store.Delete(context.Background(), "emp-1/1700000000.png"))
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))

	// Deleting again is not an error
	require.NoError(t, store.Delete(context.Background(), "emp-1/1700000000.png"))
}

func TestDiskStoreRejectsTraversal(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "http://localhost:8080/uploads")
	require.NoError(t, err)

	_, err = store.Save(context.Background(), "../escape.png", []byte("x"))
	require.Error(t, err)

	_, err = store.Save(context.Background(), filepath.Join(string(os.PathSeparator), "abs.png"), []byte("x"))
	require.Error(t, err)

	require.Error(t, store.Delete(context.Background(), "../escape.png"))
}

func TestURLToPathForeignURL(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "http://localhost:8080/uploads")
	require.NoError(t, err)

	_, ok := store.URLToPath("https://cdn.example.com/photo.png")
	require.False(t, ok)

	_, ok = store.URLToPath("http://localhost:8080/uploads/../../etc/passwd")
	require.False(t, ok)
}
