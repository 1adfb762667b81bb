package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFile creates a file with throwaway content, making parents first.
func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestScanner_Scan(t *testing.T) {
	t.Parallel()

	t.Run("finds image files recursively", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "icons", "fire.png"))
		writeFile(t, filepath.Join(root, "icons", "flame.JPG"))
		writeFile(t, filepath.Join(root, "ui", "buttons", "ok.webp"))
		writeFile(t, filepath.Join(root, "notes.txt"))

		result, err := New(Options{Root: root}).Scan(context.Background())
		require.NoError(t, err)

		assert.Len(t, result.Files, 3)
		paths := make(map[string]bool)
		for _, f := range result.Files {
			paths[f.RelPath] = true
		}
		assert.True(t, paths["icons/fire.png"])
		assert.True(t, paths["icons/flame.JPG"])
		assert.True(t, paths["ui/buttons/ok.webp"])
	})

	t.Run("populates entry metadata", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "icons", "fire.png"))

		result, err := New(Options{Root: root}).Scan(context.Background())
		require.NoError(t, err)
		require.Len(t, result.Files, 1)

		entry := result.Files[0]
		assert.Equal(t, "icons/fire.png", entry.RelPath)
		assert.Equal(t, int64(1), entry.Size)
		assert.False(t, entry.ModTime.IsZero())
	})

	t.Run("skips excluded directories", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "icons", "fire.png"))
		writeFile(t, filepath.Join(root, ".git", "objects", "blob.png"))

		result, err := New(Options{Root: root, Exclude: []string{".git"}}).Scan(context.Background())
		require.NoError(t, err)

		assert.Len(t, result.Files, 1)
		assert.Equal(t, "icons/fire.png", result.Files[0].RelPath)
	})

	t.Run("counts non-image files as skipped", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "icons", "fire.png"))
		writeFile(t, filepath.Join(root, "notes.txt"))
		writeFile(t, filepath.Join(root, "data.json"))

		result, err := New(Options{Root: root}).Scan(context.Background())
		require.NoError(t, err)

		assert.Len(t, result.Files, 1)
		assert.Equal(t, int64(2), result.FilesSkipped)
		assert.Equal(t, int64(3), result.FilesScanned)
	})

	t.Run("missing root is fatal", func(t *testing.T) {
		t.Parallel()
		_, err := New(Options{Root: filepath.Join(t.TempDir(), "nope")}).Scan(context.Background())
		assert.ErrorIs(t, err, ErrRootMissing)
	})

	t.Run("empty root yields empty result", func(t *testing.T) {
		t.Parallel()
		result, err := New(Options{Root: t.TempDir()}).Scan(context.Background())
		require.NoError(t, err)
		assert.Empty(t, result.Files)
	})
}
