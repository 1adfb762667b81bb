package uploads

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgindex/pkg/imgindex/types"
)

const testIndexFilename = "image-index.json"

// writeSidecar writes a sidecar document for the given ID.
func writeSidecar(t *testing.T, dir, id string, fields map[string]interface{}) {
	t.Helper()
	data, err := json.Marshal(fields)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+SidecarSuffix), data, 0o644))
}

// writeImage writes a real PNG so dimension decoding succeeds.
func writeImage(t *testing.T, dir, name string, width, height int) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, width, height))))
}

func buildIndex(t *testing.T, dir string) *types.UploadIndex {
	t.Helper()
	result, err := New(Options{UploadsDir: dir, IndexFilename: testIndexFilename}).Build(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result.Index)
	return result.Index
}

func TestBuilder_Build(t *testing.T) {
	t.Parallel()

	t.Run("assembles entries from sidecars", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeImage(t, dir, "abc123.png", 32, 16)
		writeSidecar(t, dir, "abc123", map[string]interface{}{
			"filename":   "sunset.png",
			"category":   "landscapes",
			"tags":       []string{"sky", "sun"},
			"uploadedBy": "ann",
			"uploadDate": "2025-01-01",
		})

		index := buildIndex(t, dir)
		require.Len(t, index.Images, 1)

		entry := index.Images[0]
		assert.Equal(t, "abc123", entry.ID)
		assert.Equal(t, "sunset.png", entry.Filename)
		assert.Equal(t, "landscapes", entry.Category)
		require.NotNil(t, entry.Path)
		assert.Equal(t, "abc123.png", *entry.Path)
		assert.Equal(t, "png", entry.Format)
		assert.Equal(t, types.Dimensions{Width: 32, Height: 16}, entry.Dimensions)
		assert.Positive(t, entry.Filesize)
	})

	t.Run("sidecar dimensions win over decoding", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeImage(t, dir, "abc123.png", 32, 16)
		writeSidecar(t, dir, "abc123", map[string]interface{}{
			"uploadDate": "2025-01-01",
			"dimensions": map[string]int{"width": 640, "height": 480},
		})

		index := buildIndex(t, dir)
		require.Len(t, index.Images, 1)
		assert.Equal(t, types.Dimensions{Width: 640, Height: 480}, index.Images[0].Dimensions)
	})

	t.Run("missing primary file yields empty entry", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeSidecar(t, dir, "abc123", map[string]interface{}{
			"uploadDate": "2025-01-01",
		})

		index := buildIndex(t, dir)
		require.Len(t, index.Images, 1)

		entry := index.Images[0]
		assert.Nil(t, entry.Path)
		assert.Zero(t, entry.Filesize)
		assert.Equal(t, types.Dimensions{}, entry.Dimensions)
	})

	t.Run("entries sorted newest first", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeSidecar(t, dir, "old", map[string]interface{}{"uploadDate": "2024-06-01"})
		writeSidecar(t, dir, "new", map[string]interface{}{"uploadDate": "2025-02-01"})
		writeSidecar(t, dir, "mid", map[string]interface{}{"uploadDate": "2024-12-25"})

		index := buildIndex(t, dir)
		require.Len(t, index.Images, 3)
		assert.Equal(t, "new", index.Images[0].ID)
		assert.Equal(t, "mid", index.Images[1].ID)
		assert.Equal(t, "old", index.Images[2].ID)
	})

	t.Run("equal dates keep input order", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		// Sidecars are discovered in lexical order.
		writeSidecar(t, dir, "aa", map[string]interface{}{"uploadDate": "2025-01-01"})
		writeSidecar(t, dir, "bb", map[string]interface{}{"uploadDate": "2025-01-01"})

		index := buildIndex(t, dir)
		require.Len(t, index.Images, 2)
		assert.Equal(t, "aa", index.Images[0].ID)
		assert.Equal(t, "bb", index.Images[1].ID)
	})

	t.Run("byCategory buckets match entries", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeSidecar(t, dir, "s1", map[string]interface{}{"category": "landscapes", "uploadDate": "2025-01-03"})
		writeSidecar(t, dir, "s2", map[string]interface{}{"category": "portraits", "uploadDate": "2025-01-02"})
		writeSidecar(t, dir, "s3", map[string]interface{}{"category": "landscapes", "uploadDate": "2025-01-01"})

		index := buildIndex(t, dir)

		assert.Equal(t, []string{"s1", "s3"}, index.ByCategory["landscapes"])
		assert.Equal(t, []string{"s2"}, index.ByCategory["portraits"])

		// Every bucketed ID maps back to exactly one entry.
		seen := make(map[string]int)
		for _, ids := range index.ByCategory {
			for _, id := range ids {
				seen[id]++
			}
		}
		for _, entry := range index.Images {
			assert.Equal(t, 1, seen[entry.ID], "entry %s bucketed once", entry.ID)
			assert.Contains(t, index.ByCategory, entry.Category)
		}
	})

	t.Run("totalImages matches images length", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		for i := 0; i < 5; i++ {
			writeSidecar(t, dir, fmt.Sprintf("s%d", i), map[string]interface{}{"uploadDate": "2025-01-01"})
		}

		index := buildIndex(t, dir)
		assert.Equal(t, len(index.Images), index.TotalImages)
		assert.Equal(t, 5, index.TotalImages)
	})

	t.Run("defaults applied for sparse sidecars", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeSidecar(t, dir, "abc123", map[string]interface{}{})

		index := buildIndex(t, dir)
		require.Len(t, index.Images, 1)

		entry := index.Images[0]
		assert.Equal(t, "abc123", entry.Filename)
		assert.Equal(t, "abc123", entry.Name)
		assert.Equal(t, types.DefaultCategory, entry.Category)
		assert.NotNil(t, entry.Tags)
		assert.Empty(t, entry.UploadDate)
	})

	t.Run("malformed sidecar skipped, batch continues", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bad"+SidecarSuffix), []byte("{nope"), 0o644))
		writeSidecar(t, dir, "good", map[string]interface{}{"uploadDate": "2025-01-01"})

		result, err := New(Options{UploadsDir: dir, IndexFilename: testIndexFilename}).Build(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, result.Stats.Errored)
		require.Len(t, result.Index.Images, 1)
		assert.Equal(t, "good", result.Index.Images[0].ID)
	})

	t.Run("empty directory writes empty index", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()

		result, err := New(Options{UploadsDir: dir, IndexFilename: testIndexFilename}).Build(context.Background())
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(dir, testIndexFilename))
		require.NoError(t, err)

		var parsed map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &parsed))
		assert.Equal(t, float64(0), parsed["totalImages"])
		assert.Len(t, parsed["images"], 0)
		assert.Empty(t, parsed["byCategory"])
		assert.Equal(t, types.IndexVersion, parsed["version"])
		assert.Zero(t, result.Stats.Processed)
	})

	t.Run("missing root is fatal", func(t *testing.T) {
		t.Parallel()
		_, err := New(Options{
			UploadsDir:    filepath.Join(t.TempDir(), "nope"),
			IndexFilename: testIndexFilename,
		}).Build(context.Background())
		assert.ErrorIs(t, err, ErrRootMissing)
	})

	t.Run("repeat runs produce identical entries", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeImage(t, dir, "abc123.png", 8, 8)
		writeSidecar(t, dir, "abc123", map[string]interface{}{"uploadDate": "2025-01-01"})

		first := buildIndex(t, dir)
		second := buildIndex(t, dir)

		firstJSON, err := json.Marshal(first.Images)
		require.NoError(t, err)
		secondJSON, err := json.Marshal(second.Images)
		require.NoError(t, err)
		assert.Equal(t, string(firstJSON), string(secondJSON))
	})
}
