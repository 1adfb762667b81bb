package purge

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgindex/pkg/imgindex/types"
	"imgindex/pkg/imgindex/uploads"
)

const testIndexFilename = "image-index.json"

// seedUpload writes a sidecar plus optional image files for one ID.
func seedUpload(t *testing.T, dir, id, uploadDate string, withPrimary, withWebp bool) {
	t.Helper()

	fields := map[string]interface{}{}
	if uploadDate != "" {
		fields["uploadDate"] = uploadDate
	}
	data, err := json.Marshal(fields)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+uploads.SidecarSuffix), data, 0o644))

	if withPrimary {
		require.NoError(t, os.WriteFile(filepath.Join(dir, id+".png"), []byte("pixels"), 0o644))
	}
	if withWebp {
		require.NoError(t, os.WriteFile(filepath.Join(dir, id+".webp"), []byte("pixels"), 0o644))
	}
}

func run(t *testing.T, dir string, cutoff string, dryRun bool) *Result {
	t.Helper()

	cutoffDay, err := time.Parse("2006-01-02", cutoff)
	require.NoError(t, err)

	result, err := New(Options{
		UploadsDir:    dir,
		IndexFilename: testIndexFilename,
		Cutoff:        EndOfDay(cutoffDay),
		DryRun:        dryRun,
		Permanent:     true,
	}).Run(context.Background())
	require.NoError(t, err)
	return result
}

func TestEndOfDay(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	eod := EndOfDay(day)

	assert.Equal(t, 23, eod.Hour())
	assert.True(t, eod.Before(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, eod.After(time.Date(2025, 1, 31, 23, 59, 58, 0, time.UTC)))
}

func TestCoordinator_Run(t *testing.T) {
	t.Parallel()

	t.Run("classifies by cutoff", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		seedUpload(t, dir, "expired", "2024-12-01", true, false)
		seedUpload(t, dir, "fresh", "2025-02-01", true, false)

		result := run(t, dir, "2025-01-31", true)
		assert.Equal(t, 1, result.Deleted)
		assert.Equal(t, 1, result.Kept)
		assert.Zero(t, result.Skipped)
	})

	t.Run("cutoff day itself is included", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		seedUpload(t, dir, "sameday", "2025-01-31T18:00:00Z", true, false)

		result := run(t, dir, "2025-01-31", true)
		assert.Equal(t, 1, result.Deleted)
	})

	t.Run("dry run deletes nothing", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		seedUpload(t, dir, "expired", "2024-12-01", true, true)

		result := run(t, dir, "2025-01-31", true)
		assert.Equal(t, 1, result.Deleted)
		assert.Positive(t, result.BytesFreed)

		assert.FileExists(t, filepath.Join(dir, "expired.png"))
		assert.FileExists(t, filepath.Join(dir, "expired.webp"))
		assert.FileExists(t, filepath.Join(dir, "expired"+uploads.SidecarSuffix))
		assert.NoFileExists(t, filepath.Join(dir, testIndexFilename))
	})

	t.Run("real run removes the whole unit and regenerates index", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		seedUpload(t, dir, "expired", "2024-12-01", true, true)
		seedUpload(t, dir, "fresh", "2025-02-01", true, false)

		result := run(t, dir, "2025-01-31", false)
		assert.Equal(t, 1, result.Deleted)

		assert.NoFileExists(t, filepath.Join(dir, "expired.png"))
		assert.NoFileExists(t, filepath.Join(dir, "expired.webp"))
		assert.NoFileExists(t, filepath.Join(dir, "expired"+uploads.SidecarSuffix))
		assert.FileExists(t, filepath.Join(dir, "fresh.png"))

		data, err := os.ReadFile(filepath.Join(dir, testIndexFilename))
		require.NoError(t, err)
		var index types.UploadIndex
		require.NoError(t, json.Unmarshal(data, &index))
		assert.Equal(t, 1, index.TotalImages)
		assert.Equal(t, "fresh", index.Images[0].ID)
	})

	t.Run("missing upload date is skipped never deleted", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		seedUpload(t, dir, "undated", "", true, false)

		result := run(t, dir, "2025-01-31", false)
		assert.Zero(t, result.Deleted)
		assert.Equal(t, 1, result.Skipped)
		assert.FileExists(t, filepath.Join(dir, "undated.png"))
	})

	t.Run("unparseable date treated as missing", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		seedUpload(t, dir, "odd", "sometime last year", true, false)

		result := run(t, dir, "2025-01-31", false)
		assert.Zero(t, result.Deleted)
		assert.Equal(t, 1, result.Skipped)
	})

	t.Run("missing root is fatal", func(t *testing.T) {
		t.Parallel()
		missing := filepath.Join(t.TempDir(), "does-not-exist")

		_, err := New(Options{
			UploadsDir:    missing,
			IndexFilename: testIndexFilename,
			Cutoff:        EndOfDay(time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)),
			Permanent:     true,
		}).Run(context.Background())
		require.ErrorIs(t, err, uploads.ErrRootMissing)
	})

	t.Run("malformed sidecar reported, files untouched", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bad"+uploads.SidecarSuffix), []byte("{nope"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.png"), []byte("pixels"), 0o644))

		result := run(t, dir, "2025-01-31", false)
		assert.Equal(t, 1, result.Errored)
		assert.FileExists(t, filepath.Join(dir, "bad.png"))
	})

	t.Run("dry run and real run agree on classification", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		seedUpload(t, dir, "expired", "2024-12-01", true, false)
		seedUpload(t, dir, "fresh", "2025-02-01", true, false)
		seedUpload(t, dir, "undated", "", true, false)

		preview := run(t, dir, "2025-01-31", true)
		actual := run(t, dir, "2025-01-31", false)

		assert.Equal(t, preview.Deleted, actual.Deleted)
		assert.Equal(t, preview.Kept, actual.Kept)
		assert.Equal(t, preview.Skipped, actual.Skipped)
		assert.Equal(t, preview.BytesFreed, actual.BytesFreed)
	})

	t.Run("bytes freed covers the whole unit", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		seedUpload(t, dir, "expired", "2024-12-01", true, true)

		sidecarInfo, err := os.Stat(filepath.Join(dir, "expired"+uploads.SidecarSuffix))
		require.NoError(t, err)
		want := int64(len("pixels"))*2 + sidecarInfo.Size()

		result := run(t, dir, "2025-01-31", true)
		assert.Equal(t, want, result.BytesFreed)
	})
}
